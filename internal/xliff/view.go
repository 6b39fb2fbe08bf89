package xliff

// View presents one half of a File as a single-valued store. Switching
// between views never alters stored data.
type View struct {
	file *File
	mode Mode
}

// Mode returns a view bound to the source or target half.
func (f *File) Mode(m Mode) *View {
	return &View{file: f, mode: m}
}

func (v *View) Keys() []string { return v.file.Keys() }

func (v *View) Get(key string) (string, bool, error) { return v.file.Get(v.mode, key) }

func (v *View) Set(key, value string) error { return v.file.Set(v.mode, key, value) }

// Remove deletes the whole unit regardless of the view's mode.
func (v *View) Remove(key string) error { return v.file.Remove(key) }

// File returns the document behind the view.
func (v *View) File() *File { return v.file }
