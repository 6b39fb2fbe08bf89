// Package contao implements the key/value store backed by a Contao language
// file (<lang>/<domain>.php).
package contao

import (
	"errors"
	"io/fs"
	"slices"
	"strings"
	"time"

	lerrors "contao-l10n-sync/internal/errors"
	"contao-l10n-sync/internal/parser"

	"github.com/spf13/afero"
)

// File is the flat key/value content of one Contao language file.
type File struct {
	fs       afero.Fs
	path     string
	language string
	header   string
	project  string
	now      func() time.Time

	keys    []string
	values  map[string]*string
	changed bool
}

// Option configures a File.
type Option func(*File)

// WithHeader sets the header comment template written on save.
func WithHeader(tpl string) Option {
	return func(f *File) {
		if tpl != "" {
			f.header = tpl
		}
	}
}

// WithProject sets the value of the $$project$$ header token.
func WithProject(project string) Option {
	return func(f *File) { f.project = project }
}

// WithClock replaces time.Now for the $$lastchanged$$ and $$year$$ tokens.
func WithClock(now func() time.Time) Option {
	return func(f *File) { f.now = now }
}

// New creates an empty language file that does not exist on disk yet.
func New(fsys afero.Fs, path, language string, opts ...Option) *File {
	f := &File{
		fs:       fsys,
		path:     path,
		language: language,
		header:   DefaultHeader,
		now:      time.Now,
		values:   make(map[string]*string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load reads the language file at path. A missing file yields an empty
// File.
func Load(fsys afero.Fs, path, language string, opts ...Option) (*File, error) {
	f := New(fsys, path, language, opts...)

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return nil, lerrors.NewIO("read", path, err)
	}

	result, err := parser.Parse(path, data)
	if err != nil {
		return nil, err
	}
	f.keys = result.Keys
	f.values = result.Values
	return f, nil
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// LanguageCode returns the language of the file.
func (f *File) LanguageCode() string { return f.language }

// Changed reports whether a mutation changed a value since loading.
func (f *File) Changed() bool { return f.changed }

// Len returns the number of keys.
func (f *File) Len() int { return len(f.keys) }

// Keys returns the keys in order of first assignment.
func (f *File) Keys() []string {
	return slices.Clone(f.keys)
}

// Get returns the value of key. ok is false for unknown keys and for keys
// assigned null.
func (f *File) Get(key string) (string, bool, error) {
	if err := checkKey("get", key); err != nil {
		return "", false, err
	}
	v := f.values[key]
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Set stores value under key.
func (f *File) Set(key, value string) error {
	if err := checkKey("set", key); err != nil {
		return err
	}
	old, exists := f.values[key]
	if old != nil && *old == value {
		return nil
	}
	if !exists {
		f.keys = append(f.keys, key)
	}
	f.values[key] = &value
	f.changed = true
	return nil
}

// Remove deletes key.
func (f *File) Remove(key string) error {
	if err := checkKey("remove", key); err != nil {
		return err
	}
	if _, exists := f.values[key]; !exists {
		return nil
	}
	delete(f.values, key)
	f.keys = slices.DeleteFunc(f.keys, func(k string) bool { return k == key })
	f.changed = true
	return nil
}

// checkKey rejects empty keys and keys with an empty segment; neither can be
// written as a subscript expression.
func checkKey(op, key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
		return lerrors.NewEmptyKey("contao", op)
	}
	return nil
}
