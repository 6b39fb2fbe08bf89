// Package xliff implements the bilingual XLIFF 1.2 document used for
// translation-vendor round trips. Every trans-unit holds a source and a
// target value addressed by its id.
package xliff

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	lerrors "contao-l10n-sync/internal/errors"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/spf13/afero"
)

// Mode selects the half of a trans-unit that Get, Set and View operate on.
type Mode int

const (
	Source Mode = iota
	Target
)

func (m Mode) String() string {
	switch m {
	case Source:
		return "source"
	case Target:
		return "target"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DefaultDatatype is the datatype attribute of documents created from scratch.
const DefaultDatatype = "php"

var (
	fileExpr   = xpath.MustCompile("//file")
	unitExpr   = xpath.MustCompile(".//trans-unit")
	sourceExpr = xpath.MustCompile("source")
	targetExpr = xpath.MustCompile("target")
)

type unit struct {
	id     string
	source *string
	target *string
}

func (u *unit) half(m Mode) **string {
	if m == Target {
		return &u.target
	}
	return &u.source
}

// File is one XLIFF document.
type File struct {
	fs   afero.Fs
	path string
	now  func() time.Time

	datatype       string
	original       string
	sourceLanguage string
	targetLanguage string
	date           time.Time

	units   []*unit
	index   map[string]*unit
	changed bool
}

// Option configures a File.
type Option func(*File)

// WithClock replaces time.Now for the date written on save.
func WithClock(now func() time.Time) Option {
	return func(f *File) { f.now = now }
}

// New creates an empty document that does not exist on disk yet.
func New(fsys afero.Fs, path string, opts ...Option) *File {
	f := &File{
		fs:       fsys,
		path:     path,
		now:      time.Now,
		datatype: DefaultDatatype,
		index:    make(map[string]*unit),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load reads the document at path. A missing file yields an empty document.
func Load(fsys afero.Fs, path string, opts ...Option) (*File, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(fsys, path, opts...), nil
		}
		return nil, lerrors.NewIO("read", path, err)
	}
	return Parse(fsys, path, data, opts...)
}

// Parse builds a document from data. path is where Save writes it.
func Parse(fsys afero.Fs, path string, data []byte, opts ...Option) (*File, error) {
	f := New(fsys, path, opts...)
	if err := f.parse(data); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) parse(data []byte) error {
	doc, err := xmlquery.ParseWithOptions(bytes.NewReader(data), xmlquery.ParserOptions{WithLineNumbers: true})
	if err != nil {
		return fmt.Errorf("%s: %w: %v", f.path, lerrors.ErrMalformedSource, err)
	}

	fileNode := xmlquery.QuerySelector(doc, fileExpr)
	if fileNode == nil {
		return fmt.Errorf("%s: %w: no <file> element", f.path, lerrors.ErrMalformedSource)
	}

	f.datatype = fileNode.SelectAttr("datatype")
	f.original = fileNode.SelectAttr("original")
	f.sourceLanguage = fileNode.SelectAttr("source-language")
	f.targetLanguage = fileNode.SelectAttr("target-language")
	if date := fileNode.SelectAttr("date"); date != "" {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			f.date = t
		}
	}

	for _, n := range xmlquery.QuerySelectorAll(fileNode, unitExpr) {
		id := n.SelectAttr("id")
		if id == "" {
			return fmt.Errorf("%s:%d: %w", f.path, n.GetLineNumber(), lerrors.NewEmptyKey("xliff", "load"))
		}
		if _, dup := f.index[id]; dup {
			return fmt.Errorf("%s:%d: %w: duplicate trans-unit id %q", f.path, n.GetLineNumber(), lerrors.ErrMalformedSource, id)
		}
		u := &unit{id: id, source: innerText(n, sourceExpr), target: innerText(n, targetExpr)}
		f.units = append(f.units, u)
		f.index[id] = u
	}
	return nil
}

func innerText(n *xmlquery.Node, expr *xpath.Expr) *string {
	child := xmlquery.QuerySelector(n, expr)
	if child == nil {
		return nil
	}
	text := child.InnerText()
	return &text
}

// Path returns the document location.
func (f *File) Path() string { return f.path }

// Changed reports whether units or metadata changed since loading.
func (f *File) Changed() bool { return f.changed }

// LanguageCode returns the target language.
func (f *File) LanguageCode() string { return f.targetLanguage }

// Len returns the number of trans-units.
func (f *File) Len() int { return len(f.units) }

// Keys returns the unit ids in document order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.units))
	for i, u := range f.units {
		keys[i] = u.id
	}
	return keys
}

// Get returns one half of the unit with id key. ok is false when the unit
// does not exist or the half is missing.
func (f *File) Get(m Mode, key string) (string, bool, error) {
	if key == "" {
		return "", false, lerrors.NewEmptyKey("xliff", "get")
	}
	u := f.index[key]
	if u == nil {
		return "", false, nil
	}
	v := *u.half(m)
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Set stores value in one half of the unit with id key, appending the unit
// when it does not exist.
func (f *File) Set(m Mode, key, value string) error {
	if key == "" {
		return lerrors.NewEmptyKey("xliff", "set")
	}
	u := f.index[key]
	if u == nil {
		u = &unit{id: key}
		f.units = append(f.units, u)
		f.index[key] = u
	}
	half := u.half(m)
	if *half != nil && **half == value {
		return nil
	}
	*half = &value
	f.changed = true
	return nil
}

// Remove deletes the whole unit with id key, both halves.
func (f *File) Remove(key string) error {
	if key == "" {
		return lerrors.NewEmptyKey("xliff", "remove")
	}
	if _, ok := f.index[key]; !ok {
		return nil
	}
	delete(f.index, key)
	f.units = slices.DeleteFunc(f.units, func(u *unit) bool { return u.id == key })
	f.changed = true
	return nil
}

func (f *File) Datatype() string       { return f.datatype }
func (f *File) Original() string       { return f.original }
func (f *File) SourceLanguage() string { return f.sourceLanguage }
func (f *File) TargetLanguage() string { return f.targetLanguage }
func (f *File) Date() time.Time        { return f.date }

func (f *File) SetDatatype(v string)       { f.setAttr(&f.datatype, v) }
func (f *File) SetOriginal(v string)       { f.setAttr(&f.original, v) }
func (f *File) SetSourceLanguage(v string) { f.setAttr(&f.sourceLanguage, v) }
func (f *File) SetTargetLanguage(v string) { f.setAttr(&f.targetLanguage, v) }

// SetDate sets the date attribute. It does not mark the document changed.
func (f *File) SetDate(t time.Time) { f.date = t }

func (f *File) setAttr(field *string, v string) {
	if *field == v {
		return
	}
	*field = v
	f.changed = true
}
