package xliff

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	lerrors "contao-l10n-sync/internal/errors"
	"contao-l10n-sync/internal/fileutil"

	"github.com/rs/zerolog/log"
)

const (
	xliffVersion   = "1.2"
	xliffNamespace = "urn:oasis:names:tc:xliff:document:1.2"
	indent         = "  "
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#13;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#10;", "\r", "&#13;", "\t", "&#9;")
)

// Bytes renders the document as XLIFF 1.2. Units keep their document order.
// A value holding a character XML 1.0 cannot carry yields an
// InvalidTextError.
func (f *File) Bytes() ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<xliff version="` + xliffVersion + `" xmlns="` + xliffNamespace + `">` + "\n")

	writeIndent(&buf, 1)
	buf.WriteString("<file")
	writeAttr(&buf, "datatype", f.datatype)
	writeAttr(&buf, "original", f.original)
	writeAttr(&buf, "source-language", f.sourceLanguage)
	if f.targetLanguage != "" {
		writeAttr(&buf, "target-language", f.targetLanguage)
	}
	if !f.date.IsZero() {
		writeAttr(&buf, "date", f.date.UTC().Format(time.RFC3339))
	}
	buf.WriteString(">\n")

	writeIndent(&buf, 2)
	if len(f.units) == 0 {
		buf.WriteString("<body/>\n")
	} else {
		buf.WriteString("<body>\n")
		for _, u := range f.units {
			writeIndent(&buf, 3)
			buf.WriteString("<trans-unit")
			writeAttr(&buf, "id", u.id)
			buf.WriteString(">\n")
			writeElement(&buf, 4, "source", u.source)
			writeElement(&buf, 4, "target", u.target)
			writeIndent(&buf, 3)
			buf.WriteString("</trans-unit>\n")
		}
		writeIndent(&buf, 2)
		buf.WriteString("</body>\n")
	}

	writeIndent(&buf, 1)
	buf.WriteString("</file>\n")
	buf.WriteString("</xliff>\n")
	return buf.Bytes(), nil
}

func (f *File) validate() error {
	attrs := []struct{ name, value string }{
		{"datatype", f.datatype},
		{"original", f.original},
		{"source-language", f.sourceLanguage},
		{"target-language", f.targetLanguage},
	}
	for _, a := range attrs {
		if err := checkText(a.name, a.value); err != nil {
			return err
		}
	}
	for _, u := range f.units {
		if err := checkText(u.id, u.id); err != nil {
			return err
		}
		for _, v := range []*string{u.source, u.target} {
			if v == nil {
				continue
			}
			if err := checkText(u.id, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkText rejects invalid UTF-8 and characters outside the XML 1.0 Char
// production, escaped or not.
func checkText(field, s string) error {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return &lerrors.InvalidTextError{Store: "xliff", Field: field, Offset: i, Char: r}
			}
		}
		if !isXMLChar(r) {
			return &lerrors.InvalidTextError{Store: "xliff", Field: field, Offset: i, Char: r}
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

func writeIndent(w *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

func writeAttr(w *bytes.Buffer, name, value string) {
	w.WriteString(" ")
	w.WriteString(name)
	w.WriteString(`="`)
	w.WriteString(attrEscaper.Replace(value))
	w.WriteString(`"`)
}

// writeElement writes a text-only element. A nil value writes nothing.
func writeElement(w *bytes.Buffer, depth int, name string, value *string) {
	if value == nil {
		return
	}
	writeIndent(w, depth)
	w.WriteString("<" + name + ">")
	w.WriteString(textEscaper.Replace(*value))
	w.WriteString("</" + name + ">\n")
}

// Save writes the document. A changed document gets the current time as its
// date attribute. Nothing is written when the document cannot be rendered.
func (f *File) Save() error {
	date := f.date
	if f.changed {
		f.date = f.now()
	}
	data, err := f.Bytes()
	if err != nil {
		f.date = date
		return fmt.Errorf("%s: %w", f.path, err)
	}
	if err := fileutil.WriteAtomic(f.fs, f.path, data); err != nil {
		return err
	}
	log.Debug().Str("file", f.path).Int("units", len(f.units)).Msg("Wrote XLIFF file")
	f.changed = false
	return nil
}
