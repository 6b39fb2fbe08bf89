package contao

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"contao-l10n-sync/internal/fileutil"
	"contao-l10n-sync/internal/parser"

	"github.com/rs/zerolog/log"
)

// DefaultHeader is the comment block written above the assignments.
// Supported tokens: $$project$$, $$lang$$, $$lastchanged$$, $$year$$.
const DefaultHeader = `/**
 * Translations are managed using Transifex. To create a new translation
 * or to help to maintain an existing one, please register at transifex.com.
 *
 * @link https://www.transifex.com/signup/
 * @link https://www.transifex.com/projects/p/$$project$$/language/$$lang$$/
 *
 * last-updated: $$lastchanged$$
 */`

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Bytes renders the file. Keys are sorted and all left-hand sides are padded
// to the same width.
func (f *File) Bytes(now time.Time) []byte {
	keys := slices.Clone(f.keys)
	slices.Sort(keys)

	lhs := make([]string, len(keys))
	width := 0
	for i, key := range keys {
		lhs[i] = leftHandSide(key)
		if n := utf8.RuneCountInString(lhs[i]); n > width {
			width = n
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<?php\n\n")
	buf.WriteString(f.renderHeader(now))
	buf.WriteString("\n\n")

	for i, key := range keys {
		buf.WriteString(lhs[i])
		buf.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(lhs[i])))
		buf.WriteString(" = ")
		buf.WriteString(literal(f.values[key]))
		buf.WriteString(";\n")
	}
	buf.WriteString("\n")
	return buf.Bytes()
}

func (f *File) renderHeader(now time.Time) string {
	r := strings.NewReplacer(
		"$$project$$", f.project,
		"$$lang$$", f.language,
		"$$lastchanged$$", now.Format(time.RFC3339),
		"$$year$$", strconv.Itoa(now.Year()),
	)
	return strings.TrimSpace(r.Replace(f.header))
}

// leftHandSide expands a dotted key into its subscript expression.
func leftHandSide(key string) string {
	var sb strings.Builder
	sb.WriteString(parser.RootVariable)
	sb.WriteString("['")
	sb.WriteString(parser.RootSubscript)
	sb.WriteString("']")
	for _, segment := range strings.Split(key, ".") {
		if _, ok := parser.ArrayIndex(segment); ok {
			sb.WriteString("[" + segment + "]")
			continue
		}
		sb.WriteString("['" + quoteReplacer.Replace(segment) + "']")
	}
	return sb.String()
}

func literal(v *string) string {
	if v == nil {
		return "null"
	}
	return "'" + quoteReplacer.Replace(*v) + "'"
}

// Save writes the file, or deletes it when no key is left. The content is
// written to a temporary file first and renamed into place.
func (f *File) Save() error {
	if len(f.keys) == 0 {
		if err := fileutil.RemoveIfExists(f.fs, f.path); err != nil {
			return err
		}
		log.Debug().Str("file", f.path).Msg("Removed empty language file")
		f.changed = false
		return nil
	}

	if err := fileutil.WriteAtomic(f.fs, f.path, f.Bytes(f.now())); err != nil {
		return err
	}

	log.Debug().Str("file", f.path).Int("keys", len(f.keys)).Msg("Wrote language file")
	f.changed = false
	return nil
}
