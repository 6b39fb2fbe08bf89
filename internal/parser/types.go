package parser

import (
	"fmt"

	lerrors "contao-l10n-sync/internal/errors"
	"contao-l10n-sync/internal/phplex"
)

// Root of every language array assignment: $GLOBALS['TL_LANG'].
const (
	RootVariable  = "$GLOBALS"
	RootSubscript = "TL_LANG"
)

// ParseResult holds the flat key map of one language file.
type ParseResult struct {
	// FilePath is the name passed to Parse, used in error messages.
	FilePath string
	// Keys lists every dotted key in order of first assignment.
	Keys []string
	// Values maps dotted keys to their value. A nil value is an explicit
	// PHP null.
	Values map[string]*string
}

func newParseResult(filePath string) *ParseResult {
	return &ParseResult{
		FilePath: filePath,
		Values:   make(map[string]*string),
	}
}

// Get returns the value stored for key and whether the key was assigned.
func (r *ParseResult) Get(key string) (*string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (r *ParseResult) Len() int {
	return len(r.Keys)
}

// assign records key. A later assignment to the same key wins, like in PHP,
// but the key keeps its first position.
func (r *ParseResult) assign(key string, value *string) {
	if _, exists := r.Values[key]; !exists {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = value
}

// MalformedSourceError describes a token that violates the language array
// grammar.
type MalformedSourceError struct {
	File     string
	Kind     phplex.Kind
	Text     string
	Pos      phplex.Position
	Expected string
	Message  string
}

func (e *MalformedSourceError) Error() string {
	where := e.Pos.String()
	if e.File != "" {
		where = e.File + ":" + where
	}

	msg := e.Message
	if msg == "" {
		msg = "unexpected " + e.Kind.String()
		if e.Text != "" {
			msg += fmt.Sprintf(" %q", e.Text)
		}
	}
	if e.Expected != "" {
		msg += ", expected " + e.Expected
	}
	return where + ": " + msg
}

func (e *MalformedSourceError) Unwrap() error {
	return lerrors.ErrMalformedSource
}
