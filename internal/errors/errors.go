// Package errors provides the error taxonomy shared by the parsers, the stores
// and the sync engine.
package errors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for common cases
var (
	// ErrMalformedSource indicates a language file that does not follow the
	// language array grammar.
	ErrMalformedSource = errors.New("malformed source")
	// ErrEmptyKey indicates an empty key or unit id.
	ErrEmptyKey = errors.New("empty key")
	// ErrIO indicates a failed filesystem operation.
	ErrIO = errors.New("i/o failure")
	// ErrInvalidText indicates a value the target file format cannot carry.
	ErrInvalidText = errors.New("invalid text")
)

// EmptyKeyError is returned whenever an empty key addresses a store.
type EmptyKeyError struct {
	Store string // Store kind (e.g., "contao", "xliff", "parser")
	Op    string // Operation attempted (e.g., "get", "set", "remove")
}

func (e *EmptyKeyError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s with empty key", e.Store, e.Op)
	}
	return fmt.Sprintf("%s: empty key", e.Store)
}

func (e *EmptyKeyError) Unwrap() error {
	return ErrEmptyKey
}

// NewEmptyKey creates an EmptyKeyError
func NewEmptyKey(store, op string) *EmptyKeyError {
	return &EmptyKeyError{Store: store, Op: op}
}

// InvalidTextError reports the first character of a value that cannot be
// written. Char is utf8.RuneError when the value is not valid UTF-8.
type InvalidTextError struct {
	Store  string // Store kind (e.g., "xliff")
	Field  string // Key or attribute holding the value
	Offset int    // Byte offset of the character
	Char   rune
}

func (e *InvalidTextError) Error() string {
	if e.Char == utf8.RuneError {
		return fmt.Sprintf("%s: %s: invalid UTF-8 at byte %d", e.Store, e.Field, e.Offset)
	}
	return fmt.Sprintf("%s: %s: character %U at byte %d cannot be written", e.Store, e.Field, e.Char, e.Offset)
}

func (e *InvalidTextError) Unwrap() error {
	return ErrInvalidText
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "remove")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports ErrIO as a match so callers can test the category without
// losing the underlying cause.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}
