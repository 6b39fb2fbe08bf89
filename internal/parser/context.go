package parser

import (
	"fmt"
	"strconv"
	"strings"

	lerrors "contao-l10n-sync/internal/errors"
	"contao-l10n-sync/internal/phplex"
)

// parseContext is the state of one Parse call. Every grammar production is a
// method on it, so independent parses never share a stack or counters.
type parseContext struct {
	file   string
	tokens []phplex.Token
	pos    int

	// stack holds the key path of the value being parsed.
	stack []string
	// counters holds the next auto-index per parent path.
	counters map[string]int

	result *ParseResult
}

func newParseContext(file string, tokens []phplex.Token) *parseContext {
	return &parseContext{
		file:     file,
		tokens:   tokens,
		counters: make(map[string]int),
		result:   newParseResult(file),
	}
}

// skipTrivia advances past whitespace, comments and PHP tags.
func (c *parseContext) skipTrivia() {
	for c.pos < len(c.tokens) && c.tokens[c.pos].IsTrivia() {
		c.pos++
	}
}

// peek returns the next significant token without consuming it.
func (c *parseContext) peek() phplex.Token {
	c.skipTrivia()
	if c.pos >= len(c.tokens) {
		return c.eof()
	}
	return c.tokens[c.pos]
}

// next consumes and returns the next significant token.
func (c *parseContext) next() phplex.Token {
	tok := c.peek()
	if c.pos < len(c.tokens) {
		c.pos++
	}
	return tok
}

func (c *parseContext) eof() phplex.Token {
	if n := len(c.tokens); n > 0 {
		return phplex.Token{Kind: phplex.EOF, Pos: c.tokens[n-1].Pos}
	}
	return phplex.Token{Kind: phplex.EOF}
}

func (c *parseContext) expectPunct(text string) (phplex.Token, error) {
	tok := c.next()
	if !tok.IsPunct(text) {
		return tok, c.unexpected(tok, "'"+text+"'")
	}
	return tok, nil
}

func (c *parseContext) unexpected(tok phplex.Token, expected string) error {
	return &MalformedSourceError{
		File:     c.file,
		Kind:     tok.Kind,
		Text:     tok.Text,
		Pos:      tok.Pos,
		Expected: expected,
	}
}

func (c *parseContext) malformed(tok phplex.Token, format string, args ...any) error {
	return &MalformedSourceError{
		File:    c.file,
		Kind:    tok.Kind,
		Text:    tok.Text,
		Pos:     tok.Pos,
		Message: fmt.Sprintf(format, args...),
	}
}

func (c *parseContext) path() string {
	return strings.Join(c.stack, ".")
}

// pushKey enters an explicitly keyed context. An integer key moves the
// parent's auto-index past it, as PHP does for appended elements.
func (c *parseContext) pushKey(tok phplex.Token, segment string) error {
	if segment == "" {
		return fmt.Errorf("%s:%s: %w", c.file, tok.Pos, lerrors.NewEmptyKey("parser", "push"))
	}
	if n, ok := ArrayIndex(segment); ok {
		parent := c.path()
		if n >= c.counters[parent] {
			c.counters[parent] = n + 1
		}
	}
	c.stack = append(c.stack, segment)
	return nil
}

// pushAutoIndex enters the next unkeyed element of the current path.
func (c *parseContext) pushAutoIndex() {
	parent := c.path()
	idx := c.counters[parent]
	c.counters[parent] = idx + 1
	c.stack = append(c.stack, strconv.Itoa(idx))
}

// pop leaves the context entered at depth. Any other stack height means a
// production pushed or popped out of turn.
func (c *parseContext) pop(tok phplex.Token, depth int) error {
	if len(c.stack) != depth+1 {
		return c.malformed(tok, "parser stack out of balance: depth %d, want %d", len(c.stack), depth+1)
	}
	c.stack = c.stack[:depth]
	return nil
}

// assign stores value under the current key path.
func (c *parseContext) assign(tok phplex.Token, value *string) error {
	key := c.path()
	if key == "" {
		return fmt.Errorf("%s:%s: %w", c.file, tok.Pos, lerrors.NewEmptyKey("parser", "assign"))
	}
	c.result.assign(key, value)
	return nil
}

// ArrayIndex reports whether segment is a canonical non-negative PHP
// integer key and returns its value.
func ArrayIndex(segment string) (int, bool) {
	if segment == "" || (len(segment) > 1 && segment[0] == '0') {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return n, true
}
