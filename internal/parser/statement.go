// Package parser reads Contao language files into a flat dotted-key map.
//
// A language file is a sequence of assignments such as
//
//	$GLOBALS['TL_LANG']['MSC']['title'] = 'Title';
//	$GLOBALS['TL_LANG']['tl_page']['type'] = array('Type', 'Choose a type');
//	$GLOBALS['TL_LANG']['ERR'][] = 'Appended';
//
// which yield the keys MSC.title, tl_page.type.0, tl_page.type.1 and ERR.0.
// Everything outside such assignments is skipped.
package parser

import (
	"errors"

	"contao-l10n-sync/internal/phplex"
)

// Parse reads a language file. filePath is only used in error messages.
func Parse(filePath string, src []byte) (*ParseResult, error) {
	tokens, err := phplex.Tokenize(filePath, src)
	if err != nil {
		var lexErr *phplex.LexError
		if errors.As(err, &lexErr) {
			return nil, &MalformedSourceError{
				File:    filePath,
				Pos:     lexErr.Pos,
				Message: lexErr.Message,
			}
		}
		return nil, err
	}

	c := newParseContext(filePath, tokens)
	for {
		tok := c.next()
		if tok.Kind == phplex.EOF {
			return c.result, nil
		}
		if !tok.Is(phplex.Variable, RootVariable) {
			continue
		}
		if err := c.parseStatement(); err != nil {
			return nil, err
		}
	}
}

// parseStatement parses the rest of an assignment after the root variable.
func (c *parseContext) parseStatement() error {
	if _, err := c.expectPunct("["); err != nil {
		return err
	}

	tok := c.next()
	if tok.Kind != phplex.String {
		return c.unexpected(tok, "'"+RootSubscript+"'")
	}
	name, err := unquote(tok.Text)
	if err != nil {
		return c.malformed(tok, "%v", err)
	}
	if name != RootSubscript {
		return c.malformed(tok, "unexpected subscript %q, expected '%s'", name, RootSubscript)
	}
	if _, err := c.expectPunct("]"); err != nil {
		return err
	}

	c.stack = c.stack[:0]
	for {
		tok := c.next()
		switch {
		case tok.IsPunct("["):
			if err := c.parseSubscript(); err != nil {
				return err
			}

		case tok.IsPunct("="):
			if err := c.parseValue(tok); err != nil {
				return err
			}
			if _, err := c.expectPunct(";"); err != nil {
				return err
			}
			c.stack = c.stack[:0]
			return nil

		default:
			return c.unexpected(tok, "'[' or '='")
		}
	}
}

// parseSubscript parses a key segment after '[' and consumes the ']'.
// Empty brackets and a null subscript append a new element.
func (c *parseContext) parseSubscript() error {
	tok := c.peek()
	if tok.IsPunct("]") {
		c.next()
		c.pushAutoIndex()
		return nil
	}

	value, _, err := c.parseScalar()
	if err != nil {
		return err
	}
	if value == nil {
		c.pushAutoIndex()
	} else if err := c.pushKey(tok, *value); err != nil {
		return err
	}

	_, err = c.expectPunct("]")
	return err
}

// parseValue parses the right-hand side of '=' or '=>' and assigns it to the
// current key path.
func (c *parseContext) parseValue(op phplex.Token) error {
	tok := c.peek()
	if isArrayStart(tok) {
		return c.parseArray()
	}

	value, consumed, err := c.parseScalar()
	if err != nil {
		return err
	}
	if !consumed {
		return c.unexpected(c.peek(), "value")
	}
	return c.assign(op, value)
}
