package parser

import (
	"contao-l10n-sync/internal/phplex"
)

// isArrayStart reports whether tok opens an array literal, either short
// "[" or legacy "array(".
func isArrayStart(tok phplex.Token) bool {
	return tok.IsPunct("[") || tok.IsKeyword("array")
}

// parseArray consumes an array literal through its matching closer and
// assigns every leaf below the current key path.
func (c *parseContext) parseArray() error {
	open := c.next()
	closer := "]"
	if open.IsKeyword("array") {
		if _, err := c.expectPunct("("); err != nil {
			return err
		}
		closer = ")"
	}

	for {
		if tok := c.peek(); tok.IsPunct(closer) {
			c.next()
			return nil
		}

		if err := c.parseElement(closer); err != nil {
			return err
		}

		tok := c.next()
		switch {
		case tok.IsPunct(","):
		case tok.IsPunct(closer):
			return nil
		default:
			return c.unexpected(tok, "',' or '"+closer+"'")
		}
	}
}

// parseElement parses one "key => value" pair or positional value.
func (c *parseContext) parseElement(closer string) error {
	depth := len(c.stack)
	start := c.peek()

	if isArrayStart(start) {
		c.pushAutoIndex()
		if err := c.parseArray(); err != nil {
			return err
		}
		return c.pop(start, depth)
	}

	value, consumed, err := c.parseScalar()
	if err != nil {
		return err
	}

	next := c.peek()
	switch {
	case next.Kind == phplex.DoubleArrow:
		arrow := c.next()
		if value == nil {
			return c.malformed(start, "array key before '=>' must not be null")
		}
		if err := c.pushKey(start, *value); err != nil {
			return err
		}
		if err := c.parseValue(arrow); err != nil {
			return err
		}
		return c.pop(arrow, depth)

	case next.IsPunct(",") || next.IsPunct(closer):
		if !consumed {
			return c.unexpected(next, "array element")
		}
		c.pushAutoIndex()
		if err := c.assign(start, value); err != nil {
			return err
		}
		return c.pop(start, depth)

	default:
		return c.unexpected(next, "'=>', ',' or '"+closer+"'")
	}
}
