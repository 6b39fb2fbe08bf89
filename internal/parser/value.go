package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"contao-l10n-sync/internal/phplex"
)

// isScalarTerminator reports whether tok may follow a scalar expression.
func isScalarTerminator(tok phplex.Token) bool {
	switch tok.Kind {
	case phplex.DoubleArrow:
		return true
	case phplex.Punct:
		switch tok.Text {
		case "]", ")", ",", ";":
			return true
		}
	case phplex.EOF, phplex.OpenTag, phplex.CloseTag, phplex.Whitespace, phplex.Comment,
		phplex.String, phplex.Number, phplex.Ident, phplex.Variable:
	}
	return false
}

// parseScalar parses a run of literals joined by '.'. It returns nil for a
// lone null and for an empty run; consumed tells the two apart. The
// terminating token is left for the caller.
func (c *parseContext) parseScalar() (*string, bool, error) {
	var (
		sb       strings.Builder
		literals int
		nulls    int
	)

	for {
		tok := c.peek()
		if literals == 0 && isScalarTerminator(tok) {
			return nil, false, nil
		}

		switch tok.Kind {
		case phplex.String:
			s, err := unquote(tok.Text)
			if err != nil {
				return nil, false, c.malformed(tok, "%v", err)
			}
			sb.WriteString(s)
		case phplex.Number:
			s, err := numberText(tok.Text)
			if err != nil {
				return nil, false, c.malformed(tok, "%v", err)
			}
			sb.WriteString(s)
		case phplex.Ident:
			if !tok.IsKeyword("null") {
				return nil, false, c.unexpected(tok, "literal")
			}
			nulls++
		case phplex.EOF, phplex.OpenTag, phplex.CloseTag, phplex.Whitespace, phplex.Comment,
			phplex.Variable, phplex.DoubleArrow, phplex.Punct:
			return nil, false, c.unexpected(tok, "literal")
		}
		c.next()
		literals++

		if !c.peek().IsPunct(".") {
			break
		}
		c.next()
	}

	if tok := c.peek(); !isScalarTerminator(tok) {
		return nil, true, c.unexpected(tok, "'.' or end of value")
	}
	if nulls == literals {
		return nil, true, nil
	}
	s := sb.String()
	return &s, true, nil
}

// unquote strips the quotes of a PHP string literal and resolves its escape
// sequences.
func unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != lit[len(lit)-1] || (lit[0] != '\'' && lit[0] != '"') {
		return "", fmt.Errorf("invalid string literal %s", lit)
	}
	body := lit[1 : len(lit)-1]
	if lit[0] == '\'' {
		return unescapeSingle(body), nil
	}
	return unescapeDouble(body), nil
}

// unescapeSingle resolves \\ and \' and keeps every other backslash.
func unescapeSingle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unescapeDouble resolves the escape sequences of a double-quoted literal.
// Variables are not interpolated.
func unescapeDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' || i+1 >= len(s) {
			sb.WriteByte(ch)
			continue
		}

		next := s[i+1]
		switch next {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'v':
			sb.WriteByte('\v')
		case 'e':
			sb.WriteByte(0x1b)
		case 'f':
			sb.WriteByte('\f')
		case '\\', '$', '"':
			sb.WriteByte(next)
		case 'x':
			j := i + 2
			for j < len(s) && j < i+4 && isHex(s[j]) {
				j++
			}
			if j == i+2 {
				sb.WriteString(`\x`)
				i++
				continue
			}
			n, _ := strconv.ParseUint(s[i+2:j], 16, 8)
			sb.WriteByte(byte(n))
			i = j - 1
			continue
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+2 < len(s) && s[i+2] == '{' && end > 3 {
				if n, err := strconv.ParseUint(s[i+3:i+end], 16, 32); err == nil && utf8.ValidRune(rune(n)) {
					sb.WriteRune(rune(n))
					i += end
					continue
				}
			}
			sb.WriteString(`\u`)
		default:
			if next >= '0' && next <= '7' {
				j := i + 1
				for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
					j++
				}
				n, _ := strconv.ParseUint(s[i+1:j], 8, 16)
				sb.WriteByte(byte(n))
				i = j - 1
				continue
			}
			sb.WriteByte('\\')
			sb.WriteByte(next)
		}
		i++
	}
	return sb.String()
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// numberText converts a PHP numeric literal to its decimal text form.
func numberText(lit string) (string, error) {
	lower := strings.ToLower(lit)
	var (
		n   int64
		err error
	)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err = strconv.ParseInt(lower[2:], 16, 64)
	case strings.HasPrefix(lower, "0b"):
		n, err = strconv.ParseInt(lower[2:], 2, 64)
	case strings.ContainsAny(lower, ".e"):
		f, ferr := strconv.ParseFloat(lower, 64)
		if ferr != nil {
			return "", fmt.Errorf("invalid number %s: %w", lit, ferr)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case len(lower) > 1 && lower[0] == '0':
		n, err = strconv.ParseInt(lower[1:], 8, 64)
	default:
		n, err = strconv.ParseInt(lower, 10, 64)
	}
	if err != nil {
		return "", fmt.Errorf("invalid number %s: %w", lit, err)
	}
	return strconv.FormatInt(n, 10), nil
}
