// Package phplex tokenizes the subset of PHP used by Contao language files.
package phplex

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// phpLexer defines the tokens of a language file.
// Order matters: DoubleArrow must win over "=", Comment over "/" and "#",
// Number over ".".
var phpLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "OpenTag", Pattern: `(?i)<\?php`},
	{Name: "CloseTag", Pattern: `\?>`},
	{Name: "Comment", Pattern: `//[^\r\n]*|#[^\r\n]*|/\*(?s:.*?)\*/`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `'(?:[^'\\]|\\(?s:.))*'|"(?:[^"\\]|\\(?s:.))*"`},
	{Name: "Number", Pattern: `0[xX][0-9a-fA-F]+|0[bB][01]+|(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?`},
	{Name: "Variable", Pattern: `\$[\pL_][\pL\pN_]*`},
	{Name: "Ident", Pattern: `[\pL_\\][\pL\pN_\\]*`},
	{Name: "DoubleArrow", Pattern: `=>`},
	{Name: "Punct", Pattern: `[\[\](){}.,;=+\-*/?:!<>&|@%^~]`},
})

var kindBySymbol = map[string]Kind{
	"OpenTag":     OpenTag,
	"CloseTag":    CloseTag,
	"Comment":     Comment,
	"Whitespace":  Whitespace,
	"String":      String,
	"Number":      Number,
	"Variable":    Variable,
	"Ident":       Ident,
	"DoubleArrow": DoubleArrow,
	"Punct":       Punct,
}

// kinds maps participle token types onto the closed Kind enum.
var kinds = func() map[lexer.TokenType]Kind {
	m := make(map[lexer.TokenType]Kind, len(kindBySymbol)+1)
	for name, typ := range phpLexer.Symbols() {
		if k, ok := kindBySymbol[name]; ok {
			m[typ] = k
		}
	}
	m[lexer.EOF] = EOF
	return m
}()

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LexError is returned when a byte sequence matches no token rule.
type LexError struct {
	Filename string
	Pos      Position
	Message  string
}

func (e *LexError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("%s:%s: %s", e.Filename, e.Pos, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Tokenize splits src into tokens. The returned slice always ends with an
// EOF token.
func Tokenize(filename string, src []byte) ([]Token, error) {
	src = bytes.TrimPrefix(src, utf8BOM)

	lex, err := phpLexer.LexString(filename, string(src))
	if err != nil {
		return nil, lexError(filename, err)
	}

	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, lexError(filename, err)
	}

	tokens := make([]Token, 0, len(raw))
	for _, t := range raw {
		kind, ok := kinds[t.Type]
		if !ok {
			return nil, &LexError{
				Filename: filename,
				Pos:      convertPos(t.Pos),
				Message:  fmt.Sprintf("unknown token type %d", t.Type),
			}
		}
		tokens = append(tokens, Token{
			Kind: kind,
			Text: t.Value,
			Pos:  convertPos(t.Pos),
		})
	}

	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != EOF {
		tokens = append(tokens, Token{Kind: EOF, Pos: endPos(src)})
	}
	return tokens, nil
}

func convertPos(p lexer.Position) Position {
	return Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

func lexError(filename string, err error) error {
	le := &LexError{Filename: filename, Message: err.Error()}
	if pe, ok := err.(interface {
		Message() string
		Position() lexer.Position
	}); ok {
		le.Message = pe.Message()
		le.Pos = convertPos(pe.Position())
	}
	return le
}

func endPos(src []byte) Position {
	line := 1 + bytes.Count(src, []byte{'\n'})
	col := len(src) - bytes.LastIndexByte(src, '\n')
	return Position{Offset: len(src), Line: line, Column: col}
}
