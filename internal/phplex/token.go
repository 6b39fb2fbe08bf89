package phplex

import (
	"fmt"
	"strings"
)

// Kind classifies a lexical token. The set is closed; every switch over a
// Kind in this module handles all of them.
type Kind int

const (
	EOF Kind = iota
	OpenTag
	CloseTag
	Whitespace
	Comment
	String
	Number
	Ident
	Variable
	DoubleArrow
	Punct
)

var kindNames = [...]string{
	EOF:         "end of file",
	OpenTag:     "open tag",
	CloseTag:    "close tag",
	Whitespace:  "whitespace",
	Comment:     "comment",
	String:      "string literal",
	Number:      "numeric literal",
	Ident:       "identifier",
	Variable:    "variable",
	DoubleArrow: "double arrow",
	Punct:       "punctuation",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Position is a location in the source text. Line and Column are 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexical unit of a PHP language file.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

// IsTrivia reports whether the token carries no grammar meaning.
func (t Token) IsTrivia() bool {
	switch t.Kind {
	case Whitespace, Comment, OpenTag, CloseTag:
		return true
	case EOF, String, Number, Ident, Variable, DoubleArrow, Punct:
		return false
	}
	return false
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsPunct reports whether the token is the given punctuation character.
func (t Token) IsPunct(text string) bool {
	return t.Is(Punct, text)
}

// IsKeyword reports whether the token is the given identifier, compared case
// insensitively like PHP keywords.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Ident && strings.EqualFold(t.Text, word)
}

func (t Token) String() string {
	if t.Kind == EOF {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s %q", t.Kind, t.Text)
}
