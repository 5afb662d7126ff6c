// Package token defines the lexical tokens of DataLang source text.
package token

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Int
	String

	Plus       // +
	Minus      // -
	ColonColon // ::
	LBrace     // {
	RBrace     // }
	Hash       // #
	LBracket   // [
	RBracket   // ]

	Less      // <
	LessEq    // <=
	Greater   // >
	GreaterEq // >=
	Equal     // ==
)

var kindNames = map[Kind]string{
	EOF:        "end of input",
	Ident:      "identifier",
	Int:        "integer",
	String:     "string",
	Plus:       "'+'",
	Minus:      "'-'",
	ColonColon: "'::'",
	LBrace:     "'{'",
	RBrace:     "'}'",
	Hash:       "'#'",
	LBracket:   "'['",
	RBracket:   "']'",
	Less:       "'<'",
	LessEq:     "'<='",
	Greater:    "'>'",
	GreaterEq:  "'>='",
	Equal:      "'=='",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// IsComparison reports whether k is one of the constraint comparison operators.
func (k Kind) IsComparison() bool {
	switch k {
	case Less, LessEq, Greater, GreaterEq, Equal:
		return true
	}
	return false
}

// Pos is a 1-based line and column in the source text.
type Pos struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// IsValid reports whether the position points into the source.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexeme with its position.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case Ident, Int:
		return fmt.Sprintf("%q", t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return t.Kind.String()
	}
}
