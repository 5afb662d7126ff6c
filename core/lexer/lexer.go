// Package lexer scans DataLang source text into tokens.
//
// Whitespace, blank lines and // comments (to end of line) are skipped. Every
// token records the 1-based line and column where it starts.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/token"
)

// Scan tokenizes src. The returned slice always ends with an EOF token.
func Scan(src string) ([]token.Token, error) {
	s := &scanner{src: src, line: 1, col: 1}
	var toks []token.Token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

var punct = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'{': token.LBrace,
	'}': token.RBrace,
	'#': token.Hash,
	'[': token.LBracket,
	']': token.RBracket,
}

type scanner struct {
	src  string
	off  int
	line int
	col  int
}

func (s *scanner) peek(n int) byte {
	if s.off+n >= len(s.src) {
		return 0
	}
	return s.src[s.off+n]
}

func (s *scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.off:])
	s.off += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *scanner) skipSpaceAndComments() {
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == '/' && s.peek(1) == '/':
			for s.off < len(s.src) && s.src[s.off] != '\n' {
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *scanner) next() (token.Token, error) {
	s.skipSpaceAndComments()
	pos := token.Pos{Line: s.line, Column: s.col}
	if s.off >= len(s.src) {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}

	c := s.src[s.off]
	switch {
	case isIdentStart(c):
		start := s.off
		for s.off < len(s.src) && isIdentPart(s.src[s.off]) {
			s.advance()
		}
		return token.Token{Kind: token.Ident, Text: s.src[start:s.off], Pos: pos}, nil
	case isDigit(c):
		start := s.off
		for s.off < len(s.src) && isDigit(s.src[s.off]) {
			s.advance()
		}
		return token.Token{Kind: token.Int, Text: s.src[start:s.off], Pos: pos}, nil
	case c == '"':
		return s.scanString(pos)
	}

	if k, ok := punct[c]; ok {
		s.advance()
		return token.Token{Kind: k, Text: string(c), Pos: pos}, nil
	}

	switch {
	case c == ':' && s.peek(1) == ':':
		s.advance()
		s.advance()
		return token.Token{Kind: token.ColonColon, Text: "::", Pos: pos}, nil
	case c == '<' || c == '>':
		s.advance()
		kind := token.Less
		if c == '>' {
			kind = token.Greater
		}
		if s.peek(0) == '=' {
			s.advance()
			kind++
			return token.Token{Kind: kind, Text: string(c) + "=", Pos: pos}, nil
		}
		return token.Token{Kind: kind, Text: string(c), Pos: pos}, nil
	case c == '=' && s.peek(1) == '=':
		s.advance()
		s.advance()
		return token.Token{Kind: token.Equal, Text: "==", Pos: pos}, nil
	}

	r := s.advance()
	return token.Token{}, diagnostic.Unexpectedf(pos, "unexpected character %q", r)
}

func (s *scanner) scanString(pos token.Pos) (token.Token, error) {
	s.advance() // opening quote
	var b strings.Builder
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch c {
		case '"':
			s.advance()
			return token.Token{Kind: token.String, Text: b.String(), Pos: pos}, nil
		case '\n':
			return token.Token{}, diagnostic.Syntaxf(pos, "unterminated string literal")
		case '\\':
			s.advance()
			if s.off >= len(s.src) {
				break
			}
			b.WriteRune(s.advance())
		default:
			b.WriteRune(s.advance())
		}
	}
	return token.Token{}, diagnostic.Syntaxf(pos, "unterminated string literal")
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
