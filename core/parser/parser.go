// Package parser builds the DataLang item list from source text by recursive
// descent over the lexer's tokens. Parsing stops at the first error.
package parser

import (
	"fmt"

	"github.com/artpar/datalang/core/ast"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/lexer"
	"github.com/artpar/datalang/core/token"
)

// Parse parses src into an ordered item list.
func Parse(src string) (*ast.File, error) {
	toks, err := lexer.Scan(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	return p.parseFile()
}

type parser struct {
	src  string
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *parser) is(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *parser) isWord(w string) bool {
	tok := p.cur()
	return tok.Kind == token.Ident && tok.Text == w
}

// nameAfter consumes the identifier that must follow kw on the same line.
func (p *parser) nameAfter(kw token.Token, msg string) (token.Token, error) {
	tok := p.cur()
	if tok.Kind != token.Ident || tok.Pos.Line != kw.Pos.Line {
		return token.Token{}, diagnostic.Missing(kw.Pos, msg)
	}
	return p.advance(), nil
}

func (p *parser) parseFile() (*ast.File, error) {
	file := &ast.File{}
	for !p.is(token.EOF) {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		file.Items = append(file.Items, item)
	}
	return file, nil
}

func (p *parser) parseItem() (ast.Item, error) {
	tok := p.cur()
	if tok.Kind != token.Ident {
		return nil, diagnostic.Unexpectedf(tok.Pos, "expected a declaration, found %s", tok)
	}

	switch keywords[tok.Text] {
	case kwDictionary:
		p.advance()
		name, err := p.nameAfter(tok, "Expected dictionary name")
		if err != nil {
			return nil, err
		}
		return &ast.Dictionary{Name: name.Text, Pos: tok.Pos}, nil
	case kwImport:
		p.advance()
		name, err := p.nameAfter(tok, "Expected module name after import")
		if err != nil {
			return nil, err
		}
		return &ast.Import{Module: name.Text, Pos: tok.Pos}, nil
	case kwTerm:
		return p.parseTerm()
	}

	if _, foreign := foreignKeywords[tok.Text]; foreign {
		suggestion, _ := Suggest(tok.Text)
		return nil, diagnostic.Keyword(tok.Pos, tok.Text, suggestion)
	}
	return p.parseStruct()
}

func (p *parser) parseTerm() (*ast.Term, error) {
	kw := p.advance()
	name, err := p.nameAfter(kw, "Expected term name")
	if err != nil {
		return nil, err
	}
	term := &ast.Term{Name: name.Text, Pos: kw.Pos}

	switch {
	case p.isWord(kwHas) && p.peek().Kind == token.LBrace:
		p.advance()
		p.advance()
		for !p.is(token.RBrace) {
			switch p.cur().Kind {
			case token.Plus, token.Minus:
				ref, err := p.parseFieldRef()
				if err != nil {
					return nil, err
				}
				term.Fields = append(term.Fields, ref)
			case token.EOF:
				return nil, diagnostic.Syntaxf(kw.Pos, "Expected closing brace for term %s", term.Name)
			default:
				tok := p.cur()
				return nil, diagnostic.FieldRef(tok.Pos, lexer.LineAt(p.src, tok.Pos.Line),
					"Fields must start with + (include) or - (exclude)")
			}
		}
		p.advance()
	case p.isWord(kwHas):
		return nil, diagnostic.Syntaxf(p.cur().Pos, "Expected opening brace after 'has' in term %s", term.Name)
	case p.is(token.LBrace):
		p.advance()
		switch tok := p.cur(); tok.Kind {
		case token.RBrace:
			p.advance()
		case token.EOF:
			return nil, diagnostic.Syntaxf(kw.Pos, "Expected closing brace for term %s", term.Name)
		default:
			return nil, diagnostic.Unexpectedf(tok.Pos,
				"primitive term %s must have an empty body (use 'term %s has { ... }' to compose fields), found %s",
				term.Name, term.Name, tok)
		}
	default:
		return nil, diagnostic.Syntaxf(p.cur().Pos,
			"expected 'has' keyword or opening brace after term %s", term.Name)
	}
	return term, nil
}

func (p *parser) parseStruct() (*ast.Struct, error) {
	name := p.advance()
	st := &ast.Struct{Name: name.Text, Pos: name.Pos}
	if !p.is(token.LBrace) {
		return nil, diagnostic.Syntaxf(name.Pos, "Expected opening brace after struct %s", st.Name)
	}
	p.advance()

	for {
		tok := p.cur()
		switch {
		case tok.Kind == token.RBrace:
			p.advance()
			return st, nil
		case tok.Kind == token.EOF:
			return nil, diagnostic.Syntaxf(name.Pos, "Expected closing brace for struct %s", st.Name)
		case tok.Kind == token.Plus || tok.Kind == token.Minus:
			ref, err := p.parseFieldRef()
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, ref)
		case tok.Kind == token.Hash:
			ref, err := p.parseAttributedField()
			if err != nil {
				return nil, err
			}
			st.Fields = append(st.Fields, ref)
		case tok.Kind == token.Ident && tok.Text == kwTrait:
			p.advance()
			parent, err := p.nameAfter(tok, "Expected parent name after trait")
			if err != nil {
				return nil, err
			}
			st.Traits = append(st.Traits, ast.TraitRef{Name: parent.Text, Pos: tok.Pos})
		case tok.Kind == token.Ident:
			p.advance()
			st.Fields = append(st.Fields, ast.FieldReference{
				Included: true,
				Declared: true,
				Name:     tok.Text,
				Pos:      tok.Pos,
			})
		default:
			return nil, diagnostic.Unexpectedf(tok.Pos, "unexpected %s in body of %s", tok, st.Name)
		}
	}
}

// parseFieldRef parses ("+"|"-") IDENT ("::" IDENT)?. Names must stay on the
// directive's line.
func (p *parser) parseFieldRef() (ast.FieldReference, error) {
	sign := p.advance()
	ref := ast.FieldReference{Included: sign.Kind == token.Plus, Pos: sign.Pos}
	line := lexer.LineAt(p.src, sign.Pos.Line)

	first := p.cur()
	if first.Kind != token.Ident || first.Pos.Line != sign.Pos.Line {
		return ref, diagnostic.FieldRef(sign.Pos, line, fmt.Sprintf("missing field name after '%s'", sign.Text))
	}
	p.advance()
	ref.Name = first.Text

	if p.is(token.ColonColon) && p.cur().Pos.Line == sign.Pos.Line {
		sep := p.advance()
		second := p.cur()
		if second.Kind != token.Ident || second.Pos.Line != sep.Pos.Line {
			return ref, diagnostic.FieldRef(sep.Pos, line, "missing field name after '::'")
		}
		p.advance()
		ref.Namespace = first.Text
		ref.Name = second.Text
	}
	return ref, nil
}

// parseAttributedField parses one or more #[...] annotations and the field
// name they decorate.
func (p *parser) parseAttributedField() (ast.FieldReference, error) {
	var attrs []ast.FieldAttribute
	for p.is(token.Hash) {
		attr, err := p.parseAttribute()
		if err != nil {
			return ast.FieldReference{}, err
		}
		attrs = append(attrs, attr)
	}

	tok := p.cur()
	if tok.Kind != token.Ident || tok.Text == kwTrait {
		return ast.FieldReference{}, diagnostic.Unexpectedf(tok.Pos, "expected field name after attribute, found %s", tok)
	}
	p.advance()
	return ast.FieldReference{
		Included:   true,
		Declared:   true,
		Name:       tok.Text,
		Attributes: attrs,
		Pos:        tok.Pos,
	}, nil
}

func (p *parser) parseAttribute() (ast.FieldAttribute, error) {
	hash := p.advance()
	if !p.is(token.LBracket) {
		return ast.FieldAttribute{}, diagnostic.Unexpectedf(p.cur().Pos, "expected '[' after '#', found %s", p.cur())
	}
	p.advance()

	name := p.cur()
	if name.Kind != token.Ident {
		return ast.FieldAttribute{}, diagnostic.Unexpectedf(name.Pos, "expected attribute name, found %s", name)
	}
	p.advance()
	attr := ast.FieldAttribute{Name: name.Text, Pos: hash.Pos}

	if op := p.cur(); op.Kind.IsComparison() {
		p.advance()
		lit := p.cur()
		switch lit.Kind {
		case token.Int, token.String, token.Ident:
			p.advance()
		default:
			return ast.FieldAttribute{}, diagnostic.Unexpectedf(lit.Pos, "expected literal after '%s', found %s", op.Text, lit)
		}
		attr.Op = op.Text
		attr.Value = lit.Text
	}

	if !p.is(token.RBracket) {
		return ast.FieldAttribute{}, diagnostic.Unexpectedf(p.cur().Pos, "expected ']' to close attribute %s, found %s", attr.Name, p.cur())
	}
	p.advance()
	return attr, nil
}
