package lexer

import (
	"errors"
	"testing"

	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"empty", "", []token.Kind{token.EOF}},
		{"comment only", "// nothing here\n\n", []token.Kind{token.EOF}},
		{"primitive term", "term Name {}", []token.Kind{token.Ident, token.Ident, token.LBrace, token.RBrace, token.EOF}},
		{"namespaced include", "+base::Name", []token.Kind{token.Plus, token.Ident, token.ColonColon, token.Ident, token.EOF}},
		{"exclude", "-Lastname", []token.Kind{token.Minus, token.Ident, token.EOF}},
		{"attribute", "#[length < 10]", []token.Kind{token.Hash, token.LBracket, token.Ident, token.Less, token.Int, token.RBracket, token.EOF}},
		{"comparisons", "< <= > >= ==", []token.Kind{token.Less, token.LessEq, token.Greater, token.GreaterEq, token.Equal, token.EOF}},
		{"string literal", `"a\"b"`, []token.Kind{token.String, token.EOF}},
		{"trailing comment", "term A {} // primitive", []token.Kind{token.Ident, token.Ident, token.LBrace, token.RBrace, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Scan(tt.src)
			if err != nil {
				t.Fatalf("Scan(%q) error = %v", tt.src, err)
			}
			got := kinds(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("Scan(%q) kinds = %v, want %v", tt.src, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d kind = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScan_TextAndPositions(t *testing.T) {
	toks, err := Scan("term Name {}\n  +Name")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := []struct {
		text string
		pos  token.Pos
	}{
		{"term", token.Pos{Line: 1, Column: 1}},
		{"Name", token.Pos{Line: 1, Column: 6}},
		{"{", token.Pos{Line: 1, Column: 11}},
		{"}", token.Pos{Line: 1, Column: 12}},
		{"+", token.Pos{Line: 2, Column: 3}},
		{"Name", token.Pos{Line: 2, Column: 4}},
	}
	for i, w := range want {
		if toks[i].Text != w.text {
			t.Errorf("token %d text = %q, want %q", i, toks[i].Text, w.text)
		}
		if toks[i].Pos != w.pos {
			t.Errorf("token %d pos = %v, want %v", i, toks[i].Pos, w.pos)
		}
	}
}

func TestScan_StringEscapes(t *testing.T) {
	toks, err := Scan(`"say \"hi\""`)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if toks[0].Text != `say "hi"` {
		t.Errorf("string text = %q, want %q", toks[0].Text, `say "hi"`)
	}
}

func TestScan_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diagnostic.Kind
		pos  token.Pos
	}{
		{"unknown character", "term A {}\n  @", diagnostic.UnexpectedToken, token.Pos{Line: 2, Column: 3}},
		{"single colon", "+a:b", diagnostic.UnexpectedToken, token.Pos{Line: 1, Column: 3}},
		{"unterminated string", `#[x == "abc`, diagnostic.InvalidSyntax, token.Pos{Line: 1, Column: 8}},
		{"newline in string", "\"ab\ncd\"", diagnostic.InvalidSyntax, token.Pos{Line: 1, Column: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scan(tt.src)
			if err == nil {
				t.Fatalf("Scan(%q) expected error", tt.src)
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("Scan(%q) error = %v, want kind %s", tt.src, err, tt.kind)
			}
			var derr *diagnostic.Error
			if errors.As(err, &derr) && derr.Pos != tt.pos {
				t.Errorf("error pos = %v, want %v", derr.Pos, tt.pos)
			}
		})
	}
}

func TestLines(t *testing.T) {
	src := "// header\n\nterm Name {}   // trailing\n  term Person has {\n"
	lines := Lines(src)
	if len(lines) != 2 {
		t.Fatalf("Lines() returned %d lines, want 2", len(lines))
	}
	if lines[0].Number != 3 || lines[0].Text != "term Name {}" {
		t.Errorf("lines[0] = %+v, want line 3 %q", lines[0], "term Name {}")
	}
	if got := len(lines[1].Words); got != 4 {
		t.Errorf("lines[1] word count = %d, want 4", got)
	}
}

func TestLineAt(t *testing.T) {
	src := "a\n  b  \r\nc"
	if got := LineAt(src, 2); got != "  b  " {
		t.Errorf("LineAt(2) = %q, want %q", got, "  b  ")
	}
	if got := LineAt(src, 0); got != "" {
		t.Errorf("LineAt(0) = %q, want empty", got)
	}
	if got := LineAt(src, 4); got != "" {
		t.Errorf("LineAt(4) = %q, want empty", got)
	}
}
