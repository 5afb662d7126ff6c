package celrules

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/core/token"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Entities: []schema.Entity{
			{Name: "Name", Kind: schema.KindTerm, Primitive: true, Fields: []schema.Field{{Name: "name"}}},
			{Name: "User", Kind: schema.KindStruct, Fields: []schema.Field{
				{Name: "name", Constraints: []schema.Constraint{schema.NewConstraint("length", "<", "10", token.Pos{})}},
				{Name: "birthdate"},
			}},
		},
	}
}

func TestBuild(t *testing.T) {
	doc, err := Build(testSchema(), "models")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if doc.Package != "models" {
		t.Errorf("Package = %q, want models", doc.Package)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("len(Entities) = %d, want 2", len(doc.Entities))
	}

	user := doc.Entities[1]
	if len(user.Variables) != 2 || user.Variables[1].Name != "birthdate" {
		t.Errorf("Variables = %+v", user.Variables)
	}
	if len(user.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(user.Rules))
	}
	if user.Rules[0].Expression != "size(name) < 10" {
		t.Errorf("Expression = %q, want %q", user.Rules[0].Expression, "size(name) < 10")
	}
	if len(doc.Entities[0].Rules) != 0 {
		t.Errorf("primitive term should have no rules")
	}
}

func TestEmit_YAML(t *testing.T) {
	out, err := New().Emit(testSchema(), emit.Options{Package: "rules"})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	var decoded Document
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if decoded.Package != "rules" {
		t.Errorf("Package = %q, want rules", decoded.Package)
	}
	text := string(out)
	for _, want := range []string{"expression: size(name) < 10", "constraint: length < 10", "message: length must be less than 10"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestEmit_InvalidConstraint(t *testing.T) {
	s := &schema.Schema{Entities: []schema.Entity{{
		Name:   "User",
		Fields: []schema.Field{{Name: "name", Constraints: []schema.Constraint{schema.NewConstraint("length", "<", "many", token.Pos{})}}},
	}}}
	if _, err := New().Emit(s, emit.Options{}); err == nil {
		t.Error("Emit() should fail for an uncompilable constraint")
	}
}

func TestRegistered(t *testing.T) {
	if _, ok := emit.Get("celrules"); !ok {
		t.Fatal("celrules emitter not registered")
	}
}
