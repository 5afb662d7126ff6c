package validation

import (
	"strings"
	"testing"

	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/core/token"
)

func constraint(name, op, value string) schema.Constraint {
	return schema.NewConstraint(name, op, value, token.Pos{})
}

func testSchema() *schema.Schema {
	return &schema.Schema{
		Entities: []schema.Entity{
			{Name: "Name", Kind: schema.KindTerm, Primitive: true, Fields: []schema.Field{{Name: "name"}}},
			{Name: "User", Kind: schema.KindStruct, Fields: []schema.Field{
				{Name: "name", Constraints: []schema.Constraint{constraint("length", "<", "10")}},
				{Name: "email", Constraints: []schema.Constraint{constraint("not_empty", "", "")}},
				{Name: "in", Constraints: []schema.Constraint{constraint("length", "<=", "2")}},
				{Name: "birthdate"},
			}},
		},
	}
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(testSchema())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return v
}

func TestExpression(t *testing.T) {
	tests := []struct {
		c    schema.Constraint
		want string
	}{
		{constraint("length", "<", "10"), "size(name) < 10"},
		{constraint("length", ">=", "3"), "size(name) >= 3"},
		{constraint("not_empty", "", ""), `name.matches('\\S')`},
	}
	for _, tt := range tests {
		got, err := Expression("name", tt.c)
		if err != nil {
			t.Fatalf("Expression(%s) error = %v", tt.c, err)
		}
		if got != tt.want {
			t.Errorf("Expression(%s) = %q, want %q", tt.c, got, tt.want)
		}
	}

	if _, err := Expression("name", constraint("pattern", "==", "x")); err == nil {
		t.Error("Expression(pattern) should fail")
	}
	if _, err := Expression("name", constraint("length", "<", "ten")); err == nil {
		t.Error("Expression with non-integer limit should fail")
	}
}

func TestNew_Rules(t *testing.T) {
	v := newValidator(t)

	if got := v.Entities(); len(got) != 2 || got[0] != "Name" || got[1] != "User" {
		t.Errorf("Entities() = %v, want [Name User]", got)
	}
	if got := v.Rules("Name"); len(got) != 0 {
		t.Errorf("Rules(Name) = %v, want none", got)
	}

	rules := v.Rules("User")
	if len(rules) != 3 {
		t.Fatalf("len(Rules(User)) = %d, want 3", len(rules))
	}
	if rules[0].Expression != "size(name) < 10" {
		t.Errorf("rules[0].Expression = %q", rules[0].Expression)
	}
	if rules[2].Variable != "_in" || rules[2].Expression != "size(_in) <= 2" {
		t.Errorf("reserved word field rule = %+v", rules[2])
	}
}

func TestNew_RejectsUnsupportedConstraint(t *testing.T) {
	s := &schema.Schema{Entities: []schema.Entity{{
		Name:   "User",
		Fields: []schema.Field{{Name: "name", Constraints: []schema.Constraint{constraint("bogus", "", "")}}},
	}}}
	_, err := New(s)
	if err == nil || !strings.Contains(err.Error(), "entity User") {
		t.Errorf("New() error = %v", err)
	}
}

func TestValidate_LengthBoundary(t *testing.T) {
	v := newValidator(t)

	ok := v.Validate("User", map[string]string{"name": "abcdefghi", "email": "a@b"})
	if !ok.Valid {
		t.Errorf("9-character name rejected: %v", ok.Errors)
	}

	bad := v.Validate("User", map[string]string{"name": "abcdefghij", "email": "a@b"})
	if bad.Valid {
		t.Fatal("10-character name accepted")
	}
	if len(bad.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1: %v", len(bad.Errors), bad.Errors)
	}
	e := bad.Errors[0]
	if e.Field != "name" || e.Constraint != "length < 10" {
		t.Errorf("error = %+v, want name / length < 10", e)
	}
	if e.Message != "length must be less than 10" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestValidate_AgreesWithCheck(t *testing.T) {
	v := newValidator(t)
	user, _ := testSchema().Entity("User")

	values := []string{"", " ", "a", "abcdefghi", "abcdefghij", "ééééééééééé", "x y"}
	for _, val := range values {
		record := map[string]string{"name": val, "email": val, "in": val}
		celResult := v.Validate("User", record)
		goResult := schema.CheckRecord(user, record)
		if celResult.Valid != goResult.Valid || len(celResult.Errors) != len(goResult.Errors) {
			t.Errorf("value %q: CEL = %v, Go = %v", val, celResult.Errors, goResult.Errors)
		}
	}
}

func TestValidate_ReportsEverything(t *testing.T) {
	v := newValidator(t)

	r := v.Validate("User", map[string]string{"name": "abcdefghijkl", "nickname": "x"})
	if r.Valid {
		t.Fatal("expected failures")
	}

	fields := make(map[string]bool)
	for _, e := range r.Errors {
		fields[e.Field] = true
	}
	for _, want := range []string{"nickname", "name", "email"} {
		if !fields[want] {
			t.Errorf("missing error for %s: %v", want, r.Errors)
		}
	}
	if r.Errors[0].Constraint != "unknown_field" {
		t.Errorf("unknown fields should be reported first, got %+v", r.Errors[0])
	}
}

func TestValidatePartial(t *testing.T) {
	v := newValidator(t)

	r := v.ValidatePartial("User", map[string]string{"name": "Bob"})
	if !r.Valid {
		t.Errorf("partial record rejected: %v", r.Errors)
	}

	r = v.ValidatePartial("User", map[string]string{"email": " "})
	if r.Valid || len(r.Errors) != 1 || r.Errors[0].Field != "email" {
		t.Errorf("ValidatePartial() = %+v, want one email error", r)
	}
}

func TestValidate_UnknownEntity(t *testing.T) {
	v := newValidator(t)
	r := v.Validate("Ghost", nil)
	if r.Valid || r.Errors[0].Field != "_entity" {
		t.Errorf("Validate(Ghost) = %+v", r)
	}
}
