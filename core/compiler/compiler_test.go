package compiler

import (
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/core/validation"
)

func readTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func mustCompile(t *testing.T, src string, opts ...Option) *schema.Schema {
	t.Helper()
	s, err := Compile(src, opts...)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return s
}

func fieldNames(t *testing.T, s *schema.Schema, entity string) []string {
	t.Helper()
	e, ok := s.Entity(entity)
	if !ok {
		t.Fatalf("entity %s missing from %v", entity, s.EntityNames())
	}
	return e.FieldNames()
}

func TestCompile_PrimitiveRoundTrip(t *testing.T) {
	for _, name := range []string{"Name", "Birthdate", "Zip_code"} {
		s := mustCompile(t, "term "+name+" {}")
		if len(s.Entities) != 1 {
			t.Fatalf("len(Entities) = %d, want 1", len(s.Entities))
		}
		want := []string{strings.ToLower(name)}
		if got := fieldNames(t, s, name); !reflect.DeepEqual(got, want) {
			t.Errorf("%s fields = %v, want %v", name, got, want)
		}
	}
}

func TestCompile_OrderSensitivity(t *testing.T) {
	tests := []struct {
		body string
		want []string
	}{
		{"+A +A", []string{"a"}},
		{"+A -A +A", []string{"a"}},
		{"+A +B -A", []string{"b"}},
		{"-A", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			s := mustCompile(t, "term X has { "+tt.body+" }")
			if got := fieldNames(t, s, "X"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Base(t *testing.T) {
	s := mustCompile(t, readTestdata(t, "base.dl"))

	if got := fieldNames(t, s, "User"); !reflect.DeepEqual(got, []string{"name", "lastname", "birthdate"}) {
		t.Errorf("User fields = %v", got)
	}
	if !reflect.DeepEqual(s.Dictionaries, []string{"base"}) {
		t.Errorf("Dictionaries = %v, want [base]", s.Dictionaries)
	}
}

func TestCompile_SocialMediaUser(t *testing.T) {
	s := mustCompile(t, readTestdata(t, "social_media.dl"))

	if got := fieldNames(t, s, "SocialMediaUser"); !reflect.DeepEqual(got, []string{"name", "birthdate", "handle"}) {
		t.Errorf("SocialMediaUser fields = %v, want [name birthdate handle]", got)
	}
	if got := fieldNames(t, s, "User"); !reflect.DeepEqual(got, []string{"name", "lastname", "birthdate"}) {
		t.Errorf("User fields = %v", got)
	}

	smu, _ := s.Entity("SocialMediaUser")
	if ns := smu.Fields[0].Namespace; ns != "User" {
		t.Errorf("name provenance = %q, want User", ns)
	}
}

func TestCompile_InvalidKeyword(t *testing.T) {
	s, err := Compile("fn Foo { }")
	if s != nil {
		t.Error("Compile() returned a schema on error")
	}
	var derr *diagnostic.Error
	if !errors.As(err, &derr) {
		t.Fatalf("error = %v, want *diagnostic.Error", err)
	}
	if derr.Kind != diagnostic.InvalidKeyword || derr.Keyword != "fn" || derr.Suggestion != "term" {
		t.Errorf("error = %+v, want InvalidKeyword{fn, term}", derr)
	}
}

func TestCompile_MalformedComposite(t *testing.T) {
	_, err := Compile("term Person has {\n    Name\n}")
	if !errors.Is(err, diagnostic.InvalidFieldReference) {
		t.Errorf("error = %v, want InvalidFieldReference", err)
	}
}

func TestCompile_ValidationErrorsAggregated(t *testing.T) {
	src := `term A {}
term A {}
User {
    #[length < -1]
    name
    #[pattern == "x"]
    email
}`
	_, err := Compile(src)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	// "-1" is not a literal the parser accepts, so use a separate check for it.
	if !errors.Is(err, diagnostic.UnexpectedToken) {
		t.Fatalf("error = %v, want UnexpectedToken for negative limit", err)
	}

	src = strings.Replace(src, "< -1", "< ten", 1)
	_, err = Compile(src)
	errs := diagnostic.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("len(errors) = %d, want 3: %v", len(errs), err)
	}
	for _, e := range errs {
		if e.Kind != diagnostic.StructuralError {
			t.Errorf("kind = %v, want StructuralError", e.Kind)
		}
	}
}

func TestCompile_Notices(t *testing.T) {
	sink := diagnostic.NewCollector()
	mustCompile(t, readTestdata(t, "social_media.dl"), WithSink(sink))

	notices := sink.Notices()
	if len(notices) != 2 {
		t.Fatalf("len(notices) = %d, want 2: %v", len(notices), notices)
	}
	if notices[0].Subject != "dictionary social_media" || notices[1].Subject != "import base" {
		t.Errorf("notices = %+v", notices)
	}
	for _, n := range notices {
		if n.Level != diagnostic.LevelInfo {
			t.Errorf("notice level = %v, want info", n.Level)
		}
	}
}

func TestCompile_StrictReferences(t *testing.T) {
	src := "term X has { +Nickname }"
	mustCompile(t, src)

	_, err := Compile(src, WithStrictReferences(true))
	if !errors.Is(err, diagnostic.InvalidFieldReference) {
		t.Errorf("strict Compile() error = %v, want InvalidFieldReference", err)
	}
}

func TestCompile_Concurrent(t *testing.T) {
	src := readTestdata(t, "social_media.dl")
	sink := diagnostic.NewCollector()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Compile(src, WithSink(sink)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Compile() error = %v", err)
	}
	if got := len(sink.Notices()); got != 32 {
		t.Errorf("len(notices) = %d, want 32", got)
	}
}

func TestGenerate_Go(t *testing.T) {
	out, err := Generate(readTestdata(t, "social_media.dl"), "go", WithPackage("social"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	f, err := parser.ParseFile(token.NewFileSet(), "social.go", out, 0)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, out)
	}
	if f.Name.Name != "social" {
		t.Errorf("package = %q, want social", f.Name.Name)
	}

	text := string(out)
	start := strings.Index(text, "type SocialMediaUser struct")
	if start < 0 {
		t.Fatalf("SocialMediaUser missing:\n%s", text)
	}
	body := text[start : start+strings.Index(text[start:], "}")]
	if strings.Contains(body, "Lastname") {
		t.Errorf("SocialMediaUser should not have Lastname:\n%s", body)
	}
	for _, want := range []string{"Name", "Birthdate", "Handle"} {
		if !strings.Contains(body, want) {
			t.Errorf("SocialMediaUser missing %s:\n%s", want, body)
		}
	}
}

func TestGenerate_ConstrainedBoundary(t *testing.T) {
	src := readTestdata(t, "constrained.dl")

	out, err := Generate(src, "go")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(string(out), "if got := utf8.RuneCountInString(u.Name); got >= 10 {") {
		t.Errorf("generated validation missing:\n%s", out)
	}
	if !strings.Contains(string(out), "func (a *Admin) ValidateName() error") {
		t.Errorf("inherited constraint should produce Admin.ValidateName:\n%s", out)
	}

	s := mustCompile(t, src)
	v, err := validation.New(s)
	if err != nil {
		t.Fatalf("validation.New() error = %v", err)
	}
	if r := v.Validate("User", map[string]string{"name": "123456789", "email": "x"}); !r.Valid {
		t.Errorf("length 9 rejected: %v", r.Errors)
	}
	if r := v.Validate("User", map[string]string{"name": "1234567890", "email": "x"}); r.Valid {
		t.Error("length 10 accepted")
	}
}

func TestGenerate_Targets(t *testing.T) {
	src := readTestdata(t, "constrained.dl")
	for _, target := range []string{"go", "celrules", "json", "yaml", "table", ""} {
		t.Run("target="+target, func(t *testing.T) {
			out, err := Generate(src, target)
			if err != nil {
				t.Fatalf("Generate(%q) error = %v", target, err)
			}
			if len(out) == 0 {
				t.Error("empty output")
			}
		})
	}
}

func TestGenerate_UnknownTarget(t *testing.T) {
	_, err := Generate("term A {}", "rust")
	if !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("error = %v, want ErrUnknownTarget", err)
	}
	if !strings.Contains(err.Error(), "go") {
		t.Errorf("error should list available targets: %v", err)
	}
}

func TestGenerate_CustomRegistry(t *testing.T) {
	r := emit.NewRegistry()
	if err := r.Register(emit.NewJSONEmitter()); err != nil {
		t.Fatal(err)
	}

	if _, err := Generate("term A {}", "go", WithRegistry(r)); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("go should not be available in a custom registry, got %v", err)
	}
	out, err := Generate("term A {}", "", WithRegistry(r))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(string(out), `"name": "A"`) {
		t.Errorf("default target should be json: %s", out)
	}
}

func TestEmit(t *testing.T) {
	s := mustCompile(t, "term A {}")
	out, err := Emit(s, "json")
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if !strings.Contains(string(out), `"entities"`) {
		t.Errorf("Emit() = %s", out)
	}
}
