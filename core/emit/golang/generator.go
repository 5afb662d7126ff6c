// Package golang emits Go type definitions for a resolved schema: one struct
// per entity with a constructor and validation methods.
package golang

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"sort"
	"strconv"
	"text/template"
	"unicode"

	"github.com/artpar/datalang/core/convention"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/schema"
)

// Emitter generates Go source.
type Emitter struct{}

// New creates a Go emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Name() string { return "go" }
func (e *Emitter) Description() string { return "Go structs with constructors and validation methods" }
func (e *Emitter) Extension() string { return ".go" }

// FileData holds everything the template needs for one generated file.
type FileData struct {
	Package  string
	Imports  []string
	Entities []EntityData
}

// EntityData holds template data for one entity.
type EntityData struct {
	Name        string
	Kind        string
	TypeName    string
	Constructor string
	Receiver    string
	Fields      []convention.DerivedField
	Constrained []FieldCheck
}

// FieldCheck is a generated per-field validation method.
type FieldCheck struct {
	Name      string
	Validator string
	Checks    []string
}

// Emit renders s as a single Go file.
func (e *Emitter) Emit(s *schema.Schema, opts emit.Options) ([]byte, error) {
	pkg := opts.PackageName()
	if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
		return nil, fmt.Errorf("%w %q", emit.ErrInvalidPackage, pkg)
	}

	data, err := buildFileData(s, pkg)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("go").Parse(fileTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}

	return formatted, nil
}

func buildFileData(s *schema.Schema, pkg string) (FileData, error) {
	data := FileData{Package: pkg}
	imports := make(map[string]bool)
	owners := make(map[string]string)

	claim := func(ident, entity string) error {
		if prev, ok := owners[ident]; ok {
			return fmt.Errorf("entities %s and %s both generate Go identifier %s", prev, entity, ident)
		}
		owners[ident] = entity
		return nil
	}

	for _, ent := range s.Entities {
		d := convention.Derive(ent)
		if err := claim(d.TypeName, ent.Name); err != nil {
			return FileData{}, err
		}
		if err := claim(d.Constructor, ent.Name); err != nil {
			return FileData{}, err
		}

		ed := EntityData{
			Name:        ent.Name,
			Kind:        string(ent.Kind),
			TypeName:    d.TypeName,
			Constructor: d.Constructor,
			Receiver:    receiver(d.TypeName),
			Fields:      d.Fields,
		}

		for _, f := range d.Constrained() {
			fc := FieldCheck{Name: f.Name, Validator: f.Validator}
			for _, c := range f.Constraints {
				check, uses, err := renderCheck(ed.Receiver, f, c)
				if err != nil {
					return FileData{}, fmt.Errorf("entity %s: %w", ent.Name, err)
				}
				fc.Checks = append(fc.Checks, check)
				for _, imp := range uses {
					imports[imp] = true
				}
			}
			ed.Constrained = append(ed.Constrained, fc)
		}
		if len(ed.Constrained) > 0 {
			imports["errors"] = true
		}

		data.Entities = append(data.Entities, ed)
	}

	for imp := range imports {
		data.Imports = append(data.Imports, imp)
	}
	sort.Strings(data.Imports)
	return data, nil
}

// renderCheck returns the statement enforcing c on field f and the imports
// it needs.
func renderCheck(recv string, f convention.DerivedField, c schema.Constraint) (string, []string, error) {
	value := recv + "." + f.GoName
	switch c.Type {
	case schema.ConstraintLength:
		failOp, ok := negated[c.Op]
		if !ok || c.Limit < 0 {
			return "", nil, fmt.Errorf("field %s: invalid length constraint %q", f.Name, c.String())
		}
		msg := strconv.Quote(fmt.Sprintf("%s: %s, got %%d", f.Name, c.Message()))
		stmt := fmt.Sprintf("if got := utf8.RuneCountInString(%s); got %s %d {\n\t\treturn fmt.Errorf(%s, got)\n\t}",
			value, failOp, c.Limit, msg)
		return stmt, []string{"fmt", "unicode/utf8"}, nil
	case schema.ConstraintNotEmpty:
		msg := strconv.Quote(fmt.Sprintf("%s: %s", f.Name, c.Message()))
		stmt := fmt.Sprintf("if strings.TrimSpace(%s) == \"\" {\n\t\treturn errors.New(%s)\n\t}", value, msg)
		return stmt, []string{"errors", "strings"}, nil
	}
	return "", nil, fmt.Errorf("field %s: unsupported constraint %q", f.Name, c.Type)
}

// negated maps a passing comparison to the failing one.
var negated = map[string]string{
	schema.OpLess:      ">=",
	schema.OpLessEq:    ">",
	schema.OpGreater:   "<=",
	schema.OpGreaterEq: "<",
	schema.OpEqual:     "!=",
}

func receiver(typeName string) string {
	for _, r := range typeName {
		return string(unicode.ToLower(r))
	}
	return "x"
}

func init() {
	if err := emit.Register(New()); err != nil {
		fmt.Printf("failed to register go emitter: %v\n", err)
	}
}
