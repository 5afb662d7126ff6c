// Package convention derives target names from resolved entities.
// Emitters use it so every backend agrees on the same mapping.
package convention

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/artpar/datalang/core/schema"
)

// Derived contains all derived information for one entity.
type Derived struct {
	// Source is the resolved entity.
	Source schema.Entity

	// TypeName is the exported Go type name.
	TypeName string

	// Constructor is the name of the generated constructor.
	Constructor string

	// Fields follow the entity's resolved order.
	Fields []DerivedField
}

// DerivedField is a resolved field with its target names.
type DerivedField struct {
	// Name is the schema field name, also used as the JSON key.
	Name string

	// GoName is the exported Go struct field name.
	GoName string

	// CELName is the CEL variable bound to the field value.
	CELName string

	// Validator is the generated per-field validation method, empty when the
	// field carries no constraints.
	Validator string

	Constraints []schema.Constraint
}

// Constrained returns the fields that carry constraints.
func (d Derived) Constrained() []DerivedField {
	var out []DerivedField
	for _, f := range d.Fields {
		if len(f.Constraints) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Derive computes target names for e. Go field names never collide with each
// other or with the generated Validate method.
func Derive(e schema.Entity) Derived {
	d := Derived{
		Source:      e,
		TypeName:    ExportedName(e.Name),
		Constructor: "New" + ExportedName(e.Name),
	}

	used := map[string]bool{"Validate": true}
	for _, f := range e.Fields {
		goName := unique(ExportedName(f.Name), used)
		used[goName] = true
		d.Fields = append(d.Fields, DerivedField{
			Name:        f.Name,
			GoName:      goName,
			CELName:     CELName(f.Name),
			Constraints: f.Constraints,
		})
	}

	for i := range d.Fields {
		if len(d.Fields[i].Constraints) == 0 {
			continue
		}
		method := "Validate" + d.Fields[i].GoName
		if used[method] {
			method = unique(method+"Field", used)
		}
		used[method] = true
		d.Fields[i].Validator = method
	}

	return d
}

// ExportedName converts an identifier to an exported Go name:
// "lastname" → "Lastname", "first_name" → "FirstName".
// Interior capitals are preserved.
func ExportedName(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		r := []rune(part)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	if b.Len() == 0 {
		return "Field"
	}
	out := b.String()
	if unicode.IsDigit([]rune(out)[0]) {
		return "F" + out
	}
	return out
}

// CELName returns a CEL identifier for name, prefixing CEL reserved words
// with an underscore.
func CELName(name string) string {
	if celReserved[name] {
		return "_" + name
	}
	return name
}

func unique(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

var celReserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"false": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "let": true, "loop": true, "package": true, "namespace": true,
	"null": true, "return": true, "true": true, "var": true, "void": true,
	"while": true,
}
