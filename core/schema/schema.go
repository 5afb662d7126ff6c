package schema

import (
	"strings"

	"github.com/artpar/datalang/core/token"
)

// EntityKind distinguishes terms from bare-identifier entities.
type EntityKind string

const (
	KindTerm   EntityKind = "term"
	KindStruct EntityKind = "struct"
)

// Schema is the resolved output of one compilation.
type Schema struct {
	Entities     []Entity `json:"entities" yaml:"entities"`
	Dictionaries []string `json:"dictionaries,omitempty" yaml:"dictionaries,omitempty"`
	Imports      []string `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// Entity is a term or struct with its final field list.
type Entity struct {
	Name string     `json:"name" yaml:"name"`
	Kind EntityKind `json:"kind" yaml:"kind"`

	// Primitive is set for terms declared with an empty body.
	Primitive bool `json:"primitive,omitempty" yaml:"primitive,omitempty"`

	// Parent names the entity inherited through a trait clause.
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`

	Fields []Field   `json:"fields" yaml:"fields"`
	Pos    token.Pos `json:"pos" yaml:"pos"`
}

// Field is a single resolved field. Name is lower-cased and carries no
// namespace; Namespace records where an include came from.
type Field struct {
	Name        string       `json:"name" yaml:"name"`
	Namespace   string       `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Pos         token.Pos    `json:"pos" yaml:"pos"`
}

// Entity looks up an entity by name.
func (s *Schema) Entity(name string) (Entity, bool) {
	for _, e := range s.Entities {
		if e.Name == name {
			return e, true
		}
	}
	return Entity{}, false
}

// EntityNames returns entity names in declaration order.
func (s *Schema) EntityNames() []string {
	names := make([]string, len(s.Entities))
	for i, e := range s.Entities {
		names[i] = e.Name
	}
	return names
}

// Field looks up a field by name.
func (e Entity) Field(name string) (Field, bool) {
	name = strings.ToLower(name)
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the field names in resolved order.
func (e Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// ConstrainedFields returns the fields that carry at least one constraint.
func (e Entity) ConstrainedFields() []Field {
	var out []Field
	for _, f := range e.Fields {
		if len(f.Constraints) > 0 {
			out = append(out, f)
		}
	}
	return out
}

// HasConstraints reports whether any field of e is constrained.
func (e Entity) HasConstraints() bool {
	for _, f := range e.Fields {
		if len(f.Constraints) > 0 {
			return true
		}
	}
	return false
}

// QualifiedName renders the field with its provenance, e.g. "Person::name".
func (f Field) QualifiedName() string {
	if f.Namespace == "" {
		return f.Name
	}
	return f.Namespace + "::" + f.Name
}
