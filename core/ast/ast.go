// Package ast holds the parsed form of a DataLang file: an ordered list of
// top-level items exactly as written, before any composition is resolved.
package ast

import "github.com/artpar/datalang/core/token"

// ItemKind names the variant of an Item.
type ItemKind string

const (
	KindDictionary ItemKind = "dictionary"
	KindImport     ItemKind = "import"
	KindTerm       ItemKind = "term"
	KindStruct     ItemKind = "struct"
)

// Item is one top-level construct. The concrete types are *Dictionary,
// *Import, *Term and *Struct.
type Item interface {
	Kind() ItemKind
	ItemName() string
	Position() token.Pos
}

// Dictionary declares a namespace. It is nominal and emits nothing.
type Dictionary struct {
	Name string
	Pos  token.Pos
}

// Import declares a cross-namespace reference. It is nominal and emits nothing.
type Import struct {
	Module string
	Pos    token.Pos
}

// Term is a named entity declared with the term keyword.
// A term without fields is primitive: it resolves to a single field named
// after the term itself.
type Term struct {
	Name   string
	Fields []FieldReference
	Pos    token.Pos
}

// Struct is an entity declared by a bare identifier. Besides +/- directives
// its body may hold attributed field declarations and trait clauses.
type Struct struct {
	Name   string
	Fields []FieldReference
	Traits []TraitRef
	Pos    token.Pos
}

// TraitRef is a "trait Parent" clause.
type TraitRef struct {
	Name string
	Pos  token.Pos
}

func (d *Dictionary) Kind() ItemKind { return KindDictionary }
func (d *Dictionary) ItemName() string { return d.Name }
func (d *Dictionary) Position() token.Pos { return d.Pos }
func (i *Import) Kind() ItemKind { return KindImport }
func (i *Import) ItemName() string { return i.Module }
func (i *Import) Position() token.Pos { return i.Pos }
func (t *Term) Kind() ItemKind { return KindTerm }
func (t *Term) ItemName() string { return t.Name }
func (t *Term) Position() token.Pos { return t.Pos }
func (s *Struct) Kind() ItemKind { return KindStruct }
func (s *Struct) ItemName() string { return s.Name }
func (s *Struct) Position() token.Pos { return s.Pos }

// IsPrimitive reports whether the term has no body.
func (t *Term) IsPrimitive() bool {
	return len(t.Fields) == 0
}

// Parent returns the first trait clause, if any.
func (s *Struct) Parent() (TraitRef, bool) {
	if len(s.Traits) == 0 {
		return TraitRef{}, false
	}
	return s.Traits[0], true
}

// FieldReference is one composition directive (+Name, -Name, +NS::Name) or,
// in the attributed form, a declared field name with its attributes.
type FieldReference struct {
	// Included is true for + and for declared fields, false for -.
	Included bool

	// Namespace is the qualifier before ::, empty when absent.
	Namespace string

	// Name is the referenced field, as written.
	Name string

	// Declared marks a bare field declaration from the attributed form.
	Declared bool

	// Attributes are the #[...] annotations preceding a declared field.
	Attributes []FieldAttribute

	Pos token.Pos
}

// IsIncluded reports whether the directive adds the field.
func (f FieldReference) IsIncluded() bool { return f.Included }

// IsExcluded reports whether the directive removes the field.
func (f FieldReference) IsExcluded() bool { return !f.Included }

// FieldName returns the name without namespace.
func (f FieldReference) FieldName() string { return f.Name }

// HasNamespace reports whether the reference is qualified.
func (f FieldReference) HasNamespace() bool { return f.Namespace != "" }

// FullName returns NS::Name, or Name when unqualified.
func (f FieldReference) FullName() string {
	if f.Namespace != "" {
		return f.Namespace + "::" + f.Name
	}
	return f.Name
}

// String renders the reference in source syntax.
func (f FieldReference) String() string {
	if f.Declared {
		return f.Name
	}
	sign := "+"
	if !f.Included {
		sign = "-"
	}
	return sign + f.FullName()
}

// FieldAttribute is a #[name] or #[name op value] annotation.
type FieldAttribute struct {
	Name string

	// Op and Value are empty for attributes without a constraint.
	Op    string
	Value string

	Pos token.Pos
}

// Constraint returns the constraint text, e.g. "< 10", or "" when absent.
func (a FieldAttribute) Constraint() string {
	if a.Op == "" {
		return ""
	}
	return a.Op + " " + a.Value
}

// HasConstraint reports whether the attribute carries a comparison.
func (a FieldAttribute) HasConstraint() bool {
	return a.Op != ""
}
