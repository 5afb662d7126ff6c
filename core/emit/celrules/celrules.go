// Package celrules emits a YAML rule set of CEL validation expressions, one
// per field constraint. Every expression is compiled before it is written.
package celrules

import (
	"bytes"
	"fmt"

	"github.com/artpar/datalang/core/convention"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/core/validation"
)

// Document is the emitted rule set.
type Document struct {
	Package  string       `yaml:"package"`
	Entities []EntityRule `yaml:"entities"`
}

// EntityRule lists the variables and rules of one entity.
type EntityRule struct {
	Name      string            `yaml:"name"`
	Kind      string            `yaml:"kind"`
	Variables []Variable        `yaml:"variables"`
	Rules     []validation.Rule `yaml:"rules,omitempty"`
}

// Variable binds a field to the CEL variable its rules refer to.
type Variable struct {
	Name  string `yaml:"name"`
	Field string `yaml:"field"`
	Type  string `yaml:"type"`
}

// Emitter generates CEL rule sets.
type Emitter struct{}

// New creates a CEL rules emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Name() string { return "celrules" }
func (e *Emitter) Description() string { return "CEL validation rules as YAML" }
func (e *Emitter) Extension() string { return ".rules.yaml" }

// Emit compiles every constraint of s and writes the rule set.
func (e *Emitter) Emit(s *schema.Schema, opts emit.Options) ([]byte, error) {
	doc, err := Build(s, opts.PackageName())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := emit.EncodeYAML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Build compiles the rule set for s.
func Build(s *schema.Schema, pkg string) (Document, error) {
	v, err := validation.New(s)
	if err != nil {
		return Document{}, fmt.Errorf("compile rules: %w", err)
	}

	doc := Document{Package: pkg}
	for _, name := range v.Entities() {
		ent, _ := s.Entity(name)
		d := convention.Derive(ent)
		er := EntityRule{
			Name:  ent.Name,
			Kind:  string(ent.Kind),
			Rules: v.Rules(name),
		}
		for _, f := range d.Fields {
			er.Variables = append(er.Variables, Variable{Name: f.CELName, Field: f.Name, Type: "string"})
		}
		doc.Entities = append(doc.Entities, er)
	}
	return doc, nil
}

func init() {
	if err := emit.Register(New()); err != nil {
		fmt.Printf("failed to register celrules emitter: %v\n", err)
	}
}
