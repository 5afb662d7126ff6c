// Package validation checks records against the constraints of a resolved
// schema. Every constraint is compiled to a CEL program once, up front.
package validation

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"

	"github.com/artpar/datalang/core/convention"
	"github.com/artpar/datalang/core/schema"
)

// costLimit bounds evaluation of a single rule.
const costLimit = 1000000

// Rule is one compiled constraint.
type Rule struct {
	Entity     string `json:"entity" yaml:"entity"`
	Field      string `json:"field" yaml:"field"`
	Variable   string `json:"variable" yaml:"variable"`
	Constraint string `json:"constraint" yaml:"constraint"`
	Expression string `json:"expression" yaml:"expression"`
	Message    string `json:"message" yaml:"message"`

	program cel.Program
}

type entityRules struct {
	derived convention.Derived
	rules   []Rule
}

// Validator validates records against entity constraints.
// It is safe for concurrent use once built.
type Validator struct {
	entities map[string]*entityRules
	order    []string
}

// New compiles every constraint in s.
func New(s *schema.Schema) (*Validator, error) {
	v := &Validator{entities: make(map[string]*entityRules, len(s.Entities))}

	for _, e := range s.Entities {
		if _, dup := v.entities[e.Name]; dup {
			continue
		}
		d := convention.Derive(e)
		rules, err := compileEntity(d)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name, err)
		}
		v.entities[e.Name] = &entityRules{derived: d, rules: rules}
		v.order = append(v.order, e.Name)
	}

	return v, nil
}

// NewEnv declares one string variable per field of d.
func NewEnv(d convention.Derived) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(d.Fields))
	for _, f := range d.Fields {
		opts = append(opts, cel.Variable(f.CELName, cel.StringType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// Expression renders c as a CEL expression over variable.
func Expression(variable string, c schema.Constraint) (string, error) {
	switch c.Type {
	case schema.ConstraintLength:
		if !schema.IsComparisonOp(c.Op) || c.Limit < 0 {
			return "", fmt.Errorf("invalid length constraint %q", c.String())
		}
		return fmt.Sprintf("size(%s) %s %d", variable, c.Op, c.Limit), nil
	case schema.ConstraintNotEmpty:
		return fmt.Sprintf("%s.matches('\\\\S')", variable), nil
	}
	return "", fmt.Errorf("unsupported constraint %q", c.Type)
}

func compileEntity(d convention.Derived) ([]Rule, error) {
	constrained := d.Constrained()
	if len(constrained) == 0 {
		return nil, nil
	}

	env, err := NewEnv(d)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	for _, f := range constrained {
		for _, c := range f.Constraints {
			expr, err := Expression(f.CELName, c)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			prog, err := compile(env, expr)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			rules = append(rules, Rule{
				Entity:     d.Source.Name,
				Field:      f.Name,
				Variable:   f.CELName,
				Constraint: c.String(),
				Expression: expr,
				Message:    c.Message(),
				program:    prog,
			})
		}
	}
	return rules, nil
}

func compile(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q yields %v, want bool", expr, ast.OutputType())
	}

	prog, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// Entities returns the entity names in declaration order.
func (v *Validator) Entities() []string {
	return append([]string(nil), v.order...)
}

// Rules returns the compiled rules of entity.
func (v *Validator) Rules(entity string) []Rule {
	er, ok := v.entities[entity]
	if !ok {
		return nil
	}
	return append([]Rule(nil), er.rules...)
}

// Validate checks a full record. Fields absent from record are checked as
// the empty string; fields not in the entity are reported as unknown.
func (v *Validator) Validate(entity string, record map[string]string) schema.ValidationResult {
	return v.validate(entity, record, false)
}

// ValidatePartial checks only the fields present in record.
func (v *Validator) ValidatePartial(entity string, record map[string]string) schema.ValidationResult {
	return v.validate(entity, record, true)
}

func (v *Validator) validate(entity string, record map[string]string, partial bool) schema.ValidationResult {
	result := schema.ValidationResult{Valid: true}

	er, ok := v.entities[entity]
	if !ok {
		result.AddError("_entity", "unknown", entity, fmt.Sprintf("unknown entity: %s", entity))
		return result
	}

	known := make(map[string]string, len(er.derived.Fields))
	for _, f := range er.derived.Fields {
		known[f.Name] = f.CELName
	}

	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := known[name]; !ok {
			result.AddError(name, "unknown_field", name,
				fmt.Sprintf("unknown field '%s' - not defined in %s", name, entity))
		}
	}

	activation := make(map[string]any, len(known))
	for name, variable := range known {
		activation[variable] = record[name]
	}

	for _, r := range er.rules {
		value, present := record[r.Field]
		if partial && !present {
			continue
		}
		out, _, err := r.program.Eval(activation)
		if err != nil {
			result.AddError(r.Field, r.Constraint, value, fmt.Sprintf("evaluation failed: %v", err))
			continue
		}
		if passed, ok := out.Value().(bool); !ok || !passed {
			result.AddError(r.Field, r.Constraint, value, r.Message)
		}
	}

	return result
}
