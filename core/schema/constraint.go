package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/artpar/datalang/core/token"
)

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	ConstraintLength   ConstraintType = "length"    // String length in runes
	ConstraintNotEmpty ConstraintType = "not_empty" // String must not be empty/whitespace
)

// Comparison operators accepted by length constraints.
const (
	OpLess      = "<"
	OpLessEq    = "<="
	OpGreater   = ">"
	OpGreaterEq = ">="
	OpEqual     = "=="
)

// Constraint is a validation rule attached to a field by an attribute such as
// #[length < 10].
type Constraint struct {
	Type ConstraintType `json:"type" yaml:"type"`
	Op   string         `json:"op,omitempty" yaml:"op,omitempty"`

	// Limit is the parsed operand, or -1 when Raw is not an integer.
	Limit int `json:"limit" yaml:"limit"`

	// Raw is the operand as written in the source.
	Raw string    `json:"raw,omitempty" yaml:"raw,omitempty"`
	Pos token.Pos `json:"pos" yaml:"pos"`
}

// NewConstraint builds a constraint from attribute parts. It never fails;
// unknown types and malformed operands are reported by Validate.
func NewConstraint(name, op, value string, pos token.Pos) Constraint {
	c := Constraint{
		Type:  ConstraintType(strings.ToLower(name)),
		Op:    op,
		Limit: -1,
		Raw:   value,
		Pos:   pos,
	}
	if n, err := strconv.Atoi(value); err == nil {
		c.Limit = n
	}
	return c
}

// String renders the constraint in attribute form, e.g. "length < 10".
func (c Constraint) String() string {
	if c.Op == "" {
		return string(c.Type)
	}
	return fmt.Sprintf("%s %s %s", c.Type, c.Op, c.Raw)
}

// Message describes what a passing value looks like.
func (c Constraint) Message() string {
	switch c.Type {
	case ConstraintLength:
		switch c.Op {
		case OpLess:
			return fmt.Sprintf("length must be less than %d", c.Limit)
		case OpLessEq:
			return fmt.Sprintf("length must be at most %d", c.Limit)
		case OpGreater:
			return fmt.Sprintf("length must be greater than %d", c.Limit)
		case OpGreaterEq:
			return fmt.Sprintf("length must be at least %d", c.Limit)
		case OpEqual:
			return fmt.Sprintf("length must be exactly %d", c.Limit)
		}
	case ConstraintNotEmpty:
		return "must not be empty"
	}
	return "must satisfy " + c.String()
}

// Compare applies the constraint's operator to n and the limit.
func (c Constraint) Compare(n int) bool {
	switch c.Op {
	case OpLess:
		return n < c.Limit
	case OpLessEq:
		return n <= c.Limit
	case OpGreater:
		return n > c.Limit
	case OpGreaterEq:
		return n >= c.Limit
	case OpEqual:
		return n == c.Limit
	}
	return false
}

// Check validates value against c. This is a PURE function.
func (c Constraint) Check(field, value string) *ConstraintError {
	switch c.Type {
	case ConstraintLength:
		n := utf8.RuneCountInString(value)
		if c.Compare(n) {
			return nil
		}
		return &ConstraintError{Field: field, Constraint: c.String(), Value: n, Message: c.Message()}
	case ConstraintNotEmpty:
		if strings.TrimSpace(value) != "" {
			return nil
		}
		return &ConstraintError{Field: field, Constraint: c.String(), Value: value, Message: c.Message()}
	}
	return nil
}

// IsComparisonOp reports whether op is accepted by length constraints.
func IsComparisonOp(op string) bool {
	switch op {
	case OpLess, OpLessEq, OpGreater, OpGreaterEq, OpEqual:
		return true
	}
	return false
}

// ConstraintError represents a validation failure.
type ConstraintError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value,omitempty"`
	Message    string `json:"message"`
}

func (e ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a record.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ConstraintError `json:"errors,omitempty"`
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, constraint string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ConstraintError{
		Field:      field,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
}

// Error returns a combined error message.
func (r ValidationResult) Error() string {
	if r.Valid {
		return ""
	}
	var msgs []string
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// CheckRecord validates record against the constrained fields of e without
// compiling CEL programs. Fields missing from record are checked as "".
func CheckRecord(e Entity, record map[string]string) ValidationResult {
	result := ValidationResult{Valid: true}
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := e.Field(name); !ok {
			result.AddError(name, "unknown", nil, fmt.Sprintf("is not a field of %s", e.Name))
		}
	}
	for _, f := range e.Fields {
		for _, c := range f.Constraints {
			if cerr := c.Check(f.Name, record[f.Name]); cerr != nil {
				result.AddError(cerr.Field, cerr.Constraint, cerr.Value, cerr.Message)
			}
		}
	}
	return result
}
