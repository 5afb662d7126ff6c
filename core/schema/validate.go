package schema

import (
	"fmt"

	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/token"
)

// Validate checks a resolved schema and returns every violation found as a
// diagnostic.List, or nil.
func Validate(s *Schema) error {
	var errs diagnostic.List

	for i, name := range s.Dictionaries {
		if name == "" {
			errs = append(errs, diagnostic.Structural(token.Pos{}, "dictionary", fmt.Sprintf("declaration %d has an empty name", i+1)))
		}
	}
	for i, name := range s.Imports {
		if name == "" {
			errs = append(errs, diagnostic.Structural(token.Pos{}, "import", fmt.Sprintf("declaration %d has an empty module name", i+1)))
		}
	}

	seen := make(map[string]bool, len(s.Entities))
	for _, e := range s.Entities {
		switch {
		case e.Name == "":
			errs = append(errs, diagnostic.Structural(e.Pos, string(e.Kind), "entity name is required"))
			continue
		case !isValidIdentifier(e.Name):
			errs = append(errs, diagnostic.Structural(e.Pos, subject(e), fmt.Sprintf("name %q is not a valid identifier", e.Name)))
		}
		if seen[e.Name] {
			errs = append(errs, diagnostic.Structural(e.Pos, subject(e), fmt.Sprintf("duplicate entity name %q", e.Name)))
		}
		seen[e.Name] = true

		errs = append(errs, validateFields(e)...)
	}

	return errs.Err()
}

func validateFields(e Entity) diagnostic.List {
	var errs diagnostic.List
	fields := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Name == "" {
			errs = append(errs, diagnostic.Structural(f.Pos, subject(e), "field name is required"))
			continue
		}
		if !isValidIdentifier(f.Name) {
			errs = append(errs, diagnostic.Structural(f.Pos, subject(e), fmt.Sprintf("field name %q is not a valid identifier", f.Name)))
		}
		if fields[f.Name] {
			errs = append(errs, diagnostic.Structural(f.Pos, subject(e), fmt.Sprintf("duplicate field %q", f.Name)))
		}
		fields[f.Name] = true

		for _, c := range f.Constraints {
			if issue := validateConstraint(c); issue != "" {
				errs = append(errs, diagnostic.Structural(c.Pos, fmt.Sprintf("%s field %s", subject(e), f.Name), issue))
			}
		}
	}
	return errs
}

func validateConstraint(c Constraint) string {
	switch c.Type {
	case ConstraintLength:
		if !IsComparisonOp(c.Op) {
			return fmt.Sprintf("length constraint requires a comparison operator, got %q", c.Op)
		}
		if c.Limit < 0 {
			return fmt.Sprintf("length limit %q must be a non-negative integer", c.Raw)
		}
	case ConstraintNotEmpty:
		if c.Op != "" || c.Raw != "" {
			return "not_empty takes no operand"
		}
	default:
		return fmt.Sprintf("unknown constraint %q", c.Type)
	}
	return ""
}

func subject(e Entity) string {
	return fmt.Sprintf("%s %s", e.Kind, e.Name)
}

// isValidIdentifier checks if a string is a valid DataLang identifier.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, c := range s {
		if i == 0 {
			if !isLetter(c) && c != '_' {
				return false
			}
		} else {
			if !isLetter(c) && !isDigit(c) && c != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}
