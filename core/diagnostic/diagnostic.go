// Package diagnostic defines the error taxonomy of the DataLang compiler and the
// informational notice channel that runs beside it.
//
// Errors are fatal to a compilation. Notices never are: they are appended to an
// optional Sink and do not change the outcome.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/artpar/datalang/core/token"
)

// Kind classifies a compilation error. A Kind is itself an error so callers can
// match with errors.Is(err, diagnostic.InvalidKeyword).
type Kind string

const (
	InvalidSyntax         Kind = "invalid_syntax"
	MissingIdentifier     Kind = "missing_identifier"
	UnexpectedToken       Kind = "unexpected_token"
	InvalidFieldReference Kind = "invalid_field_reference"
	InvalidKeyword        Kind = "invalid_keyword"
	StructuralError       Kind = "structural_error"
	UnknownNamespace      Kind = "unknown_namespace"
)

func (k Kind) Error() string {
	return string(k)
}

// Error is a single positional compilation error. Which of the detail fields
// are set depends on Kind.
type Error struct {
	Kind Kind      `json:"kind"`
	Pos  token.Pos `json:"pos"`

	// Message is used by InvalidSyntax, MissingIdentifier and UnexpectedToken.
	Message string `json:"message,omitempty"`

	// Field and Reason are used by InvalidFieldReference.
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`

	// Keyword and Suggestion are used by InvalidKeyword.
	Keyword    string `json:"keyword,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`

	// Context and Issue are used by StructuralError.
	Context string `json:"context,omitempty"`
	Issue   string `json:"issue,omitempty"`

	// Namespace is used by UnknownNamespace.
	Namespace string `json:"namespace,omitempty"`
}

// Detail renders the error without its position.
func (e *Error) Detail() string {
	switch e.Kind {
	case InvalidSyntax:
		return "Invalid syntax: " + e.Message
	case UnexpectedToken:
		return "Unexpected token: " + e.Message
	case MissingIdentifier:
		return "Missing identifier: " + e.Message
	case InvalidFieldReference:
		return fmt.Sprintf("Invalid field reference '%s': %s", e.Field, e.Reason)
	case InvalidKeyword:
		if e.Suggestion != "" {
			return fmt.Sprintf("Invalid keyword '%s'. Did you mean '%s'?", e.Keyword, e.Suggestion)
		}
		return fmt.Sprintf("Invalid keyword '%s' is not a valid DataLang construct", e.Keyword)
	case StructuralError:
		return fmt.Sprintf("Structural error in %s: %s", e.Context, e.Issue)
	case UnknownNamespace:
		if e.Field != "" {
			return fmt.Sprintf("Unknown namespace '%s' in field reference '%s::%s'", e.Namespace, e.Namespace, e.Field)
		}
		return fmt.Sprintf("Unknown namespace '%s'", e.Namespace)
	default:
		return string(e.Kind) + ": " + e.Message
	}
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Detail()
	}
	return e.Detail()
}

// Is matches an Error against its Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Syntaxf builds an InvalidSyntax error.
func Syntaxf(pos token.Pos, format string, args ...any) *Error {
	return &Error{Kind: InvalidSyntax, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Missing builds a MissingIdentifier error.
func Missing(pos token.Pos, msg string) *Error {
	return &Error{Kind: MissingIdentifier, Pos: pos, Message: msg}
}

// Unexpectedf builds an UnexpectedToken error.
func Unexpectedf(pos token.Pos, format string, args ...any) *Error {
	return &Error{Kind: UnexpectedToken, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// FieldRef builds an InvalidFieldReference error.
func FieldRef(pos token.Pos, field, reason string) *Error {
	return &Error{Kind: InvalidFieldReference, Pos: pos, Field: field, Reason: reason}
}

// Keyword builds an InvalidKeyword error. suggestion may be empty.
func Keyword(pos token.Pos, keyword, suggestion string) *Error {
	return &Error{Kind: InvalidKeyword, Pos: pos, Keyword: keyword, Suggestion: suggestion}
}

// Structural builds a StructuralError.
func Structural(pos token.Pos, context, issue string) *Error {
	return &Error{Kind: StructuralError, Pos: pos, Context: context, Issue: issue}
}

// Namespace builds an UnknownNamespace error for ns::field.
func Namespace(pos token.Pos, ns, field string) *Error {
	return &Error{Kind: UnknownNamespace, Pos: pos, Namespace: ns, Field: field}
}

// List aggregates the errors found in a single validation pass.
type List []*Error

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors:\n  - %s", len(l), strings.Join(msgs, "\n  - "))
}

// Unwrap exposes every error to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Err returns nil for an empty list, the sole error for a list of one, and the
// list itself otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	}
	return l
}

// Errors flattens err into its positional errors. Errors that are not
// diagnostics are returned as nil.
func Errors(err error) []*Error {
	switch e := err.(type) {
	case nil:
		return nil
	case *Error:
		return []*Error{e}
	case List:
		return e
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return Errors(u.Unwrap())
	}
	return nil
}
