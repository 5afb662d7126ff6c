package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/artpar/datalang/app"
	"github.com/artpar/datalang/core/compiler"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/pkg/jsonapi"
)

var kindTitles = map[diagnostic.Kind]string{
	diagnostic.InvalidSyntax:         "Invalid Syntax",
	diagnostic.MissingIdentifier:     "Missing Identifier",
	diagnostic.UnexpectedToken:       "Unexpected Token",
	diagnostic.InvalidFieldReference: "Invalid Field Reference",
	diagnostic.InvalidKeyword:        "Invalid Keyword",
	diagnostic.StructuralError:       "Structural Error",
	diagnostic.UnknownNamespace:      "Unknown Namespace",
}

// diagnosticError converts a compilation error to a JSON:API error. Position
// and per-kind details are carried in meta.
func diagnosticError(d *diagnostic.Error) jsonapi.Error {
	title, ok := kindTitles[d.Kind]
	if !ok {
		title = "Compilation Error"
	}
	b := jsonapi.NewError(http.StatusUnprocessableEntity, string(d.Kind), title).
		Detail(d.Detail()).
		Pointer("/source")
	if d.Pos.IsValid() {
		b.Meta("line", d.Pos.Line).Meta("column", d.Pos.Column)
	}
	return b.Meta("keyword", d.Keyword).
		Meta("suggestion", d.Suggestion).
		Meta("field", d.Field).
		Meta("reason", d.Reason).
		Meta("context", d.Context).
		Meta("namespace", d.Namespace).
		Build()
}

// errorsFor maps a service error to the JSON:API errors returned to clients.
func errorsFor(err error) []jsonapi.Error {
	if diags := diagnostic.Errors(err); len(diags) > 0 {
		out := make([]jsonapi.Error, len(diags))
		for i, d := range diags {
			out[i] = diagnosticError(d)
		}
		return out
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return []jsonapi.Error{jsonapi.ErrPayloadTooLarge(tooLarge.Limit)}
	case errors.Is(err, app.ErrSourceTooLarge):
		return []jsonapi.Error{jsonapi.NewError(http.StatusRequestEntityTooLarge, jsonapi.CodePayloadTooLarge, "Payload Too Large").
			Detail(err.Error()).Build()}
	case errors.Is(err, app.ErrUnknownEntity):
		return []jsonapi.Error{jsonapi.NewError(http.StatusNotFound, "unknown_entity", "Unknown Entity").
			Detail(err.Error()).Build()}
	case errors.Is(err, compiler.ErrUnknownTarget):
		return []jsonapi.Error{jsonapi.ErrInvalidParameter("target", err.Error())}
	case errors.Is(err, emit.ErrInvalidPackage):
		return []jsonapi.Error{jsonapi.ErrInvalidParameter("package", err.Error())}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return []jsonapi.Error{jsonapi.NewError(http.StatusServiceUnavailable, "canceled", "Request Canceled").
			Detail(err.Error()).Build()}
	}
	return []jsonapi.Error{jsonapi.NewError(http.StatusUnprocessableEntity, "emit_failed", "Generation Failed").
		Detail(err.Error()).Build()}
}

// writeServiceError writes err with the compile ID and notices of res, if any.
func writeServiceError(w http.ResponseWriter, res *app.Result, err error) {
	var meta jsonapi.Meta
	if res != nil {
		meta = jsonapi.Meta{"compile_id": res.ID}
		if len(res.Notices) > 0 {
			meta["notices"] = res.Notices
		}
	}
	jsonapi.WriteErrors(w, meta, errorsFor(err)...)
}
