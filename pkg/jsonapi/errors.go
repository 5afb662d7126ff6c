package jsonapi

import (
	"fmt"
	"net/http"
	"strconv"
)

// Error codes shared by the compile service.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidParameter = "invalid_parameter"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodePayloadTooLarge  = "payload_too_large"
	CodeInternal         = "internal_error"
)

// Error is a JSON:API error object.
type Error struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource names the part of the request an error is about.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Header    string `json:"header,omitempty"`
}

// StatusCode returns the HTTP status as an int, or 0 if it is unset.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

// Status picks the response status for a set of errors: their common status
// when they agree, 400 when they are all client errors, 500 otherwise.
func Status(errs []Error) int {
	if len(errs) == 0 {
		return http.StatusInternalServerError
	}
	first := errs[0].StatusCode()
	same, client := true, true
	for _, e := range errs {
		code := e.StatusCode()
		if code != first {
			same = false
		}
		if code < 400 || code > 499 {
			client = false
		}
	}
	switch {
	case same && first != 0:
		return first
	case client:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ErrorBuilder assembles an Error.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error. An empty title defaults to the status text.
func NewError(status int, code, title string) *ErrorBuilder {
	if title == "" {
		title = http.StatusText(status)
	}
	return &ErrorBuilder{err: Error{Status: strconv.Itoa(status), Code: code, Title: title}}
}

func (b *ErrorBuilder) Detail(detail string) *ErrorBuilder {
	b.err.Detail = detail
	return b
}

func (b *ErrorBuilder) Detailf(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

func (b *ErrorBuilder) ID(id string) *ErrorBuilder {
	b.err.ID = id
	return b
}

func (b *ErrorBuilder) source() *ErrorSource {
	if b.err.Source == nil {
		b.err.Source = &ErrorSource{}
	}
	return b.err.Source
}

// Pointer names a member of the request document, e.g. "/record/name".
func (b *ErrorBuilder) Pointer(pointer string) *ErrorBuilder {
	b.source().Pointer = pointer
	return b
}

// Parameter names the offending query parameter.
func (b *ErrorBuilder) Parameter(param string) *ErrorBuilder {
	b.source().Parameter = param
	return b
}

// Header names the offending request header.
func (b *ErrorBuilder) Header(name string) *ErrorBuilder {
	b.source().Header = name
	return b
}

// Meta sets a meta member. Empty strings are skipped so per-kind details
// can be added unconditionally.
func (b *ErrorBuilder) Meta(key string, value any) *ErrorBuilder {
	if s, ok := value.(string); ok && s == "" {
		return b
	}
	if b.err.Meta == nil {
		b.err.Meta = make(Meta)
	}
	b.err.Meta[key] = value
	return b
}

func (b *ErrorBuilder) Build() Error {
	return b.err
}

func ErrBadRequest(detail string) Error {
	return NewError(http.StatusBadRequest, CodeBadRequest, "").Detail(detail).Build()
}

// ErrInvalidParameter reports a bad query parameter.
func ErrInvalidParameter(param, detail string) Error {
	return NewError(http.StatusBadRequest, CodeInvalidParameter, "Invalid Parameter").
		Detail(detail).
		Parameter(param).
		Build()
}

func ErrNotFound(what string) Error {
	return NewError(http.StatusNotFound, CodeNotFound, "").
		Detailf("The requested %s was not found", what).
		Build()
}

func ErrMethodNotAllowed(method string) Error {
	return NewError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "").
		Detailf("The %s method is not allowed for this resource", method).
		Build()
}

// ErrPayloadTooLarge reports a body or source over limit bytes.
func ErrPayloadTooLarge(limit int64) Error {
	return NewError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Payload Too Large").
		Detailf("Source exceeds %d bytes", limit).
		Build()
}

func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return NewError(http.StatusInternalServerError, CodeInternal, "").Detail(detail).Build()
}
