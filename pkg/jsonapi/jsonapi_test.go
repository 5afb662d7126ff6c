package jsonapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteResource(t *testing.T) {
	w := httptest.NewRecorder()
	WriteResource(w, http.StatusOK, NewResource("schemas", "c1", map[string]any{"entities": 2}), Meta{"elapsed_ms": 1})

	if got := w.Header().Get("Content-Type"); got != ContentType {
		t.Errorf("Content-Type = %v, want %v", got, ContentType)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var doc struct {
		Data    Resource `json:"data"`
		Meta    Meta     `json:"meta"`
		JSONAPI JSONAPI  `json:"jsonapi"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Data.Type != "schemas" || doc.Data.ID != "c1" {
		t.Errorf("Data = %+v, want schemas/c1", doc.Data)
	}
	if doc.Data.Attributes["entities"] != float64(2) {
		t.Errorf("Attributes[entities] = %v, want 2", doc.Data.Attributes["entities"])
	}
	if doc.JSONAPI.Version != Version {
		t.Errorf("jsonapi.version = %s, want %s", doc.JSONAPI.Version, Version)
	}
}

func TestWriteCollection_NilIsEmptyArray(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCollection(w, http.StatusOK, nil, nil)

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if string(doc["data"]) != "[]" {
		t.Errorf("data = %s, want []", doc["data"])
	}
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name       string
		errs       []Error
		wantStatus int
		wantCode   string
	}{
		{"bad request", []Error{ErrBadRequest("empty body")}, 400, "bad_request"},
		{"parameter", []Error{ErrInvalidParameter("target", "unknown")}, 400, "invalid_parameter"},
		{"not found", []Error{ErrNotFound("entity")}, 404, "not_found"},
		{"method", []Error{ErrMethodNotAllowed("GET")}, 405, "method_not_allowed"},
		{"too large", []Error{ErrPayloadTooLarge(10)}, 413, "payload_too_large"},
		{"same status", []Error{unprocessable("invalid_keyword"), unprocessable("structural_error")}, 422, "invalid_keyword"},
		{"mixed client", []Error{unprocessable("invalid_keyword"), ErrNotFound("entity")}, 400, "invalid_keyword"},
		{"none", nil, 500, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteErrors(w, Meta{"compile_id": "c1"}, tt.errs...)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			var doc Document
			if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(doc.Errors) == 0 || doc.Errors[0].Code != tt.wantCode {
				t.Errorf("Errors = %+v, want first code %s", doc.Errors, tt.wantCode)
			}
			if doc.Data != nil {
				t.Errorf("Data = %v, want nil alongside errors", doc.Data)
			}
			if doc.Meta["compile_id"] != "c1" {
				t.Errorf("Meta = %v, want compile_id", doc.Meta)
			}
		})
	}
}

func unprocessable(code string) Error {
	return NewError(http.StatusUnprocessableEntity, code, "").Build()
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		errs []Error
		want int
	}{
		{"empty", nil, 500},
		{"single", []Error{ErrNotFound("x")}, 404},
		{"client mix", []Error{ErrNotFound("x"), ErrMethodNotAllowed("GET")}, 400},
		{"server mix", []Error{ErrNotFound("x"), ErrInternal("")}, 500},
		{"unset", []Error{{Code: "x"}}, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.errs); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewError_DefaultTitle(t *testing.T) {
	if got := unprocessable("x").Title; got != "Unprocessable Entity" {
		t.Errorf("Title = %q, want Unprocessable Entity", got)
	}
	e := NewError(http.StatusBadRequest, CodeBadRequest, "").Header("Content-Type").Build()
	if e.Source == nil || e.Source.Header != "Content-Type" {
		t.Errorf("Source = %+v, want header Content-Type", e.Source)
	}
}

func TestErrorBuilder(t *testing.T) {
	e := NewError(422, "invalid_keyword", "Invalid Keyword").
		Detailf("keyword %s", "fn").
		ID("c1").
		Pointer("/source").
		Meta("line", 1).
		Meta("suggestion", "").
		Build()

	if e.StatusCode() != 422 {
		t.Errorf("StatusCode() = %d, want 422", e.StatusCode())
	}
	if e.Detail != "keyword fn" {
		t.Errorf("Detail = %q", e.Detail)
	}
	if e.Source == nil || e.Source.Pointer != "/source" {
		t.Errorf("Source = %+v", e.Source)
	}
	if _, ok := e.Meta["suggestion"]; ok {
		t.Error("empty string meta should be skipped")
	}
	if e.Meta["line"] != 1 {
		t.Errorf("Meta[line] = %v, want 1", e.Meta["line"])
	}
}

func TestErrInternal_DefaultDetail(t *testing.T) {
	if ErrInternal("").Detail == "" {
		t.Error("ErrInternal should supply a default detail")
	}
}
