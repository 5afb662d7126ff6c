// Package jsonapi writes JSON:API (https://jsonapi.org) documents for the
// compile service.
package jsonapi

import (
	"encoding/json"
	"net/http"
)

const (
	// ContentType is the JSON:API media type.
	ContentType = "application/vnd.api+json"
	// Version is the JSON:API version advertised in every document.
	Version = "1.1"
)

// Meta holds non-standard information about a document, resource or error.
type Meta map[string]any

// Document is a top-level JSON:API document. Data and Errors never appear
// together.
type Document struct {
	Data    any      `json:"data,omitempty"`
	Errors  []Error  `json:"errors,omitempty"`
	Meta    Meta     `json:"meta,omitempty"`
	JSONAPI *JSONAPI `json:"jsonapi,omitempty"`
}

// JSONAPI is the version object.
type JSONAPI struct {
	Version string `json:"version"`
}

// Resource is a resource object. Compilation results have no relationships.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Meta       Meta           `json:"meta,omitempty"`
}

// NewResource creates a resource with the given attributes.
func NewResource(resourceType, id string, attrs map[string]any) Resource {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return Resource{Type: resourceType, ID: id, Attributes: attrs}
}

func newDocument(meta Meta) Document {
	return Document{Meta: meta, JSONAPI: &JSONAPI{Version: Version}}
}

// WriteDocument writes doc with the JSON:API content type.
func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}

// WriteResource writes a single resource.
func WriteResource(w http.ResponseWriter, status int, r Resource, meta Meta) {
	doc := newDocument(meta)
	doc.Data = r
	WriteDocument(w, status, doc)
}

// WriteCollection writes a list of resources. A nil slice is written as [].
func WriteCollection(w http.ResponseWriter, status int, resources []Resource, meta Meta) {
	if resources == nil {
		resources = []Resource{}
	}
	doc := newDocument(meta)
	doc.Data = resources
	WriteDocument(w, status, doc)
}

// WriteErrors writes one or more errors with the status from Status.
func WriteErrors(w http.ResponseWriter, meta Meta, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}
	doc := newDocument(meta)
	doc.Errors = errs
	WriteDocument(w, Status(errs), doc)
}

// WriteError writes a single error without metadata.
func WriteError(w http.ResponseWriter, err Error) {
	WriteErrors(w, nil, err)
}
