// Package http exposes the DataLang compiler as a JSON:API HTTP service.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/datalang/app"
	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/pkg/jsonapi"
)

// Resource types returned by the API.
const (
	typeSchema     = "schemas"
	typeValidation = "validations"
	typeTarget     = "targets"
)

// jsonOverhead is added to the source limit for validate bodies, which wrap
// the source in JSON alongside a record.
const jsonOverhead = 64 << 10

// ValidateRequest is the body of POST /api/v1/validate/{entity}. A partial
// request only checks the fields present in Record.
type ValidateRequest struct {
	Source  string            `json:"source"`
	Record  map[string]string `json:"record"`
	Partial bool              `json:"partial,omitempty"`
}

// CompileHandler serves compile, generate and validate requests.
type CompileHandler struct {
	service *app.CompileService
	logger  zerolog.Logger
}

// NewCompileHandler creates a new compile handler.
func NewCompileHandler(service *app.CompileService, logger zerolog.Logger) *CompileHandler {
	return &CompileHandler{
		service: service,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

// Compile handles POST /api/v1/compile. The body is DataLang source.
func (h *CompileHandler) Compile(w http.ResponseWriter, r *http.Request) {
	src, err := h.readSource(w, r)
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}

	res, err := h.service.Compile(r.Context(), app.Request{Name: "request", Source: src})
	if err != nil {
		writeServiceError(w, res, err)
		return
	}

	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource(typeSchema, res.ID, map[string]any{
		"entities":     res.Schema.Entities,
		"dictionaries": res.Schema.Dictionaries,
		"imports":      res.Schema.Imports,
	}), resultMeta(res))
}

// Generate handles POST /api/v1/generate?target=&package=. The generated
// text is returned as-is; errors are JSON:API documents.
func (h *CompileHandler) Generate(w http.ResponseWriter, r *http.Request) {
	src, err := h.readSource(w, r)
	if err != nil {
		writeServiceError(w, nil, err)
		return
	}

	q := r.URL.Query()
	res, err := h.service.Generate(r.Context(), app.Request{
		Name:    "request",
		Source:  src,
		Target:  q.Get("target"),
		Package: q.Get("package"),
	})
	if err != nil {
		writeServiceError(w, res, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(res.Target))
	w.Header().Set("X-Compile-ID", res.ID)
	w.Header().Set("X-DataLang-Target", res.Target)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Output)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Output); err != nil {
		h.logger.Error().Err(err).Str("compile_id", res.ID).Msg("failed to write generated output")
	}
}

// Validate handles POST /api/v1/validate/{entity}.
func (h *CompileHandler) Validate(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	if ct := r.Header.Get("Content-Type"); ct != "" && !isJSON(ct) {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusUnsupportedMediaType, "unsupported_media_type", "").
			Detailf("expected a JSON body, got %s", ct).
			Header("Content-Type").
			Build())
		return
	}

	limit := h.service.Settings().MaxSourceBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+jsonOverhead)
	}
	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, nil, err)
			return
		}
		jsonapi.WriteError(w, jsonapi.ErrBadRequest("invalid JSON body: "+err.Error()))
		return
	}

	res, result, err := h.service.Validate(r.Context(), app.Request{Name: "request", Source: body.Source}, entity, body.Record, body.Partial)
	if err != nil {
		writeServiceError(w, res, err)
		return
	}

	errs := result.Errors
	if errs == nil {
		errs = []schema.ConstraintError{}
	}
	jsonapi.WriteResource(w, http.StatusOK, jsonapi.NewResource(typeValidation, res.ID, map[string]any{
		"entity":  entity,
		"partial": body.Partial,
		"valid":   result.Valid,
		"errors":  errs,
	}), resultMeta(res))
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || mt == jsonapi.ContentType || strings.HasSuffix(mt, "+json")
}

// Targets handles GET /api/v1/targets.
func (h *CompileHandler) Targets(w http.ResponseWriter, r *http.Request) {
	targets := h.service.Targets()
	resources := make([]jsonapi.Resource, 0, len(targets))
	for _, t := range targets {
		resources = append(resources, jsonapi.NewResource(typeTarget, t.Name, map[string]any{
			"description": t.Description,
			"extension":   t.Extension,
			"default":     t.Default,
		}))
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, nil)
}

// readSource reads the request body as DataLang source, bounded by the
// configured source limit.
func (h *CompileHandler) readSource(w http.ResponseWriter, r *http.Request) (string, error) {
	if limit := h.service.Settings().MaxSourceBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func resultMeta(res *app.Result) jsonapi.Meta {
	meta := jsonapi.Meta{
		"compile_id": res.ID,
		"elapsed_ms": float64(res.Elapsed.Microseconds()) / 1000,
	}
	if len(res.Notices) > 0 {
		meta["notices"] = res.Notices
	}
	return meta
}

func contentTypeFor(target string) string {
	switch target {
	case "json":
		return "application/json"
	case "yaml", "celrules":
		return "application/yaml"
	}
	return "text/plain; charset=utf-8"
}
