// Package app provides application services that orchestrate the compiler core.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/datalang/adapters/clock"
	"github.com/artpar/datalang/adapters/idgen"
	"github.com/artpar/datalang/core/compiler"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/schema"
	"github.com/artpar/datalang/core/validation"
	"github.com/artpar/datalang/ports"
)

var (
	// ErrSourceTooLarge is returned when a source exceeds Settings.MaxSourceBytes.
	ErrSourceTooLarge = errors.New("source too large")

	// ErrUnknownEntity is returned by Validate for an entity the schema does
	// not define.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Failure kinds recorded for errors that are not diagnostics.
const (
	kindTooLarge      = "source_too_large"
	kindUnknownTarget = "unknown_target"
	kindEmit          = "emit_failed"
	kindCanceled      = "canceled"
)

// Settings are the compiler defaults the service applies to every request.
type Settings struct {
	StrictReferences bool
	DefaultTarget    string
	Package          string
	MaxSourceBytes   int64
}

// Request is a single compilation.
type Request struct {
	// Name identifies the source in logs, typically its file path.
	Name   string
	Source string

	// Target and Package override Settings when set.
	Target  string
	Package string
}

// Result describes a compilation. It is returned even when compilation
// fails so the caller can report the ID and any notices.
type Result struct {
	ID      string              `json:"compile_id"`
	Name    string              `json:"name,omitempty"`
	Target  string              `json:"target,omitempty"`
	Schema  *schema.Schema      `json:"schema,omitempty"`
	Output  []byte              `json:"-"`
	Notices []diagnostic.Notice `json:"notices,omitempty"`
	Started time.Time           `json:"started"`
	Elapsed time.Duration       `json:"elapsed"`
}

// TargetInfo describes a registered emitter.
type TargetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	Default     bool   `json:"default"`
}

// CompileService runs compilations with the current settings, recording
// metrics and logging each outcome.
type CompileService struct {
	registry *emit.Registry
	recorder ports.CompileRecorder
	ids      ports.IDGenerator
	clock    ports.Clock
	logger   zerolog.Logger

	settings atomic.Pointer[Settings]
}

// CompileServiceConfig contains the dependencies of CompileService.
// Nil fields fall back to working defaults.
type CompileServiceConfig struct {
	Registry *emit.Registry
	Recorder ports.CompileRecorder
	IDs      ports.IDGenerator
	Clock    ports.Clock
}

// NewCompileService creates a compile service. settings must name a
// registered default target.
func NewCompileService(settings Settings, cfg CompileServiceConfig, logger zerolog.Logger) (*CompileService, error) {
	if cfg.Registry == nil {
		cfg.Registry = emit.DefaultRegistry
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.IDs == nil {
		cfg.IDs = idgen.UUID{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}

	s := &CompileService{
		registry: cfg.Registry,
		recorder: cfg.Recorder,
		ids:      cfg.IDs,
		clock:    cfg.Clock,
		logger:   logger.With().Str("service", "compile").Logger(),
	}
	if err := s.Update(settings); err != nil {
		return nil, err
	}
	return s, nil
}

// Update swaps the settings used by subsequent requests.
func (s *CompileService) Update(settings Settings) error {
	if settings.DefaultTarget != "" {
		if _, ok := s.registry.Get(settings.DefaultTarget); !ok {
			return fmt.Errorf("%w %q", compiler.ErrUnknownTarget, settings.DefaultTarget)
		}
	}
	s.settings.Store(&settings)
	s.logger.Debug().
		Bool("strict_references", settings.StrictReferences).
		Str("default_target", settings.DefaultTarget).
		Str("package", settings.Package).
		Msg("compiler settings applied")
	return nil
}

// Settings returns the settings currently in effect.
func (s *CompileService) Settings() Settings {
	return *s.settings.Load()
}

// Compile parses, resolves and validates the request source.
func (s *CompileService) Compile(ctx context.Context, req Request) (*Result, error) {
	return s.run(ctx, req, false)
}

// Generate compiles the request source and renders it with the requested
// target, or the default target when none is named.
func (s *CompileService) Generate(ctx context.Context, req Request) (*Result, error) {
	return s.run(ctx, req, true)
}

// Validate compiles the request source and checks record against entity.
// A partial check skips fields absent from record.
func (s *CompileService) Validate(ctx context.Context, req Request, entity string, record map[string]string, partial bool) (*Result, schema.ValidationResult, error) {
	res, err := s.Compile(ctx, req)
	if err != nil {
		return res, schema.ValidationResult{}, err
	}
	if _, ok := res.Schema.Entity(entity); !ok {
		return res, schema.ValidationResult{}, fmt.Errorf("%w '%s'", ErrUnknownEntity, entity)
	}
	v, err := validation.New(res.Schema)
	if err != nil {
		return res, schema.ValidationResult{}, fmt.Errorf("build validator: %w", err)
	}
	if partial {
		return res, v.ValidatePartial(entity, record), nil
	}
	return res, v.Validate(entity, record), nil
}

// Targets lists the registered emitters in name order.
func (s *CompileService) Targets() []TargetInfo {
	def := s.defaultTarget()
	names := s.registry.List()
	out := make([]TargetInfo, 0, len(names))
	for _, name := range names {
		em, _ := s.registry.Get(name)
		out = append(out, TargetInfo{
			Name:        em.Name(),
			Description: em.Description(),
			Extension:   em.Extension(),
			Default:     name == def,
		})
	}
	return out
}

// Extension returns the output file extension of target, or of the default
// target when target is empty.
func (s *CompileService) Extension(target string) (string, error) {
	if target == "" {
		target = s.defaultTarget()
	}
	em, ok := s.registry.Get(target)
	if !ok {
		return "", fmt.Errorf("%w %q", compiler.ErrUnknownTarget, target)
	}
	return em.Extension(), nil
}

func (s *CompileService) defaultTarget() string {
	if t := s.Settings().DefaultTarget; t != "" {
		return t
	}
	if em := s.registry.Default(); em != nil {
		return em.Name()
	}
	return ""
}

func (s *CompileService) run(ctx context.Context, req Request, generate bool) (*Result, error) {
	settings := s.Settings()
	sw := clock.Start(s.clock.Now)

	res := &Result{
		ID:      s.ids.New(),
		Name:    req.Name,
		Started: sw.Started(),
	}
	if generate {
		res.Target = req.Target
		if res.Target == "" {
			res.Target = s.defaultTarget()
		}
	}

	logger := s.logger.With().Str("compile_id", res.ID).Str("source", req.Name).Logger()
	notices := diagnostic.NewCollector()

	err := s.execute(ctx, req, settings, res, notices, generate, logger)

	res.Notices = notices.Notices()
	res.Elapsed = sw.Elapsed()
	for _, n := range res.Notices {
		s.recorder.ObserveNotice(n.Level.String())
	}
	s.recorder.ObserveCompile(res.Target, failureKind(err), res.Elapsed)

	if err != nil {
		logger.Debug().Err(err).Dur("elapsed", res.Elapsed).Msg("compilation failed")
		return res, err
	}
	logger.Debug().
		Str("target", res.Target).
		Int("entities", len(res.Schema.Entities)).
		Dur("elapsed", res.Elapsed).
		Msg("compilation succeeded")
	return res, nil
}

func (s *CompileService) execute(
	ctx context.Context,
	req Request,
	settings Settings,
	res *Result,
	notices *diagnostic.Collector,
	generate bool,
	logger zerolog.Logger,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if settings.MaxSourceBytes > 0 && int64(len(req.Source)) > settings.MaxSourceBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrSourceTooLarge, len(req.Source), settings.MaxSourceBytes)
	}

	pkg := req.Package
	if pkg == "" {
		pkg = settings.Package
	}
	opts := []compiler.Option{
		compiler.WithSink(tee{notices, diagnostic.NewLogSink(logger)}),
		compiler.WithStrictReferences(settings.StrictReferences),
		compiler.WithRegistry(s.registry),
		compiler.WithPackage(pkg),
	}

	if !generate {
		sch, err := compiler.Compile(req.Source, opts...)
		if err != nil {
			return err
		}
		res.Schema = sch
		return nil
	}

	// Resolve the target before compiling so an unknown target is reported
	// even for invalid source.
	if _, err := s.Extension(res.Target); err != nil {
		return err
	}
	sch, err := compiler.Compile(req.Source, opts...)
	if err != nil {
		return err
	}
	res.Schema = sch
	out, err := compiler.Emit(sch, res.Target, opts...)
	if err != nil {
		return err
	}
	res.Output = out
	return nil
}

// failureKind labels err for metrics. Empty means success.
func failureKind(err error) string {
	if err == nil {
		return ""
	}
	if diags := diagnostic.Errors(err); len(diags) > 0 {
		return string(diags[0].Kind)
	}
	switch {
	case errors.Is(err, ErrSourceTooLarge):
		return kindTooLarge
	case errors.Is(err, compiler.ErrUnknownTarget):
		return kindUnknownTarget
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return kindCanceled
	}
	return kindEmit
}

// tee forwards notices to several sinks.
type tee []diagnostic.Sink

func (t tee) Notify(n diagnostic.Notice) {
	for _, s := range t {
		s.Notify(n)
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveCompile(string, string, time.Duration) {}
func (nopRecorder) ObserveNotice(string) {}
