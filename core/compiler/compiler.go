// Package compiler is the entry point for DataLang compilation: source text
// in, resolved and validated schema (or generated code) out.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/datalang/core/ast"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/emit"
	"github.com/artpar/datalang/core/parser"
	"github.com/artpar/datalang/core/resolve"
	"github.com/artpar/datalang/core/schema"

	// Register the source backends with emit.DefaultRegistry.
	_ "github.com/artpar/datalang/core/emit/celrules"
	_ "github.com/artpar/datalang/core/emit/golang"
)

// ErrUnknownTarget is returned by Generate for an unregistered target.
var ErrUnknownTarget = errors.New("unknown target")

// Option configures a compilation.
type Option func(*options)

type options struct {
	sink     diagnostic.Sink
	strict   bool
	registry *emit.Registry
	emit     emit.Options
}

// WithSink sets the receiver of informational notices.
func WithSink(s diagnostic.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithStrictReferences requires plain +Name/-Name directives to name a
// declared term or entity.
func WithStrictReferences(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithRegistry replaces emit.DefaultRegistry for Generate.
func WithRegistry(r *emit.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithPackage sets the package name of generated source.
func WithPackage(name string) Option {
	return func(o *options) { o.emit.Package = name }
}

func newOptions(opts []Option) *options {
	o := &options{
		sink:     diagnostic.Nop{},
		registry: emit.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sink == nil {
		o.sink = diagnostic.Nop{}
	}
	return o
}

// Compile parses, resolves and validates src. It has no side effects apart
// from notices sent to the configured sink.
func Compile(src string, opts ...Option) (*schema.Schema, error) {
	return compile(src, newOptions(opts))
}

func compile(src string, o *options) (*schema.Schema, error) {
	file, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	notifyDeclarations(o.sink, file)

	s, err := resolve.Resolve(file, resolve.Options{StrictReferences: o.strict, Sink: o.sink})
	if err != nil {
		return nil, err
	}

	if err := schema.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Generate compiles src and renders it with the named target. An empty
// target selects the registry default.
func Generate(src, target string, opts ...Option) ([]byte, error) {
	o := newOptions(opts)

	em, err := lookup(o.registry, target)
	if err != nil {
		return nil, err
	}

	s, err := compile(src, o)
	if err != nil {
		return nil, err
	}

	out, err := em.Emit(s, o.emit)
	if err != nil {
		return nil, fmt.Errorf("emit %s: %w", em.Name(), err)
	}
	return out, nil
}

// Emit renders an already compiled schema.
func Emit(s *schema.Schema, target string, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	em, err := lookup(o.registry, target)
	if err != nil {
		return nil, err
	}
	out, err := em.Emit(s, o.emit)
	if err != nil {
		return nil, fmt.Errorf("emit %s: %w", em.Name(), err)
	}
	return out, nil
}

func lookup(r *emit.Registry, target string) (emit.Emitter, error) {
	if target == "" {
		if em := r.Default(); em != nil {
			return em, nil
		}
		return nil, fmt.Errorf("%w: no targets registered", ErrUnknownTarget)
	}
	em, ok := r.Get(target)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTarget, target, strings.Join(r.List(), ", "))
	}
	return em, nil
}

func notifyDeclarations(sink diagnostic.Sink, file *ast.File) {
	for _, item := range file.Items {
		switch it := item.(type) {
		case *ast.Dictionary:
			sink.Notify(diagnostic.Notice{
				Level:   diagnostic.LevelInfo,
				Pos:     it.Pos,
				Subject: "dictionary " + it.Name,
				Message: "namespace declared",
			})
		case *ast.Import:
			sink.Notify(diagnostic.Notice{
				Level:   diagnostic.LevelInfo,
				Pos:     it.Pos,
				Subject: "import " + it.Module,
				Message: "module imported; references into it are not checked",
			})
		}
	}
}
