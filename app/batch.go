package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artpar/datalang/adapters/source"
	"github.com/artpar/datalang/ports"
)

// ErrOutputConflict is returned for a batch source that maps to the same
// output file as an earlier source.
var ErrOutputConflict = errors.New("output path conflict")

// FileResult is the outcome of compiling one file in a batch.
type FileResult struct {
	File   ports.SourceFile
	Result *Result
	Err    error

	// OutputPath is set when the generated output was written to disk.
	OutputPath string
}

// BatchOptions controls GenerateFiles.
type BatchOptions struct {
	Target  string
	Package string

	// OutDir receives one generated file per source. Empty means the output
	// is kept in memory only.
	OutDir string

	// BaseDir is stripped from source paths when mapping them into OutDir.
	// Empty means the deepest directory holding every loaded source.
	BaseDir string
}

// Batch compiles DataLang files through a CompileService.
type Batch struct {
	service *CompileService
	loader  ports.SourceLoader
}

// NewBatch creates a batch runner.
func NewBatch(service *CompileService, loader ports.SourceLoader) *Batch {
	return &Batch{service: service, loader: loader}
}

// Load resolves patterns through the configured loader.
func (b *Batch) Load(ctx context.Context, patterns ...string) ([]ports.SourceFile, error) {
	files, err := b.loader.Load(ctx, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	return files, nil
}

// CompileFiles compiles every file matched by patterns. A file that fails to
// compile does not stop the batch; its error is carried in its FileResult.
func (b *Batch) CompileFiles(ctx context.Context, patterns ...string) ([]FileResult, error) {
	files, err := b.Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}
	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		res, err := b.service.Compile(ctx, Request{Name: f.Path, Source: f.Content})
		results = append(results, FileResult{File: f, Result: res, Err: err})
	}
	return results, nil
}

// GenerateFiles generates code for every file matched by patterns, writing
// each output under opts.OutDir when it is set. A source whose output path
// was already written by an earlier source in the batch fails with
// ErrOutputConflict and writes nothing.
func (b *Batch) GenerateFiles(ctx context.Context, opts BatchOptions, patterns ...string) ([]FileResult, error) {
	ext, err := b.service.Extension(opts.Target)
	if err != nil {
		return nil, err
	}
	files, err := b.Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	baseDir := opts.BaseDir
	if baseDir == "" && opts.OutDir != "" {
		paths := make([]string, len(files))
		for i, f := range files {
			paths[i] = f.Path
		}
		baseDir = source.CommonDir(paths...)
	}
	claimed := make(map[string]string)

	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		fr := FileResult{File: f}
		fr.Result, fr.Err = b.service.Generate(ctx, Request{
			Name:    f.Path,
			Source:  f.Content,
			Target:  opts.Target,
			Package: opts.Package,
		})
		if fr.Err == nil && opts.OutDir != "" {
			out := source.OutputPath(f.Path, baseDir, opts.OutDir, ext)
			if prev, ok := claimed[out]; ok {
				fr.Err = fmt.Errorf("%w: %s is already generated from %s", ErrOutputConflict, out, prev)
			} else {
				claimed[out] = f.Path
				fr.OutputPath = out
				fr.Err = writeOutput(out, fr.Result.Output)
			}
		}
		results = append(results, fr)
	}
	return results, nil
}

// Failed counts results that carry an error.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
