// Package ports defines the interfaces the compiler host depends on.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// Clock provides the current time. Injected so compile timings are testable.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates identifiers for compilation runs.
type IDGenerator interface {
	New() string
}

// SourceFile is a single DataLang document read from disk.
type SourceFile struct {
	Path    string
	Content string
	ModTime time.Time
}

// SourceLoader resolves file paths or glob patterns into DataLang sources.
type SourceLoader interface {
	Load(ctx context.Context, patterns ...string) ([]SourceFile, error)
}

// CompileRecorder receives the outcome of every compilation.
type CompileRecorder interface {
	// ObserveCompile records one compilation. target is empty for
	// compile-only runs; kind is empty when the compilation succeeded.
	ObserveCompile(target, kind string, elapsed time.Duration)

	// ObserveNotice records an informational or warning notice.
	ObserveNotice(level string)
}
