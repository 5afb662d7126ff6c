package diagnostic

import (
	"sync"

	"github.com/artpar/datalang/core/token"
	"github.com/rs/zerolog"
)

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "info"
}

// MarshalText renders the level by name in JSON and YAML output.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Notice is a non-fatal, advisory message emitted during compilation.
type Notice struct {
	Level   Level     `json:"level"`
	Pos     token.Pos `json:"pos"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
}

// Sink receives notices. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(n Notice)
}

// Nop discards every notice.
type Nop struct{}

// Notify implements Sink.
func (Nop) Notify(Notice) {}

// Collector keeps notices in memory, in arrival order.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Notify implements Sink.
func (c *Collector) Notify(n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Notices returns a copy of everything collected so far.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// LogSink writes notices to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a Sink that logs through logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements Sink.
func (s *LogSink) Notify(n Notice) {
	ev := s.logger.Info()
	if n.Level == LevelWarning {
		ev = s.logger.Warn()
	}
	ev.Str("subject", n.Subject).
		Str("pos", n.Pos.String()).
		Msg(n.Message)
}

var (
	_ Sink = Nop{}
	_ Sink = (*Collector)(nil)
	_ Sink = (*LogSink)(nil)
)
