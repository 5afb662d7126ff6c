package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// settleDelay coalesces the burst of events editors produce for one save.
const settleDelay = 50 * time.Millisecond

// setting describes one config value for change tracking.
type setting struct {
	name       string
	reloadable bool
	value      func(*Config) string
}

var settings = []setting{
	{"compiler.strict_references", true, func(c *Config) string { return strconv.FormatBool(c.Compiler.StrictReferences) }},
	{"compiler.default_target", true, func(c *Config) string { return c.Compiler.DefaultTarget }},
	{"compiler.package", true, func(c *Config) string { return c.Compiler.Package }},
	{"compiler.max_source_bytes", true, func(c *Config) string { return strconv.FormatInt(c.Compiler.MaxSourceBytes, 10) }},
	{"logging.level", true, func(c *Config) string { return c.Logging.Level }},
	{"server.host", false, func(c *Config) string { return c.Server.Host }},
	{"server.port", false, func(c *Config) string { return strconv.Itoa(c.Server.Port) }},
	{"server.read_timeout", false, func(c *Config) string { return c.Server.ReadTimeout.String() }},
	{"server.write_timeout", false, func(c *Config) string { return c.Server.WriteTimeout.String() }},
	{"logging.format", false, func(c *Config) string { return c.Logging.Format }},
	{"metrics.enabled", false, func(c *Config) string { return strconv.FormatBool(c.Metrics.Enabled) }},
	{"metrics.path", false, func(c *Config) string { return c.Metrics.Path }},
}

// Change is one setting that differs between two configurations.
type Change struct {
	Field      string
	Old        string
	New        string
	Reloadable bool
}

// Diff lists the settings that differ between old and new, in a stable order.
func Diff(old, new *Config) []Change {
	var changes []Change
	for _, s := range settings {
		o, n := s.value(old), s.value(new)
		if o != n {
			changes = append(changes, Change{Field: s.name, Old: o, New: n, Reloadable: s.reloadable})
		}
	}
	return changes
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string { return fieldNames(true) }

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string { return fieldNames(false) }

func fieldNames(reloadable bool) []string {
	var names []string
	for _, s := range settings {
		if s.reloadable == reloadable {
			names = append(names, s.name)
		}
	}
	return names
}

// pinRunning copies the settings a running process cannot pick up from
// running into next, so Get keeps describing what is actually in effect.
func pinRunning(running, next *Config) {
	next.Server = running.Server
	next.Logging.Format = running.Logging.Format
	next.Metrics = running.Metrics
}

// Holder provides thread-safe access to the configuration and reloads it
// from its file on change or SIGHUP.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	onChange []func(*Config)
	onReload []func(error)

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a holder backed by it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := Static(cfg, logger)
	h.path = absPath
	return h, nil
}

// Static wraps a configuration that has no backing file. Reload and
// WatchFile are no-ops on it.
func Static(cfg *Config, logger zerolog.Logger) *Holder {
	return &Holder{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// SetLogger replaces the holder's logger. Call it before WatchFile or
// WatchSignals.
func (h *Holder) SetLogger(logger zerolog.Logger) { h.logger = logger }

// Path returns the absolute path of the backing file, or "" for a static holder.
func (h *Holder) Path() string { return h.path }

// Get returns the configuration currently in effect.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload reads the file again. On error the previous configuration stays in
// effect. Settings that need a restart are logged and left at their running
// values. OnChange listeners run only when a reloadable setting changed.
func (h *Holder) Reload() error {
	if h.path == "" {
		return nil
	}

	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping current settings")
		err = fmt.Errorf("reload config: %w", err)
		h.notifyReload(err)
		return err
	}

	h.mu.Lock()
	running := h.config
	changes := Diff(running, next)
	pinRunning(running, next)
	applied := 0
	for _, c := range changes {
		if c.Reloadable {
			applied++
		}
	}
	if applied > 0 {
		h.config = next
	}
	listeners := append(([]func(*Config))(nil), h.onChange...)
	h.mu.Unlock()

	for _, c := range changes {
		ev := h.logger.Info()
		msg := "setting changed"
		if !c.Reloadable {
			ev = h.logger.Warn()
			msg = "setting requires restart, ignored"
		}
		ev.Str("field", c.Field).Str("old", c.Old).Str("new", c.New).Msg(msg)
	}

	if applied > 0 {
		for _, fn := range listeners {
			fn(next)
		}
	}
	h.notifyReload(nil)

	h.logger.Info().Str("path", h.path).Int("applied", applied).Msg("configuration reloaded")
	return nil
}

// OnChange registers fn to receive each newly applied configuration.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReload registers fn to receive the outcome of every reload attempt.
func (h *Holder) OnReload(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReload = append(h.onReload, fn)
}

func (h *Holder) notifyReload(err error) {
	h.mu.RLock()
	listeners := append(([]func(error))(nil), h.onReload...)
	h.mu.RUnlock()
	for _, fn := range listeners {
		fn(err)
	}
}

// WatchFile reloads the configuration whenever its file is written.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// Atomic saves replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)
	var settle <-chan time.Time

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			h.logger.Debug().Str("event", event.Op.String()).Msg("config file changed")
			settle = time.After(settleDelay)

		case <-settle:
			settle = nil
			// Reload logs its own failures.
			_ = h.Reload()

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("config watcher error")

		case <-h.stopCh:
			return
		}
	}
}

// WatchSignals reloads the configuration on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				_ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. Safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}
