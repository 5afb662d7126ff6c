package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/artpar/datalang/adapters/source"
	"github.com/artpar/datalang/app"
)

func watchCmd(opts *globalOptions) *cobra.Command {
	var (
		target   string
		pkg      string
		outDir   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Recompile DataLang files as they change",
		Long: `Watch a directory tree and recompile each .dl file when it is written.

Without --output every change is checked. With --output the changed file
is regenerated into that directory, mirroring the tree under <dir>.

Examples:
  datalang watch schemas/
  datalang watch schemas/ --output internal/models`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := &sourceWatcher{
				batch: a.Batch,
				root:  args[0],
				opts: app.BatchOptions{
					Target:  target,
					Package: pkg,
					OutDir:  outDir,
					BaseDir: args[0],
				},
				out:      cmd.OutOrStdout(),
				logger:   a.Logger.With().Str("component", "watch").Logger(),
				debounce: debounce,
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "code generation target with --output (default from config)")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package of generated Go code (default from config)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "directory receiving generated files")
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "quiet period before recompiling")
	return cmd
}

// sourceWatcher recompiles DataLang files under root on change.
type sourceWatcher struct {
	batch    *app.Batch
	root     string
	opts     app.BatchOptions
	out      io.Writer
	logger   zerolog.Logger
	debounce time.Duration
}

// Run builds the whole tree once, then rebuilds changed files until ctx ends.
func (w *sourceWatcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.root); err != nil {
		return err
	}
	w.logger.Info().Str("dir", w.root).Msg("watching for changes")

	w.build(ctx, w.root)

	pending := make(map[string]bool)
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(fw, event.Name); err != nil {
						w.logger.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch directory")
					}
					continue
				}
			}
			if !source.IsSource(event.Name) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			w.logger.Debug().Str("event", event.Op.String()).Str("file", event.Name).Msg("source changed")
			pending[event.Name] = true
			fire = time.After(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-fire:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = make(map[string]bool)
			fire = nil
			w.build(ctx, paths...)
		}
	}
}

func (w *sourceWatcher) build(ctx context.Context, patterns ...string) {
	var (
		results []app.FileResult
		err     error
	)
	if w.opts.OutDir != "" {
		results, err = w.batch.GenerateFiles(ctx, w.opts, patterns...)
	} else {
		results, err = w.batch.CompileFiles(ctx, patterns...)
	}
	if err != nil {
		w.logger.Warn().Err(err).Msg("build skipped")
		return
	}
	reportResults(w.out, results)
}

// addTree watches dir and every directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
