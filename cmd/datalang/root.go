package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/artpar/datalang/app"
	"github.com/artpar/datalang/bootstrap"
	"github.com/artpar/datalang/config"
	"github.com/artpar/datalang/core/diagnostic"
	"github.com/artpar/datalang/core/lexer"
	"github.com/artpar/datalang/ports"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "datalang",
		Short: "Compile DataLang schemas into Go types and validation rules",
		Long: `DataLang is a small schema language for terms, composite terms and
constrained entities.

Quick start:
  datalang check schemas/           # Report which files compile
  datalang generate schemas/ -o gen # Write Go types next to each schema
  datalang serve                    # Start the HTTP compile service`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file path")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		compileCmd(opts),
		generateCmd(opts),
		checkCmd(opts),
		targetsCmd(opts),
		serveCmd(opts),
		watchCmd(opts),
		versionCmd(),
	)
	return cmd
}

// newApp bootstraps the application with logs going to the command's
// error stream.
func (o *globalOptions) newApp(cmd *cobra.Command) (*bootstrap.App, error) {
	return bootstrap.New(bootstrap.Options{
		ConfigPath: o.configPath,
		LogLevel:   o.logLevel,
		LogOutput:  cmd.ErrOrStderr(),
		Version:    version,
	})
}

const (
	checkMark = "✓"
	crossMark = "✗"
)

// marks returns the pass and fail marks for w, coloured only on terminals.
func marks(w io.Writer) (pass, fail string) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "\033[32m" + checkMark + "\033[0m", "\033[31m" + crossMark + "\033[0m"
	}
	return checkMark, crossMark
}

// printDiagnostics writes every compilation error of err in the
// file:line:column form editors recognise, followed by the offending line
// and a caret under the column.
func printDiagnostics(w io.Writer, file ports.SourceFile, err error) {
	diags := diagnostic.Errors(err)
	if len(diags) == 0 {
		fmt.Fprintf(w, "  %s: %v\n", file.Path, err)
		return
	}
	for _, d := range diags {
		if !d.Pos.IsValid() {
			fmt.Fprintf(w, "  %s: %v\n", file.Path, d)
			continue
		}
		fmt.Fprintf(w, "  %s:%v\n", file.Path, d)
		if line := lexer.LineAt(file.Content, d.Pos.Line); line != "" {
			fmt.Fprintf(w, "      %s\n      %s^\n", line, caretPad(line, d.Pos.Column))
		}
	}
}

// caretPad returns the indentation that puts a caret under the 1-based rune
// column col of line, keeping tabs so the caret lines up.
func caretPad(line string, col int) string {
	var b strings.Builder
	for i, r := range []rune(line) {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			b.WriteRune('\t')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

// batchError summarises failed files as the command error.
func batchError(results []app.FileResult) error {
	failed := app.Failed(results)
	if failed == 0 {
		return nil
	}
	noun := "files"
	if len(results) == 1 {
		noun = "file"
	}
	return fmt.Errorf("%d of %d %s failed", failed, len(results), noun)
}

// heading prints a file banner when more than one file is shown.
func heading(w io.Writer, results []app.FileResult, path string) {
	if len(results) > 1 {
		fmt.Fprintf(w, "==> %s <==\n", path)
	}
}

