package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/artpar/datalang/app"
	"github.com/artpar/datalang/core/lexer"
)

func checkCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <files|dirs|globs>...",
		Short: "Report which DataLang files compile",
		Long: `Compile DataLang files without generating code.

Each file is listed with a check or a cross followed by its errors. The
command exits with status 1 when any file fails.

Examples:
  datalang check schemas/
  datalang check --config ci.yaml 'schemas/**/*.dl'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			results, err := a.Batch.CompileFiles(cmd.Context(), args...)
			if err != nil {
				return err
			}

			reportResults(cmd.OutOrStdout(), results)
			return batchError(results)
		},
	}
}

// reportResults lists each file with a pass or fail mark and the errors of
// failed files.
func reportResults(out io.Writer, results []app.FileResult) {
	pass, fail := marks(out)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s %s\n", fail, r.File.Path)
			printDiagnostics(out, r.File, r.Err)
			continue
		}
		if r.OutputPath != "" {
			fmt.Fprintf(out, "%s %s -> %s\n", pass, r.File.Path, r.OutputPath)
			continue
		}
		fmt.Fprintf(out, "%s %s (%d entities, %d lines)\n", pass, r.File.Path,
			len(r.Result.Schema.Entities), len(lexer.Lines(r.File.Content)))
	}
}
