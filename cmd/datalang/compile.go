package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/datalang/app"
)

var compileFormats = []string{"json", "yaml", "table"}

func compileCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compile <files|dirs|globs>...",
		Short: "Print the resolved schema of DataLang files",
		Long: `Compile DataLang files and print each resolved schema.

Directories are searched recursively for .dl files. Globs support **.

Examples:
  datalang compile user.dl
  datalang compile 'schemas/**/*.dl' --format table`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validFormat(format) {
				return fmt.Errorf("unknown format %q (want json, yaml or table)", format)
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			results, err := a.Batch.GenerateFiles(cmd.Context(), app.BatchOptions{Target: format}, args...)
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			for _, r := range results {
				if r.Err != nil {
					printDiagnostics(errOut, r.File, r.Err)
					continue
				}
				heading(out, results, r.File.Path)
				if _, err := out.Write(r.Result.Output); err != nil {
					return err
				}
			}
			return batchError(results)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml, table)")
	return cmd
}

func validFormat(format string) bool {
	for _, f := range compileFormats {
		if f == format {
			return true
		}
	}
	return false
}
