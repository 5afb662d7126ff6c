package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/datalang/app"
)

func generateCmd(opts *globalOptions) *cobra.Command {
	var (
		target  string
		pkg     string
		outDir  string
		baseDir string
	)

	cmd := &cobra.Command{
		Use:   "generate <files|dirs|globs>...",
		Short: "Generate code from DataLang files",
		Long: `Generate code from DataLang files with one of the registered targets.

Without --output the generated code is printed. With --output each source
file gets a counterpart in that directory, keeping its path relative to
--base (or to the single directory argument).

Targets:
  go        Go structs with per-field validators (default)
  celrules  CEL validation rules as YAML
  json      Resolved schema as JSON
  yaml      Resolved schema as YAML
  table     Resolved schema as a text table

Examples:
  datalang generate user.dl
  datalang generate schemas/ --output internal/models --package models
  datalang generate schemas/ --target celrules -o rules`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			if baseDir == "" && len(args) == 1 {
				if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
					baseDir = args[0]
				}
			}

			results, err := a.Batch.GenerateFiles(cmd.Context(), app.BatchOptions{
				Target:  target,
				Package: pkg,
				OutDir:  outDir,
				BaseDir: baseDir,
			}, args...)
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			for _, r := range results {
				switch {
				case r.Err != nil:
					printDiagnostics(errOut, r.File, r.Err)
				case r.OutputPath != "":
					fmt.Fprintf(out, "%s -> %s\n", r.File.Path, r.OutputPath)
				default:
					heading(out, results, r.File.Path)
					if _, err := out.Write(r.Result.Output); err != nil {
						return err
					}
				}
			}
			return batchError(results)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "code generation target (default from config)")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package of generated Go code (default from config)")
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "directory receiving generated files")
	cmd.Flags().StringVar(&baseDir, "base", "", "source root preserved under --output")
	return cmd
}
