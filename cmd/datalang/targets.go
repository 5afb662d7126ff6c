package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func targetsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List code generation targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tEXTENSION\tDESCRIPTION")
			for _, t := range a.Compiler.Targets() {
				name := t.Name
				if t.Default {
					name += " *"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, t.Extension, t.Description)
			}
			return w.Flush()
		},
	}
}
