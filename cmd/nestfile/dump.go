package main

import (
	"github.com/spf13/cobra"

	"github.com/andreyvit/nestfile"
)

func newDumpCmd(g *globalOptions) *cobra.Command {
	var attrs, values, stats bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "print the whole tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f nestfile.DumpFlags
			if attrs {
				f |= nestfile.DumpAttrs
			}
			if values {
				f |= nestfile.DumpValues
			}
			if stats {
				f |= nestfile.DumpStats
			}
			return nestfile.Dump(cmd.OutOrStdout(), args[0], f, g.options())
		},
	}
	cmd.Flags().BoolVar(&attrs, "attrs", false, "show dataset attributes")
	cmd.Flags().BoolVar(&values, "values", false, "show dataset values")
	cmd.Flags().BoolVar(&stats, "stats", false, "show storage statistics")
	return cmd
}
