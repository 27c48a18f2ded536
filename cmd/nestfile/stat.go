package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/andreyvit/nestfile"
)

func newStatCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stat FILE",
		Short: "show counts and sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := nestfile.Stat(args[0], g.options())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file size:    %s\n", humanize.Bytes(uint64(st.FileSize)))
			fmt.Fprintf(w, "groups:       %s\n", humanize.Comma(int64(st.Groups)))
			fmt.Fprintf(w, "datasets:     %s (%s None)\n", humanize.Comma(int64(st.Datasets)), humanize.Comma(int64(st.Nones)))
			fmt.Fprintf(w, "payload:      %s raw, %s stored", humanize.Bytes(uint64(st.RawBytes)), humanize.Bytes(uint64(st.DataBytes)))
			if r := st.CompressionRatio(); r > 0 {
				fmt.Fprintf(w, " (ratio %.2f)", r)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "pages:        %s in use, %s allocated\n", humanize.Bytes(uint64(st.InUse)), humanize.Bytes(uint64(st.Alloc)))
			return nil
		},
	}
}
