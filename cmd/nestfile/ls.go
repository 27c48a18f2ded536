package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/andreyvit/nestfile"
)

var exampleForLsCmd = `nestfile ls results.h5
nestfile ls results.h5 trial/3
`

func newLsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls FILE [PATH]",
		Short:   "list the children of a group",
		Example: exampleForLsCmd,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := nestfile.List(args[0], optionalArg(args, 1), g.options())
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"name", "kind", "key type", "dtype", "shape", "size"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			for _, e := range entries {
				table.Append(entryRow(&e))
			}
			table.Render()
			return nil
		},
	}
}

func entryRow(e *nestfile.EntryInfo) []string {
	if e.IsGroup {
		return []string{e.Name + "/", e.Kind(), e.KeyType, "", "", strconv.Itoa(e.Children) + " items"}
	}
	size := humanize.Bytes(uint64(e.StoredSize))
	if e.Filter != nestfile.FilterNone {
		size += " " + e.Filter.String()
	}
	return []string{e.Name, e.Kind(), e.KeyType, e.DType.String(), fmt.Sprint(e.Shape), size}
}
