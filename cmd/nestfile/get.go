package main

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andreyvit/nestfile"
)

func newGetCmd(g *globalOptions) *cobra.Command {
	var (
		lazy   bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "get FILE [PATH]",
		Short: "load a group or dataset and print it as YAML or JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := nestfile.Load(args[0], nestfile.LoadOptions{
				Path:    optionalArg(args, 1),
				Lazy:    lazy,
				Options: g.options(),
			})
			if err != nil {
				return err
			}
			return writeDoc(cmd.OutOrStdout(), format, docFromValue(v))
		},
	}
	cmd.Flags().BoolVar(&lazy, "lazy", false, "print the structure only, every leaf as null")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	return cmd
}

func writeDoc(w io.Writer, format string, doc any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return errors.Newf("unknown format %q, wanted yaml or json", format)
	}
}
