package main

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andreyvit/nestfile"
)

var exampleForPutCmd = `nestfile put results.h5 --from params.yaml
nestfile put results.h5 trial/3 --from - --overwrite --compression zstd < trial.json
`

func newPutCmd(g *globalOptions) *cobra.Command {
	var (
		from        string
		mode        string
		overwrite   bool
		compression string
		repack      bool
	)
	cmd := &cobra.Command{
		Use:     "put FILE [PATH]",
		Short:   "store a YAML or JSON document in a file",
		Example: exampleForPutCmd,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readDoc(cmd.InOrStdin(), from)
			if err != nil {
				return err
			}
			wm, err := nestfile.ParseWriteMode(mode)
			if err != nil {
				return err
			}
			comp, err := nestfile.ParseCompression(compression)
			if err != nil {
				return err
			}
			return nestfile.Save(args[0], m, nestfile.SaveOptions{
				Mode:        wm,
				Overwrite:   overwrite,
				Path:        optionalArg(args, 1),
				Compression: comp,
				Repack:      repack,
				Options:     g.options(),
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "document to import, - for stdin")
	cmd.Flags().StringVar(&mode, "mode", "append", "append or write (truncate the file first)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing datasets")
	cmd.Flags().StringVar(&compression, "compression", "", "gzip[:level], zstd[:level], snappy or none")
	cmd.Flags().BoolVar(&repack, "repack", false, "compact the file after writing")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

// readDoc parses a YAML document; JSON documents are valid YAML.
func readDoc(stdin io.Reader, from string) (*nestfile.Mapping, error) {
	var data []byte
	var err error
	if from == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(from)
	}
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", from)
	}
	if doc == nil {
		return nestfile.NewMapping(), nil
	}
	m, err := nestfile.MappingFromGo(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "converting %s", from)
	}
	return m, nil
}
