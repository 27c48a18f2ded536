package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/andreyvit/nestfile"
)

// errMissing makes the process exit with status 1 without a message.
var errMissing = errors.New("path does not exist")

func newExistsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exists FILE PATH",
		Short: "exit with status 0 if PATH exists in FILE, 1 otherwise",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !nestfile.Exists(args[0], args[1]) {
				return errMissing
			}
			return nil
		},
	}
}
