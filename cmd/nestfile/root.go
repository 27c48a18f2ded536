package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreyvit/nestfile"
)

type globalOptions struct {
	verbose bool
}

// options builds the library options for one command run. Logs go to stderr
// so that they never mix with command output.
func (g *globalOptions) options() nestfile.Options {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return nestfile.Options{Logger: slog.New(h)}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:           "nestfile",
		Short:         "inspect and edit nested mapping files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log debug details to stderr")
	rootCmd.AddCommand(
		newLsCmd(g),
		newGetCmd(g),
		newPutCmd(g),
		newDumpCmd(g),
		newStatCmd(g),
		newRepackCmd(g),
		newExistsCmd(g),
	)
	return rootCmd
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
