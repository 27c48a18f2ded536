package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/andreyvit/nestfile"
)

func newRepackCmd(g *globalOptions) *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "repack FILE...",
		Short: "compact files, reclaiming space left by replaced datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := g.options()
			results := make([]nestfile.RepackStats, len(args))
			var eg errgroup.Group
			eg.SetLimit(max(jobs, 1))
			for i, fn := range args {
				eg.Go(func() error {
					st, err := nestfile.Repack(fn, opt)
					results[i] = st
					return err
				})
			}
			err := eg.Wait()

			w := cmd.OutOrStdout()
			for i, fn := range args {
				st := results[i]
				if st.SizeAfter == 0 {
					continue
				}
				fmt.Fprintf(w, "%s: %s -> %s, saved %s in %v\n", fn,
					humanize.Bytes(uint64(st.SizeBefore)), humanize.Bytes(uint64(st.SizeAfter)),
					humanize.Bytes(uint64(max(st.Saved(), 0))), st.Elapsed.Round(time.Millisecond))
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "files to repack in parallel")
	return cmd
}
