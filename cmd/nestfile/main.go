// Command nestfile inspects and edits nestfile containers.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errMissing) {
			fmt.Fprintf(os.Stderr, "nestfile: %v\n", err)
		}
		os.Exit(1)
	}
}
