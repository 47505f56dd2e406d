// Command etl runs the cleansing pipeline and the flight extract from the
// command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/etl/internal/core"
	"github.com/JonMunkholm/etl/internal/pipeline"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		// Table failures are already logged per table.
		var tableErr *tableFailure
		if !errors.As(err, &tableErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		if errors.Is(err, pipeline.ErrRunInProgress) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
