package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/etl/internal/pipeline"
)

// printRun renders one line per raw table.
func printRun(w io.Writer, results []pipeline.TableResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tOUTCOME\tROWS\tOUTPUTS\tERROR")
	for _, t := range results {
		outputs := make([]string, len(t.Outputs))
		for i, o := range t.Outputs {
			outputs[i] = fmt.Sprintf("%s(%d)", o.Table, o.Rows)
			if len(o.Failed) > 0 {
				outputs[i] += " failed:" + strings.Join(o.Failed, "+")
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", t.Table, t.Outcome, t.RowsIn, strings.Join(outputs, ", "), t.Error)
	}
	_ = tw.Flush()
}
