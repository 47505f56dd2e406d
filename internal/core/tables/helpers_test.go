package tables

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// nul marks a null cell in test fixtures.
const nul = "\x00"

func rawTable(name string, cols []string, rows ...[]string) core.RawTable {
	out := core.RawTable{Name: name, Columns: cols}
	for _, r := range rows {
		cells := make([]pgtype.Text, len(r))
		for i, v := range r {
			if v != nul {
				cells[i] = pgtype.Text{String: v, Valid: true}
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// render formats every cell of f, using "<null>" for nulls.
func render(f *core.Frame) [][]string {
	out := make([][]string, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = make([]string, len(r))
		for j, c := range r {
			if core.IsNull(c) {
				out[i][j] = "<null>"
			} else {
				out[i][j] = core.FormatCell(c)
			}
		}
	}
	return out
}

// reRaw turns a cleaned frame back into raw input with the given source
// column names. Columns listed in formats are rendered with that function.
func reRaw(f *core.Frame, cols []string, formats map[int]func(any) string) core.RawTable {
	raw := core.RawTable{Name: f.Name, Columns: cols}
	for _, r := range f.Rows {
		cells := make([]pgtype.Text, len(r))
		for j, c := range r {
			if core.IsNull(c) {
				continue
			}
			s := core.FormatCell(c)
			if fn, ok := formats[j]; ok {
				s = fn(c)
			}
			cells[j] = pgtype.Text{String: s, Valid: true}
		}
		raw.Rows = append(raw.Rows, cells)
	}
	return raw
}

func column(t *testing.T, f *core.Frame, name string) int {
	t.Helper()
	i := f.Index(name)
	if i < 0 {
		t.Fatalf("column %q not in %v", name, f.ColumnNames())
	}
	return i
}

func joinRows(rows [][]string) string {
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteByte('\n')
	}
	return b.String()
}
