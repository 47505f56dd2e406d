package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/etl/internal/core"
)

// Write encodes f as CSV with a header row.
func Write(w io.Writer, f *core.Frame) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(f.ColumnNames()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(f.Columns))
	for i, r := range f.Rows {
		for j := range rec {
			rec[j] = ""
			if j < len(r) {
				rec[j] = core.FormatCell(r[j])
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Encode returns f as CSV bytes.
func Encode(f *core.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName returns the object name for a table.
func FileName(table string) string {
	return table + ".csv"
}

// TableName strips the .csv extension. ok is false for other names.
func TableName(object string) (string, bool) {
	const ext = ".csv"
	if len(object) <= len(ext) || object[len(object)-len(ext):] != ext {
		return "", false
	}
	return object[:len(object)-len(ext)], true
}
