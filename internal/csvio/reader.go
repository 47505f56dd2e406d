package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/etl/internal/core"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty file")

	// ErrInvalidCSV wraps parse failures and rows wider than the header.
	ErrInvalidCSV = errors.New("invalid csv")
)

// NullTokens are cell values read as null. Matching is exact.
var NullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// NewDecoder wraps r so that a leading BOM is consumed and the content is
// valid UTF-8.
func NewDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// Read decodes a CSV stream into a raw table named name.
func Read(name string, r io.Reader) (core.RawTable, error) {
	cr := csv.NewReader(NewDecoder(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.RawTable{}, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if err != nil {
		return core.RawTable{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidCSV, err)
	}

	table := core.RawTable{Name: name, Columns: uniqueHeader(header)}

	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.RawTable{}, fmt.Errorf("%s: %w: %v", name, ErrInvalidCSV, err)
		}
		if len(rec) > len(header) {
			return core.RawTable{}, fmt.Errorf("%s: %w: row %d has %d fields, header has %d",
				name, ErrInvalidCSV, line, len(rec), len(header))
		}
		table.Rows = append(table.Rows, toCells(rec))
	}

	return table, nil
}

func toCells(rec []string) []pgtype.Text {
	cells := make([]pgtype.Text, len(rec))
	for i, v := range rec {
		if _, isNull := NullTokens[v]; !isNull {
			cells[i] = pgtype.Text{String: v, Valid: true}
		}
	}
	return cells
}

// uniqueHeader renames repeated names to name.1, name.2 in order.
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}

	for i, h := range header {
		n, dup := seen[h]
		seen[h] = n + 1
		if !dup {
			out[i] = h
			continue
		}
		name := h + "." + strconv.Itoa(n)
		for taken[name] {
			n++
			name = h + "." + strconv.Itoa(n)
		}
		seen[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}
