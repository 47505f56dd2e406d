package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// UnknownValue is the fill value used in place of missing data.
const UnknownValue = "Unknown"

// FromRaw copies a raw table into a frame of text columns.
func FromRaw(raw RawTable) *Frame {
	cols := make([]Column, len(raw.Columns))
	for i, name := range raw.Columns {
		cols[i] = Column{Name: name, Type: FieldText}
	}

	rows := make([]Row, len(raw.Rows))
	for i, r := range raw.Rows {
		row := make(Row, len(cols))
		for j := range cols {
			if j < len(r) {
				row[j] = r[j]
			} else {
				row[j] = pgtype.Text{Valid: false}
			}
		}
		rows[i] = row
	}

	return &Frame{Name: raw.Name, Columns: cols, Rows: rows}
}

// Project returns a new frame holding only the columns at idx, in that order.
func (f *Frame) Project(idx ...int) *Frame {
	cols := make([]Column, len(idx))
	for i, pos := range idx {
		cols[i] = f.Columns[pos]
	}

	rows := make([]Row, len(f.Rows))
	for i, r := range f.Rows {
		row := make(Row, len(idx))
		for j, pos := range idx {
			row[j] = r[pos]
		}
		rows[i] = row
	}

	return &Frame{Name: f.Name, Columns: cols, Rows: rows}
}

// MapText replaces every cell of a text column with fn(cell).
func (f *Frame) MapText(col int, fn func(pgtype.Text) pgtype.Text) {
	for _, r := range f.Rows {
		if c, ok := r[col].(pgtype.Text); ok {
			r[col] = fn(c)
		}
	}
}

// Convert changes the type of a text column. fn receives each raw cell and
// returns the typed value; the first error aborts the conversion and names the
// offending row (1-based, header excluded).
func (f *Frame) Convert(col int, typ FieldType, fn func(pgtype.Text) (any, error)) error {
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		c, _ := r[col].(pgtype.Text)
		v, err := fn(c)
		if err != nil {
			return fmt.Errorf("%s.%s row %d: %w", f.Name, f.Columns[col].Name, i+1, err)
		}
		out[i] = v
	}

	for i, r := range f.Rows {
		r[col] = out[i]
	}
	f.Columns[col].Type = typ
	return nil
}

// FillNull replaces null text cells in every column with value.
func (f *Frame) FillNull(value string) {
	fill := pgtype.Text{String: value, Valid: true}
	for _, r := range f.Rows {
		for j, c := range r {
			if t, ok := c.(pgtype.Text); ok && !t.Valid {
				r[j] = fill
			}
		}
	}
}

// Filter keeps the rows for which keep returns true, preserving order.
func (f *Frame) Filter(keep func(Row) bool) {
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	f.Rows = kept
}

// Dedupe removes rows that are field-wise identical to an earlier row.
// The first occurrence is kept. Null and empty text are distinct.
func (f *Frame) Dedupe() {
	seen := make(map[string]struct{}, len(f.Rows))
	kept := f.Rows[:0]
	for _, r := range f.Rows {
		k := rowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}
	f.Rows = kept
}

// rowKey encodes r unambiguously: null cells as "-", others as
// "<len>:<text>".
func rowKey(r Row) string {
	var b strings.Builder
	for _, c := range r {
		if IsNull(c) {
			b.WriteByte('-')
			continue
		}
		s := FormatCell(c)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// RenameColumns applies NormalizeColumns to the frame's column names.
func (f *Frame) RenameColumns(mode NormalizeMode) error {
	names, err := NormalizeColumns(f.ColumnNames(), mode)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	for i := range f.Columns {
		f.Columns[i].Name = names[i]
	}
	return nil
}

// Index returns the position of the column with exactly this name, or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
