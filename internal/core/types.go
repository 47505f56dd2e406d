package core

import (
	"sort"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind identifies a source table that has a dedicated cleaner.
type Kind int

const (
	KindUnknown Kind = iota
	KindAircraft
	KindOpportunity
	KindFlightData
	KindInvoices
	KindAsset
	KindAccount
)

// kindSources maps every cleaned kind to the raw table name it is read from.
var kindSources = map[Kind]string{
	KindAircraft:    "Aircraft",
	KindOpportunity: "Opportunity",
	KindFlightData:  "flight_data",
	KindInvoices:    "invoices",
	KindAsset:       "Asset",
	KindAccount:     "Account",
}

// Output table names that do not share a name with their source.
const OwnershipTable = "Ownership"

// Kinds returns every cleaned kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindSources))
	for k := range kindSources {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// KindFromSource returns the kind for a raw table name.
// Matching is exact, as file names are the contract with the upstream export.
func KindFromSource(name string) (Kind, bool) {
	for k, src := range kindSources {
		if src == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Source returns the raw table name for k, or "" for KindUnknown.
func (k Kind) Source() string {
	return kindSources[k]
}

func (k Kind) String() string {
	if s, ok := kindSources[k]; ok {
		return s
	}
	return "unknown"
}

// FieldType represents the semantic type of a canonical column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldDate
	FieldTimestamp
	FieldBool
	FieldInteger
)

func (t FieldType) String() string {
	switch t {
	case FieldDate:
		return "date"
	case FieldTimestamp:
		return "timestamp"
	case FieldBool:
		return "bool"
	case FieldInteger:
		return "integer"
	default:
		return "text"
	}
}

// Column describes one column of a canonical table.
type Column struct {
	Name string
	Type FieldType
}

// RawTable is a record set as received from the source file.
// Cells with Valid=false are null.
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]pgtype.Text
}

// Row is one canonical record. Each cell holds the pgtype value matching its
// column type: pgtype.Text, pgtype.Date, pgtype.Timestamp, pgtype.Bool or
// pgtype.Int8.
type Row []any

// Frame is a canonical record set. A Frame handed to a publisher is never
// modified again.
type Frame struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// ColumnNames returns the frame's column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// CleanFunc turns one raw table into one or more canonical tables.
// Implementations must not retain or modify raw.
type CleanFunc func(raw RawTable) ([]*Frame, error)

// TableInfo contains descriptive information about a cleaned table.
type TableInfo struct {
	Kind    Kind     // Closed identifier
	Source  string   // Raw file stem: "flight_data"
	Label   string   // Display name: "Flight Data"
	Outputs []string // Canonical table names produced, in order
}

// TableDefinition contains everything needed to clean a table.
type TableDefinition struct {
	Info  TableInfo
	Clean CleanFunc
}
