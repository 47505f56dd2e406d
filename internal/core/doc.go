// Package core provides the table model and normalization primitives for the
// cleansing pipeline.
//
// The package is independent of storage and transport. It is used by the
// per-table cleaners in core/tables, the pipeline orchestrator and tests.
//
// # Table Model
//
// A [RawTable] is what the CSV reader produces: original column names and
// text cells where Valid=false means null. A [Frame] is a canonical table:
// normalized column names, one [FieldType] per column and cells holding
// pgtype values (Text, Date, Timestamp, Bool, Int8). The same pgtype values
// are written to CSV via [FormatCell] and bulk-loaded into the warehouse.
//
// # Table Registry
//
// Cleaners are registered in an immutable [Registry] keyed by [Kind], the
// closed set of source tables with a cleaner:
//
//	reg, err := core.NewRegistry(core.TableDefinition{
//	    Info:  core.TableInfo{Kind: core.KindAsset, Label: "Assets"},
//	    Clean: cleanAsset,
//	})
//
// Raw tables whose name has no kind are passed through unchanged by the
// orchestrator.
//
// # Column Names
//
// [NormalizeColumns] implements the naming variants ([NormalizeCustomField],
// [NormalizeLower], [NormalizeAircraft]). A collision between two source
// columns is reported as [ErrColumnCollision] instead of silently dropping one.
//
// # Error Handling
//
// Table-fatal conditions are sentinel errors ([ErrMissingColumn],
// [ErrInvalidDate], [ErrNoDigits], [ErrColumnCollision]) wrapped with table and
// column context. [MapError] turns any error into a user message with a
// support code.
package core
