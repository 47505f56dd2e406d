package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// CleanOpportunity types CreatedDate and IsWon, drops duplicates and then
// strips the custom-field marker from column names.
// Duplicates are evaluated on the typed values, so two rows whose CreatedDate
// differ only in time of day collapse into one.
func CleanOpportunity(raw core.RawTable) (*core.Frame, error) {
	idx, err := core.RequireColumns(raw.Name, raw.Columns, "CreatedDate", "IsWon")
	if err != nil {
		return nil, err
	}

	f := core.FromRaw(raw)
	// Neither coercion can fail.
	_ = f.Convert(idx[0], core.FieldDate, func(c pgtype.Text) (any, error) {
		return core.ToPgDate(c), nil
	})
	_ = f.Convert(idx[1], core.FieldBool, func(c pgtype.Text) (any, error) {
		return core.Truthy(c), nil
	})

	f.Dedupe()
	if err := f.RenameColumns(core.NormalizeCustomField); err != nil {
		return nil, err
	}
	return f, nil
}
