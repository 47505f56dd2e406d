package tables

import (
	"fmt"

	"github.com/JonMunkholm/etl/internal/core"
)

// CleanAsset drops assets without an opportunity and fills remaining gaps
// with Unknown.
func CleanAsset(raw core.RawTable) (*core.Frame, error) {
	f := core.FromRaw(raw)
	if err := f.RenameColumns(core.NormalizeCustomField); err != nil {
		return nil, err
	}

	opp := f.Index("opportunity")
	if opp < 0 {
		return nil, fmt.Errorf("%s: %w: opportunity", raw.Name, core.ErrMissingColumn)
	}

	f.Filter(func(r core.Row) bool { return !core.IsNull(r[opp]) })
	f.FillNull(core.UnknownValue)
	f.Dedupe()
	return f, nil
}
