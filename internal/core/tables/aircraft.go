package tables

import (
	"fmt"

	"github.com/JonMunkholm/etl/internal/core"
)

// CleanAircraft normalizes the Aircraft extract.
// Column names use the aircraft variant, registration loses its country
// prefix, every null becomes Unknown and duplicate rows are dropped.
func CleanAircraft(raw core.RawTable) (*core.Frame, error) {
	f := core.FromRaw(raw)
	if err := f.RenameColumns(core.NormalizeAircraft); err != nil {
		return nil, err
	}

	reg := f.Index("registration")
	if reg < 0 {
		return nil, fmt.Errorf("%s: %w: registration", raw.Name, core.ErrMissingColumn)
	}

	f.MapText(reg, stripCountryPrefix)
	f.FillNull(core.UnknownValue)
	f.Dedupe()
	return f, nil
}
