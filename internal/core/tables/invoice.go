package tables

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// InvoiceDateLayout is the fixed YYYYMMDD layout of INVDATE.
const InvoiceDateLayout = "20060102"

// CleanInvoices parses INVDATE strictly, lowercases column names, trims text
// cells and drops duplicates.
func CleanInvoices(raw core.RawTable) (*core.Frame, error) {
	pos, err := core.RequireColumn(raw.Name, raw.Columns, "INVDATE")
	if err != nil {
		return nil, err
	}

	f := core.FromRaw(raw)
	err = f.Convert(pos, core.FieldDate, func(c pgtype.Text) (any, error) {
		return core.ParseDateLayout(c, InvoiceDateLayout)
	})
	if err != nil {
		return nil, err
	}

	if err := f.RenameColumns(core.NormalizeLower); err != nil {
		return nil, err
	}

	for i, col := range f.Columns {
		if col.Type == core.FieldText {
			f.MapText(i, trimText)
		}
	}

	f.Dedupe()
	return f, nil
}

func trimText(c pgtype.Text) pgtype.Text {
	if !c.Valid {
		return c
	}
	return pgtype.Text{String: strings.TrimSpace(c.String), Valid: true}
}
