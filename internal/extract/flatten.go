package extract

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/JonMunkholm/etl/internal/core"
)

// ErrNotObject is returned when a response body is not a JSON object.
var ErrNotObject = errors.New("response is not a JSON object")

type field struct {
	key   string
	value pgtype.Text
}

// decodeObject returns the members of a JSON object in document order.
// A repeated key keeps its first position and its last value.
func decodeObject(data []byte) ([]field, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrNotObject)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrNotObject
	}

	var fields []field
	pos := make(map[string]int)
	doc.ForEach(func(key, value gjson.Result) bool {
		cell := cellValue(value)
		if i, seen := pos[key.Str]; seen {
			fields[i].value = cell
			return true
		}
		pos[key.Str] = len(fields)
		fields = append(fields, field{key: key.Str, value: cell})
		return true
	})
	return fields, nil
}

// cellValue renders a JSON value as a CSV cell. Numbers keep their literal
// text, nested objects and arrays are kept as compact JSON and booleans use
// the True/False spelling of the cleaned tables.
func cellValue(v gjson.Result) pgtype.Text {
	switch v.Type {
	case gjson.Null:
		return pgtype.Text{}
	case gjson.True:
		return pgtype.Text{String: "True", Valid: true}
	case gjson.False:
		return pgtype.Text{String: "False", Valid: true}
	case gjson.String:
		return pgtype.Text{String: v.Str, Valid: true}
	case gjson.Number:
		return pgtype.Text{String: v.Raw, Valid: true}
	default:
		return pgtype.Text{String: string(pretty.Ugly([]byte(v.Raw))), Valid: true}
	}
}

// flatten builds a raw table from decoded objects. Columns are the union of
// keys in first-seen order; absent members are null.
func flatten(name string, objects [][]field) core.RawTable {
	table := core.RawTable{Name: name}
	index := make(map[string]int)

	for _, obj := range objects {
		for _, f := range obj {
			if _, ok := index[f.key]; !ok {
				index[f.key] = len(table.Columns)
				table.Columns = append(table.Columns, f.key)
			}
		}
	}

	table.Rows = make([][]pgtype.Text, len(objects))
	for i, obj := range objects {
		row := make([]pgtype.Text, len(table.Columns))
		for _, f := range obj {
			row[index[f.key]] = f.value
		}
		table.Rows[i] = row
	}
	return table
}
