package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDecodeObject_KeepsOrder(t *testing.T) {
	fields, err := decodeObject([]byte(`{"b":1,"a":"x","c":null,"b":2}`))
	require.NoError(t, err)
	require.Len(t, fields, 3)

	assert.Equal(t, "b", fields[0].key)
	assert.Equal(t, "2", fields[0].value.String, "last value wins")
	assert.Equal(t, "a", fields[1].key)
	assert.False(t, fields[2].value.Valid, "null stays null")
}

func TestDecodeObject_Rejects(t *testing.T) {
	for _, body := range []string{`[1]`, `"flight"`, ``, `{"a":`} {
		_, err := decodeObject([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		valid bool
	}{
		{`"C-GABC"`, "C-GABC", true},
		{`"line\nbreak"`, "line\nbreak", true},
		{`12345678901234567890`, "12345678901234567890", true},
		{`false`, "False", true},
		{`{ "a" : [1, 2] }`, `{"a":[1,2]}`, true},
		{`null`, "", false},
	}
	for _, tt := range tests {
		got := cellValue(gjson.Parse(tt.raw))
		assert.Equal(t, tt.valid, got.Valid, tt.raw)
		assert.Equal(t, tt.want, got.String, tt.raw)
	}
}

func TestFlatten_UnionOfKeys(t *testing.T) {
	a, err := decodeObject([]byte(`{"id":1,"eta":"x"}`))
	require.NoError(t, err)
	b, err := decodeObject([]byte(`{"etd":"y","id":2}`))
	require.NoError(t, err)

	raw := flatten("flight_data", [][]field{a, b})
	assert.Equal(t, []string{"id", "eta", "etd"}, raw.Columns)
	require.Len(t, raw.Rows, 2)
	assert.False(t, raw.Rows[0][2].Valid)
	assert.False(t, raw.Rows[1][1].Valid)
	assert.Equal(t, "2", raw.Rows[1][0].String)
}
