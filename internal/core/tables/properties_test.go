package tables

import (
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

func fixtures() map[core.Kind]core.RawTable {
	return map[core.Kind]core.RawTable{
		core.KindAircraft:    aircraftFixture(),
		core.KindOpportunity: opportunityFixture(),
		core.KindFlightData:  flightFixture(),
		core.KindInvoices:    invoiceFixture(),
		core.KindAsset: rawTable("Asset", []string{"Id", "Opportunity__c"},
			[]string{"1", "006A"}, []string{"2", nul}),
		core.KindAccount: rawTable("Account", accountCols,
			accountRow("A1", [3]string{"CJ3", "150", "2024-03-01"}),
			accountRow("A2", [3]string{nul, nul, nul}, [3]string{"PC-12", "80 hrs", nul})),
	}
}

func TestCleaners_Deterministic(t *testing.T) {
	reg, err := NewRegistry(DefaultConfig())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for kind, raw := range fixtures() {
		t.Run(kind.String(), func(t *testing.T) {
			def, _ := reg.Get(kind)
			first, err := def.Clean(raw)
			if err != nil {
				t.Fatalf("first Clean() error = %v", err)
			}
			second, err := def.Clean(raw)
			if err != nil {
				t.Fatalf("second Clean() error = %v", err)
			}
			for i := range first {
				if !reflect.DeepEqual(first[i].ColumnNames(), second[i].ColumnNames()) ||
					joinRows(render(first[i])) != joinRows(render(second[i])) {
					t.Errorf("frame %s differs between runs", first[i].Name)
				}
			}
		})
	}
}

func TestCleaners_Idempotent(t *testing.T) {
	cityCode := map[string]string{}
	for code, city := range AirportCities {
		cityCode[city] = code
	}
	toCode := func(c any) string {
		if code, ok := cityCode[core.FormatCell(c)]; ok {
			return code
		}
		return core.FormatCell(c)
	}

	tests := []struct {
		name    string
		raw     core.RawTable
		clean   func(core.RawTable) (*core.Frame, error)
		formats map[int]func(any) string
	}{
		{name: "aircraft", raw: aircraftFixture(), clean: CleanAircraft},
		{name: "opportunity", raw: opportunityFixture(), clean: CleanOpportunity},
		{
			name:    "flight",
			raw:     flightFixture(),
			clean:   cleanFlight,
			formats: map[int]func(any) string{5: toCode, 6: toCode},
		},
		{
			name:  "invoices",
			raw:   invoiceFixture(),
			clean: CleanInvoices,
			formats: map[int]func(any) string{1: func(c any) string {
				return c.(pgtype.Date).Time.Format(InvoiceDateLayout)
			}},
		},
		{
			name: "asset",
			raw: rawTable("Asset", []string{"Id", "Opportunity__c", "Serial__c"},
				[]string{"1", "006A", nul}, []string{"2", nul, "S"}, []string{"1", "006A", nul}),
			clean: CleanAsset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, err := tt.clean(tt.raw)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			cols := tt.raw.Columns
			if tt.name == "flight" {
				cols = FlightColumns
			}
			twice, err := tt.clean(reRaw(once, cols, tt.formats))
			if err != nil {
				t.Fatalf("Clean(Clean()) error = %v", err)
			}
			if got, want := render(twice), render(once); !reflect.DeepEqual(got, want) {
				t.Errorf("second pass changed output:\n%s\nwant\n%s", joinRows(got), joinRows(want))
			}
		})
	}
}

func TestCleaners_DedupeIdenticalRows(t *testing.T) {
	row := []string{"006A", "2023-01-15", "true", "CJ3"}
	f, err := CleanOpportunity(rawTable("Opportunity", opportunityCols, row, row))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != 1 {
		t.Errorf("Len() = %d, want 1", f.Len())
	}
}
