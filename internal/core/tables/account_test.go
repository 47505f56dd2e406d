package tables

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

var accountCols = []string{
	"Id", "Fl3xx_Id__c", "Name", "Primary_Contact__c", "Phone",
	"Aircraft_Type_Owned__c", "Aircraft_Ownership__c", "Lease_Renewal_Date__c",
	"Aircraft_Type_Owned_2_c", "Aircraft_Ownership_2__c", "Lease_Renewal_Date_2__c",
	"Aircraft_Type_Owned_3__c", "Aircraft_Ownership_3__c", "Lease_Renewal_Date_3__c",
}

// accountRow builds a source row with the given slots populated.
func accountRow(id string, slots ...[3]string) []string {
	row := []string{id, "F" + id, "Name " + id, "003" + id, "555",
		nul, nul, nul, nul, nul, nul, nul, nul, nul}
	for i, s := range slots {
		copy(row[5+3*i:], s[:])
	}
	return row
}

func TestSplitAccounts(t *testing.T) {
	raw := rawTable("Account", accountCols,
		accountRow("A1",
			[3]string{"CJ3", "150 hours", "2024-03-01"},
			[3]string{"King Air", "25% share", "garbage"},
		),
		accountRow("A2"),
	)

	accounts, owners, err := SplitAccounts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []string{"id", "fl3xx_id", "name", "primary_contact"}; !reflect.DeepEqual(accounts.ColumnNames(), want) {
		t.Errorf("account columns = %v, want %v", accounts.ColumnNames(), want)
	}
	if accounts.Len() != 2 {
		t.Errorf("accounts.Len() = %d, want 2", accounts.Len())
	}

	wantCols := []string{"account_id", "aircraft_type_owned", "lease_renewal_date", "aircraft_ownership_hours"}
	if !reflect.DeepEqual(owners.ColumnNames(), wantCols) {
		t.Errorf("ownership columns = %v, want %v", owners.ColumnNames(), wantCols)
	}
	if owners.Name != core.OwnershipTable {
		t.Errorf("owners.Name = %q, want %q", owners.Name, core.OwnershipTable)
	}

	want := [][]string{
		{"A1", "CJ3", "2024-03-01", "150"},
		{"A1", "King Air", "<null>", "25"},
	}
	if got := render(owners); !reflect.DeepEqual(got, want) {
		t.Errorf("ownership rows = %v, want %v", got, want)
	}
	if _, ok := owners.Rows[0][3].(pgtype.Int8); !ok {
		t.Errorf("hours cell = %T, want pgtype.Int8", owners.Rows[0][3])
	}
}

func TestSplitAccounts_RowCount(t *testing.T) {
	slot := [3]string{"PC-12", "100", "2025-01-01"}

	// k = 0, 1, 2, 3 populated slots, plus a row with only slot 3.
	raw := rawTable("Account", accountCols,
		accountRow("A0"),
		accountRow("A1", slot),
		accountRow("A2", slot, slot),
		accountRow("A3", slot, slot, slot),
	)
	only3 := accountRow("A4")
	copy(only3[11:], slot[:])
	raw.Rows = append(raw.Rows, rawTable("", nil, only3).Rows...)

	accounts, owners, err := SplitAccounts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if owners.Len() != 0+1+2+3+1 {
		t.Errorf("owners.Len() = %d, want 7", owners.Len())
	}
	if owners.Len() > 3*accounts.Len() {
		t.Errorf("ownership rows exceed three per account")
	}

	ids := map[string]bool{}
	for _, r := range accounts.Rows {
		ids[core.FormatCell(r[0])] = true
	}
	for i, r := range owners.Rows {
		if !ids[core.FormatCell(r[0])] {
			t.Errorf("ownership row %d references unknown account %q", i, core.FormatCell(r[0]))
		}
	}
}

func TestSplitAccounts_EmptyOwnership(t *testing.T) {
	_, owners, err := SplitAccounts(rawTable("Account", accountCols, accountRow("A1")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owners.Len() != 0 || len(owners.Columns) != 4 {
		t.Errorf("owners = %d rows, %d columns; want 0 rows, 4 columns", owners.Len(), len(owners.Columns))
	}
}

func TestSplitAccounts_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  core.RawTable
		want error
	}{
		{
			name: "hours without digits",
			raw:  rawTable("Account", accountCols, accountRow("A1", [3]string{"CJ3", "fractional", nul})),
			want: core.ErrNoDigits,
		},
		{
			name: "hours null",
			raw:  rawTable("Account", accountCols, accountRow("A1", [3]string{"CJ3", nul, nul})),
			want: core.ErrNoDigits,
		},
		{
			name: "missing identity",
			raw:  rawTable("Account", accountCols[1:], []string{"x"}),
			want: core.ErrMissingColumn,
		},
		{
			name: "missing slot",
			raw:  rawTable("Account", accountCols[:11], []string{"x"}),
			want: core.ErrMissingColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitAccounts(tt.raw)
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSplitAccounts_PrefersDoubleUnderscoreSpelling(t *testing.T) {
	cols := append([]string(nil), accountCols...)
	cols[8] = "Aircraft_Type_Owned_2__c"
	raw := rawTable("Account", cols, accountRow("A1", [3]string{nul, nul, nul}, [3]string{"CJ4", "12", nul}))

	_, owners, err := SplitAccounts(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owners.Len() != 1 || core.FormatCell(owners.Rows[0][1]) != "CJ4" {
		t.Errorf("ownership rows = %v", render(owners))
	}
}
