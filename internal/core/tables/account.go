package tables

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// AccountIdentity are the source columns kept in the Account output.
var AccountIdentity = []string{"Id", "Fl3xx_Id__c", "Name", "Primary_Contact__c"}

// OwnershipSlot names the source columns of one aircraft ownership group.
// Type lists accepted spellings, preferred first.
type OwnershipSlot struct {
	Type  []string
	Hours string
	Lease string
}

// OwnershipSlots are the three repeated groups on a source Account row.
// The CRM export spells the second type column with a single underscore.
var OwnershipSlots = []OwnershipSlot{
	{
		Type:  []string{"Aircraft_Type_Owned__c"},
		Hours: "Aircraft_Ownership__c",
		Lease: "Lease_Renewal_Date__c",
	},
	{
		Type:  []string{"Aircraft_Type_Owned_2__c", "Aircraft_Type_Owned_2_c"},
		Hours: "Aircraft_Ownership_2__c",
		Lease: "Lease_Renewal_Date_2__c",
	},
	{
		Type:  []string{"Aircraft_Type_Owned_3__c"},
		Hours: "Aircraft_Ownership_3__c",
		Lease: "Lease_Renewal_Date_3__c",
	},
}

// ownershipColumns are named like the slot 1 source columns so the shared
// normalizer yields account_id, aircraft_type_owned, lease_renewal_date and
// aircraft_ownership_hours.
var ownershipColumns = []core.Column{
	{Name: "Account_Id", Type: core.FieldText},
	{Name: "Aircraft_Type_Owned__c", Type: core.FieldText},
	{Name: "Lease_Renewal_Date__c", Type: core.FieldDate},
	{Name: "Aircraft_Ownership_hours", Type: core.FieldInteger},
}

type slotIndex struct {
	typ, hours, lease int
}

// SplitAccounts produces the Account identity table and the Ownership table
// derived from the slot groups. A slot yields an ownership row only when its
// type is set; its hours text must then contain digits.
func SplitAccounts(raw core.RawTable) (accounts, owners *core.Frame, err error) {
	identity, err := core.RequireColumns(raw.Name, raw.Columns, AccountIdentity...)
	if err != nil {
		return nil, nil, err
	}
	slots, err := resolveSlots(raw)
	if err != nil {
		return nil, nil, err
	}

	accounts = core.FromRaw(raw).Project(identity...)
	if err := accounts.RenameColumns(core.NormalizeCustomField); err != nil {
		return nil, nil, err
	}

	id := identity[0]
	rows, err := flatMap(raw.Rows, func(i int, r []pgtype.Text) ([]core.Row, error) {
		return ownershipRows(r, id, slots, i+1)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", core.OwnershipTable, err)
	}

	owners = &core.Frame{
		Name:    core.OwnershipTable,
		Columns: append([]core.Column(nil), ownershipColumns...),
		Rows:    rows,
	}
	if err := owners.RenameColumns(core.NormalizeCustomField); err != nil {
		return nil, nil, err
	}
	return accounts, owners, nil
}

func resolveSlots(raw core.RawTable) ([]slotIndex, error) {
	out := make([]slotIndex, len(OwnershipSlots))
	for i, s := range OwnershipSlots {
		typ, err := core.RequireColumn(raw.Name, raw.Columns, s.Type...)
		if err != nil {
			return nil, err
		}
		idx, err := core.RequireColumns(raw.Name, raw.Columns, s.Hours, s.Lease)
		if err != nil {
			return nil, err
		}
		out[i] = slotIndex{typ: typ, hours: idx[0], lease: idx[1]}
	}
	return out, nil
}

// ownershipRows expands one account row into its populated slots.
func ownershipRows(r []pgtype.Text, id int, slots []slotIndex, line int) ([]core.Row, error) {
	var out []core.Row
	for _, s := range slots {
		typ := cell(r, s.typ)
		if !typ.Valid {
			continue
		}
		hours, err := core.ExtractInt(cell(r, s.hours))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, core.Row{cell(r, id), typ, core.ToPgDate(cell(r, s.lease)), hours})
	}
	return out, nil
}

func cell(r []pgtype.Text, i int) pgtype.Text {
	if i < len(r) {
		return r[i]
	}
	return pgtype.Text{}
}

// flatMap concatenates fn over in, stopping at the first error.
func flatMap[T, U any](in []T, fn func(int, T) ([]U, error)) ([]U, error) {
	out := make([]U, 0, len(in))
	for i, v := range in {
		us, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		out = append(out, us...)
	}
	return out, nil
}
