package core

import (
	"fmt"
	"strings"
)

// CustomFieldMarker is the suffix the CRM appends to custom field names.
const CustomFieldMarker = "__c"

// NormalizeMode selects a column name normalization variant.
type NormalizeMode int

const (
	// NormalizeCustomField trims, lowercases and strips the custom-field marker.
	NormalizeCustomField NormalizeMode = iota

	// NormalizeLower lowercases only.
	NormalizeLower

	// NormalizeAircraft trims, lowercases, turns underscores into spaces, drops
	// the final character and trims trailing whitespace. "Registration__c"
	// becomes "registration".
	NormalizeAircraft
)

// NormalizeColumn returns the normalized form of a single column name.
func NormalizeColumn(name string, mode NormalizeMode) string {
	switch mode {
	case NormalizeLower:
		return strings.ToLower(name)
	case NormalizeAircraft:
		s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", " ")
		if s == "" {
			return s
		}
		r := []rune(s)
		return strings.TrimRight(string(r[:len(r)-1]), " \t")
	default:
		s := strings.ToLower(strings.TrimSpace(name))
		return strings.ReplaceAll(s, CustomFieldMarker, "")
	}
}

// NormalizeColumns normalizes names in order. Two names that normalize to the
// same result are rejected with ErrColumnCollision.
func NormalizeColumns(names []string, mode NormalizeMode) ([]string, error) {
	out := make([]string, len(names))
	seen := make(map[string]string, len(names))

	for i, name := range names {
		norm := NormalizeColumn(name, mode)
		if prev, dup := seen[norm]; dup {
			return nil, fmt.Errorf("%w: %q and %q both normalize to %q", ErrColumnCollision, prev, name, norm)
		}
		seen[norm] = name
		out[i] = norm
	}

	return out, nil
}

// FindColumn returns the position of the first column matching any of the
// given names after trimming and lowercasing both sides, or -1. Names are
// tried in order so the preferred spelling wins over aliases.
func FindColumn(columns []string, names ...string) int {
	for _, name := range names {
		target := strings.ToLower(strings.TrimSpace(name))
		for i, c := range columns {
			if strings.ToLower(strings.TrimSpace(c)) == target {
				return i
			}
		}
	}
	return -1
}

// RequireColumn resolves one logical column that may appear under several
// spellings. The first name is used in the error message.
func RequireColumn(table string, columns []string, names ...string) (int, error) {
	pos := FindColumn(columns, names...)
	if pos < 0 {
		return -1, fmt.Errorf("%s: %w: %s", table, ErrMissingColumn, names[0])
	}
	return pos, nil
}

// RequireColumns resolves each wanted name and returns their positions.
// All unresolved names are reported together as one ErrMissingColumn.
func RequireColumns(table string, columns []string, want ...string) ([]int, error) {
	idx := make([]int, len(want))
	var missing []string

	for i, w := range want {
		pos := FindColumn(columns, w)
		if pos < 0 {
			missing = append(missing, w)
			continue
		}
		idx[i] = pos
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", table, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
