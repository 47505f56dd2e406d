package core

// convert.go provides cell coercions from raw CSV text to pgtype values.
//
// Two date policies exist side by side:
//   - Lenient parsing (ToPgDate) never fails; unparseable input
//     becomes an invalid (null) value.
//   - Strict parsing (ParseTimestamp, ParseDateLayout) returns ErrInvalidDate
//     for any non-null value it cannot read.
//
// Null input (Valid=false) is always passed through as null.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// digitsRegex matches the first run of decimal digits in free text.
var digitsRegex = regexp.MustCompile(`[0-9]+`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Layouts split by year format for proper 2-digit year handling.
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
	}
	// Fractional seconds after the seconds field are accepted by time.Parse
	// even when the layout omits them.
	zonedTimestampLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05-0700",
	}
	naiveTimestampLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006 3:04:05 PM",
	}
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// parseTime tries every known layout and returns the instant in UTC for zoned
// input, or as a wall-clock UTC value for naive input.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range zonedTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// truncateDate keeps the calendar date as seen in t's own offset.
func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToPgDate parses a date or timestamp leniently and keeps only the calendar
// date. Unparseable values become null.
func ToPgDate(s pgtype.Text) pgtype.Date {
	if !s.Valid {
		return pgtype.Date{Valid: false}
	}
	t, ok := parseTime(s.String)
	if !ok {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: truncateDate(t), Valid: true}
}

// ParseDateLayout parses s with exactly one layout. A non-null value that does
// not match is an ErrInvalidDate.
func ParseDateLayout(s pgtype.Text, layout string) (pgtype.Date, error) {
	if !s.Valid {
		return pgtype.Date{Valid: false}, nil
	}
	v := strings.TrimSpace(s.String)
	if len(v) != len(layout) {
		return pgtype.Date{}, fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, s.String, layout)
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return pgtype.Date{}, fmt.Errorf("%w: %q does not match %s", ErrInvalidDate, s.String, layout)
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

// ParseTimestamp parses s strictly. Null stays null; any other unparseable
// value is an ErrInvalidDate. A value with an offset is converted to UTC and
// returned as wall-clock time, since the column carries no zone.
func ParseTimestamp(s pgtype.Text) (pgtype.Timestamp, error) {
	if !s.Valid {
		return pgtype.Timestamp{Valid: false}, nil
	}
	t, ok := parseTime(s.String)
	if !ok {
		return pgtype.Timestamp{}, fmt.Errorf("%w: %q is not a timestamp", ErrInvalidDate, s.String)
	}
	return pgtype.Timestamp{Time: wallClockUTC(t), Valid: true}, nil
}

func wallClockUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond(), time.UTC)
}

// falsy lists the values Truthy treats as false (compared lowercased): the
// empty string plus the boolean and numeric spellings of false.
var falsy = map[string]bool{
	"":      true,
	"false": true,
	"0":     true,
	"0.0":   true,
}

// Truthy coerces a cell to a boolean. A missing value is true, like any other
// non-empty text; only the falsy spellings are false. The result is never
// null.
func Truthy(s pgtype.Text) pgtype.Bool {
	if !s.Valid {
		return pgtype.Bool{Bool: true, Valid: true}
	}
	return pgtype.Bool{Bool: !falsy[strings.ToLower(s.String)], Valid: true}
}

// ExtractInt returns the first run of decimal digits in s as an integer.
// Text without digits, including null, is an ErrNoDigits.
func ExtractInt(s pgtype.Text) (pgtype.Int8, error) {
	if !s.Valid {
		return pgtype.Int8{}, fmt.Errorf("%w: value is null", ErrNoDigits)
	}
	m := digitsRegex.FindString(s.String)
	if m == "" {
		return pgtype.Int8{}, fmt.Errorf("%w: %q", ErrNoDigits, s.String)
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return pgtype.Int8{}, fmt.Errorf("%w: %q: %v", ErrNoDigits, s.String, err)
	}
	return pgtype.Int8{Int64: n, Valid: true}, nil
}

// IsNull reports whether a canonical cell holds no value.
func IsNull(v any) bool {
	switch c := v.(type) {
	case nil:
		return true
	case pgtype.Text:
		return !c.Valid
	case pgtype.Date:
		return !c.Valid
	case pgtype.Timestamp:
		return !c.Valid
	case pgtype.Bool:
		return !c.Valid
	case pgtype.Int8:
		return !c.Valid
	default:
		return false
	}
}

// FormatCell renders a canonical cell the way it is written to CSV.
// Null renders as the empty string.
func FormatCell(v any) string {
	if IsNull(v) {
		return ""
	}
	switch c := v.(type) {
	case pgtype.Text:
		return c.String
	case pgtype.Date:
		return c.Time.Format("2006-01-02")
	case pgtype.Timestamp:
		return c.Time.Format("2006-01-02 15:04:05.999999999")
	case pgtype.Bool:
		if c.Bool {
			return "True"
		}
		return "False"
	case pgtype.Int8:
		return strconv.FormatInt(c.Int64, 10)
	default:
		return fmt.Sprint(v)
	}
}
