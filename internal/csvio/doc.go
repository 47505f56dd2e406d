// Package csvio decodes raw CSV extracts into core.RawTable values and
// encodes canonical frames back to CSV.
//
// Decoding mirrors how the CRM exports are usually consumed: a byte order
// mark is skipped, UTF-16 files announced by a BOM are transcoded, invalid
// UTF-8 is replaced with U+FFFD, empty cells and the common NA tokens become
// null, and duplicate header names are made unique with a ".N" suffix.
//
// Encoding writes one header row followed by the cells formatted with
// core.FormatCell. Null cells are written as empty fields.
package csvio
