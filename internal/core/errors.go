package core

import "errors"

// Fatal table errors. A cleaner returning one of these produces no output for
// its table.
var (
	ErrMissingColumn   = errors.New("missing required column")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNoDigits        = errors.New("no digits in ownership text")
	ErrColumnCollision = errors.New("column name collision")
)
