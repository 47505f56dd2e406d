package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Codes are grouped by category:
//
//	VAL001 - Invalid date: a date column could not be parsed
//	VAL004 - Missing column: a required column is absent from the CSV
//	VAL007 - Ownership hours: ownership text holds no number
//	CFG001 - Column collision: two source columns normalize to one name
//	FILE002 - Invalid CSV: file is not a valid CSV
//	FILE003 - Encoding error: file contains invalid characters
//	FILE005 - Empty file: the file has no header row
//	STO001 - Storage unavailable: object storage could not be reached
//	STO002 - Object not found: a raw file disappeared during the run
//	DB001  - Duplicate key: the warehouse rejected a duplicate row
//	DB004  - Connection refused: the warehouse could not be reached
//	DB006  - Timeout: an operation timed out
//	RUN001 - Cancelled: the run was cancelled
//	RUN002 - Deadline: the run exceeded its time budget
//	RUN003 - Busy: another run holds the run slot
//	ERR000 - Unknown error: fallback, check the logs
//
// Sentinel errors from this package are matched with errors.Is before any
// pattern is tried. Patterns are matched case-insensitively with
// strings.Contains; the first match wins.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages are checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInvalidDate, UserMessage{
		Message: "Invalid date format detected",
		Action:  "Check the date columns of the source extract",
		Code:    "VAL001",
	}},
	{ErrMissingColumn, UserMessage{
		Message: "Required column is missing from CSV",
		Action:  "Check that all required columns are present in the extract",
		Code:    "VAL004",
	}},
	{ErrNoDigits, UserMessage{
		Message: "Aircraft ownership text has no hour count",
		Action:  "Fill in the ownership hours for every listed aircraft",
		Code:    "VAL007",
	}},
	{ErrColumnCollision, UserMessage{
		Message: "Two columns map to the same name",
		Action:  "Rename or remove the duplicate column in the extract",
		Code:    "CFG001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// More specific patterns come before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Export the table again with a header row",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Storage Errors
	// =========================================================================
	{
		pattern: "object not found",
		msg: UserMessage{
			Message: "A raw file was not found",
			Action:  "Check the raw container and run again",
			Code:    "STO002",
		},
	},
	{
		pattern: "storage:",
		msg: UserMessage{
			Message: "Object storage is unavailable",
			Action:  "Check the storage connection settings",
			Code:    "STO001",
		},
	},

	// =========================================================================
	// Warehouse Errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check the warehouse table for stale constraints",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},

	// =========================================================================
	// Run Errors
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Trigger the run again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The run timed out",
			Action:  "Raise PIPELINE_TIMEOUT or try again later",
			Code:    "RUN002",
		},
	},
	{
		pattern: "already in progress",
		msg: UserMessage{
			Message: "Another run is in progress",
			Action:  "Retry once the current run completes",
			Code:    "RUN003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win over text patterns; ERR000 is the fallback.
//
// Example:
//
//	msg := MapError(fmt.Errorf("invoices: %w", ErrInvalidDate))
//	// msg.Code == "VAL001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
