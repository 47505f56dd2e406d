package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped invalid date",
			err:         fmt.Errorf("invoices.INVDATE row 3: %w", ErrInvalidDate),
			wantCode:    "VAL001",
			wantMessage: "Invalid date format detected",
		},
		{
			name:        "wrapped missing column",
			err:         fmt.Errorf("flight_data: %w: eta", ErrMissingColumn),
			wantCode:    "VAL004",
			wantMessage: "Required column is missing from CSV",
		},
		{
			name:        "joined errors match the first sentinel found",
			err:         errors.Join(errors.New("other"), fmt.Errorf("x: %w", ErrNoDigits)),
			wantCode:    "VAL007",
			wantMessage: "Aircraft ownership text has no hour count",
		},
		{
			name:        "collision",
			err:         fmt.Errorf("Asset: %w", ErrColumnCollision),
			wantCode:    "CFG001",
			wantMessage: "Two columns map to the same name",
		},
		{
			name:        "storage pattern",
			err:         errors.New("storage: list rawdata: 403"),
			wantCode:    "STO001",
			wantMessage: "Object storage is unavailable",
		},
		{
			name:        "deadline before generic timeout",
			err:         fmt.Errorf("run: %w", context.DeadlineExceeded),
			wantCode:    "RUN002",
			wantMessage: "The run timed out",
		},
		{
			name:        "run in progress",
			err:         errors.New("a pipeline run is already in progress"),
			wantCode:    "RUN003",
			wantMessage: "Another run is in progress",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("flight_data.eta row 1: %w", ErrInvalidDate)
	result := FormatUserError(err)

	expected := "Invalid date format detected (Code: VAL001). Check the date columns of the source extract"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrMissingColumn,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
