package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/exoplorer/internal/storage"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name: "nil error returns empty",
			err:  nil,
		},
		{
			name:        "wrapped empty file sentinel",
			err:         fmt.Errorf("ingest koi.csv: %w", ErrEmptyFile),
			wantCode:    "FILE005",
			wantMessage: "The uploaded file is empty",
		},
		{
			name:        "no table saved",
			err:         ErrNoTable,
			wantCode:    "TBL001",
			wantMessage: "No exoplanet data saved yet",
		},
		{
			name:        "candidate not found with id",
			err:         fmt.Errorf("%w: %d", ErrCandidateNotFound, 42),
			wantCode:    "CAND001",
			wantMessage: "Candidate not found",
		},
		{
			name:        "corrupt storage value",
			err:         fmt.Errorf("load table: %w", storage.ErrCorrupt),
			wantCode:    "STO001",
			wantMessage: "Saved data could not be read",
		},
		{
			name:        "prediction disabled wins over generic prediction failure",
			err:         errors.New("prediction service disabled"),
			wantCode:    "PRED002",
			wantMessage: "Predictions are not configured",
		},
		{
			name:        "prediction service status",
			err:         errors.New("prediction service returned 500: model not loaded"),
			wantCode:    "PRED001",
			wantMessage: "Prediction service is unavailable",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "STO002",
			wantMessage: "Unable to reach storage",
		},
		{
			name:        "file type from the file store",
			err:         errors.New("file type not allowed: .exe"),
			wantCode:    "FILE006",
			wantMessage: "This file type is not allowed",
		},
		{
			name:        "upload slots exhausted",
			err:         fmt.Errorf("acquire: %w", ErrTooManyUploads),
			wantCode:    "UPL001",
			wantMessage: "System is busy processing other uploads",
		},
		{
			name:        "deadline text",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "UPL003",
			wantMessage: "Request timed out",
		},
		{
			name:        "wrapped context canceled",
			err:         fmt.Errorf("load: %w", context.Canceled),
			wantCode:    "UPL002",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("FILE TOO LARGE"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
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
	result := FormatUserError(ErrNoFields)

	expected := "Enter at least one value (Code: CAND002). Fill in one or more candidate fields"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
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
			err:  ErrEmptyFile,
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
