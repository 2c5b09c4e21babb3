package core

// error_messages.go maps technical errors to user-facing messages with a
// support code. Codes by category:
//
//	FILE001-FILE009  file handling (size, format, encoding, names)
//	TBL001           no saved exoplanet table
//	CAND001-CAND003  candidate records
//	STO001-STO003    storage backend
//	PRED001-PRED002  external prediction service
//	UPL001-UPL003    upload slots and request lifetime
//	RATE001          request throttling
//	ERR000           fallback; check the server log for the original error
//
// Sentinel errors are matched with errors.Is first. Anything else is matched
// case-insensitively against errorPatterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/exoplorer/internal/storage"
)

// Domain errors. Their texts double as match patterns so wrapped copies
// that crossed a process boundary still map to the same code.
var (
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoFile            = errors.New("no file provided")
	ErrNoTable           = errors.New("no exoplanet table saved")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrNoFields          = errors.New("no candidate fields provided")
	ErrNoCandidates      = errors.New("no candidates saved")
	ErrTooManyUploads    = errors.New("too many uploads in progress")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge  = UserMessage{"File exceeds the maximum size", "Upload a smaller file (10MB max by default)", "FILE001"}
	msgEncoding      = UserMessage{"File contains invalid characters", "Save the file as UTF-8", "FILE003"}
	msgNoFile        = UserMessage{"No file was selected", "Select a file to upload", "FILE004"}
	msgEmptyFile     = UserMessage{"The uploaded file is empty", "Upload a CSV file with a header row", "FILE005"}
	msgFileType      = UserMessage{"This file type is not allowed", "Upload an image, PDF, text or Word document", "FILE006"}
	msgFileNotFound  = UserMessage{"File not found", "Refresh the gallery and try again", "FILE007"}
	msgFileName      = UserMessage{"Invalid file name", "Use the name shown in the gallery", "FILE008"}
	msgUnsupported   = UserMessage{"Unsupported table format", "Upload a .csv or .xlsx file", "FILE009"}
	msgNoTable       = UserMessage{"No exoplanet data saved yet", "Upload a CSV file to create the table", "TBL001"}
	msgNoCandidate   = UserMessage{"Candidate not found", "It may have been deleted already", "CAND001"}
	msgNoFields      = UserMessage{"Enter at least one value", "Fill in one or more candidate fields", "CAND002"}
	msgNoCandidates  = UserMessage{"No candidates to export", "Save a candidate first", "CAND003"}
	msgCorrupt       = UserMessage{"Saved data could not be read", "Clear the affected data and upload it again", "STO001"}
	msgStorageDown   = UserMessage{"Unable to reach storage", "Please try again in a few moments", "STO002"}
	msgStorageSlow   = UserMessage{"Storage operation timed out", "Please try again", "STO003"}
	msgPredictOff    = UserMessage{"Predictions are not configured", "Set PREDICT_URL to enable the classifier", "PRED002"}
	msgPredictFailed = UserMessage{"Prediction service is unavailable", "Check that the prediction API is running and retry", "PRED001"}
	msgBusy          = UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL001"}
	msgCanceled      = UserMessage{"Request was cancelled", "Please try again", "UPL002"}
	msgDeadline      = UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL003"}
	msgRateLimited   = UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}
)

// sentinelMessages is consulted with errors.Is before pattern matching.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrNoFile, msgNoFile},
	{ErrEmptyFile, msgEmptyFile},
	{ErrUnsupportedFormat, msgUnsupported},
	{ErrNoTable, msgNoTable},
	{ErrCandidateNotFound, msgNoCandidate},
	{ErrNoFields, msgNoFields},
	{ErrNoCandidates, msgNoCandidates},
	{ErrTooManyUploads, msgBusy},
	{storage.ErrCorrupt, msgCorrupt},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors from other packages and libraries.
// Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{"prediction service disabled", msgPredictOff},
	{"prediction service", msgPredictFailed},

	{"file too large", msgFileTooLarge},
	{"request body too large", msgFileTooLarge},
	{"file type not allowed", msgFileType},
	{"file not found", msgFileNotFound},
	{"invalid file name", msgFileName},
	{"encoding error", msgEncoding},
	{"no file provided", msgNoFile},
	{"empty file", msgEmptyFile},

	{"too many uploads", msgBusy},

	{"connection refused", msgStorageDown},
	{"storage:", msgStorageDown},

	{"context canceled", msgCanceled},
	{"context deadline exceeded", msgDeadline},
	{"timeout", msgStorageSlow},

	{"rate limit", msgRateLimited},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("save table: %w", ErrEmptyFile))
//	// msg.Code == "FILE005"
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

	switch {
	case errors.Is(err, context.Canceled):
		return msgCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
