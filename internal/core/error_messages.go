package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Error Codes Reference
//
// Database (DB001-DB099):
//
//	DB001 - Duplicate key             Patterns: "duplicate key"
//	DB002 - Unique constraint         Patterns: "unique constraint", "violates unique"
//	DB004 - Connection refused        Patterns: "connection refused"
//	DB005 - Connection reset          Patterns: "connection reset"
//	DB006 - Timeout                   Patterns: "timeout"
//	DB007 - Deadlock                  Patterns: "deadlock"
//	DB008 - Database locked (SQLite)  Patterns: "database is locked"
//
// Validation (VAL001-VAL099):
//
//	VAL001 - Invalid date             Patterns: "invalid date"
//	VAL003 - Required field           Patterns: "required field"
//	VAL006 - Unknown status           Patterns: "unknown status"
//	VAL007 - Field too long           Patterns: "characters or fewer"
//	VAL008 - Invalid request body     Patterns: "invalid request body"
//
// File (FILE001-FILE099):
//
//	FILE001 - File too large          Patterns: "file too large"
//	FILE002 - Invalid CSV             Patterns: "invalid csv"
//	FILE003 - Unreadable file         Patterns: "unreadable file"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//	FILE006 - Wrong file type         Patterns: "invalid file type"
//
// Import (UPL001-UPL099):
//
//	UPL002 - System busy              Patterns: "too many concurrent imports"
//	UPL004 - Request cancelled        Patterns: "context canceled"
//	UPL005 - Request timeout          Patterns: "context deadline exceeded"
//
// Export (EXP001-EXP099):
//
//	EXP001 - Nothing to export        Patterns: "nothing to export"
//
// Mirror (SYNC001-SYNC099):
//
//	SYNC001 - Notion sync failed      Patterns: "notion"
//
// Access (AUTH001, RATE001):
//
//	AUTH001 - Invalid API key         Patterns: "api key"
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// ERR000 is the fallback when nothing matches; check the server logs for
// the original error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Database
	{"duplicate key", UserMessage{"An application with this ID already exists", "Remove the id column to import as new records", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your CSV", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate ids", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"database is locked", UserMessage{"Database is busy", "Please try again", "DB008"}},

	// Import and request lifecycle. These come before "timeout" so a
	// deadline is reported as a request timeout.
	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},

	// Validation
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD or MM/DD/YYYY", "VAL001"}},
	{"required field", UserMessage{"Required field is empty", "Ensure company and role have values", "VAL003"}},
	{"unknown status", UserMessage{"Status is not recognized", "Use Applied, Phone Screen, Technical Interview, Final Round, Offer or Rejected", "VAL006"}},
	{"characters or fewer", UserMessage{"A value is too long", "Shorten company and role to 100 characters", "VAL007"}},
	{"invalid request body", UserMessage{"The request could not be read", "Send a JSON object with company and role", "VAL008"}},

	// File
	{"file too large", UserMessage{"File exceeds maximum size limit (5MB)", "Split the file into smaller chunks", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Check for unbalanced quotes in the flagged rows", "FILE002"}},
	{"unreadable file", UserMessage{"The file could not be read", "Save the file again and re-upload it", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE005"}},
	{"invalid file type", UserMessage{"Only CSV files can be imported", "Export your spreadsheet as .csv and try again", "FILE006"}},

	// Export
	{"nothing to export", UserMessage{"There are no applications to export", "Add or import applications first", "EXP001"}},

	// Mirror
	{"notion", UserMessage{"Syncing to Notion failed", "Check the Notion token and database sharing settings", "SYNC001"}},

	// Access
	{"api key", UserMessage{"Invalid or missing API key", "Provide a valid X-API-Key header", "AUTH001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The
// first matching pattern wins; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// HTTPStatus picks the response status for errors returned by the service.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidExtension), errors.Is(err, ErrEmptyFile),
		errors.Is(err, ErrUnreadableFile), errors.Is(err, ErrInvalidCapture):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNothingToExport):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
