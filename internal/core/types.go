package core

import (
	"fmt"
	"io"
	"time"
)

// Status is one of the canonical application statuses.
type Status string

const (
	StatusApplied            Status = "Applied"
	StatusPhoneScreen        Status = "Phone Screen"
	StatusTechnicalInterview Status = "Technical Interview"
	StatusFinalRound         Status = "Final Round"
	StatusOffer              Status = "Offer"
	StatusRejected           Status = "Rejected"
)

// Statuses lists the canonical statuses in pipeline order.
func Statuses() []Status {
	return []Status{
		StatusApplied,
		StatusPhoneScreen,
		StatusTechnicalInterview,
		StatusFinalRound,
		StatusOffer,
		StatusRejected,
	}
}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	for _, c := range Statuses() {
		if s == c {
			return true
		}
	}
	return false
}

// Canonical field names produced by header normalization.
const (
	FieldID              = "id"
	FieldCompany         = "company"
	FieldRole            = "role"
	FieldDateApplied     = "dateApplied"
	FieldStatus          = "status"
	FieldVisaSponsorship = "visaSponsorship"
	FieldNotes           = "notes"
	FieldResumeURL       = "resumeUrl"
)

// DataRecord is one validated job application.
// Records are only built by the row validator, so every field is within its domain.
type DataRecord struct {
	ID              string `json:"id"`
	Company         string `json:"company"`
	Role            string `json:"role"`
	DateApplied     string `json:"dateApplied"` // YYYY-MM-DD
	Status          Status `json:"status"`
	VisaSponsorship bool   `json:"visaSponsorship"`
	Notes           string `json:"notes,omitempty"`
	ResumeURL       string `json:"resumeUrl,omitempty"`
}

// ImportError describes one rejected row or field.
type ImportError struct {
	Row     int    `json:"row"`             // 1-based, header excluded
	Field   string `json:"field,omitempty"` // empty for parse-level errors
	Message string `json:"message"`
	Data    string `json:"data,omitempty"` // raw offending value
}

func (e ImportError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportPhase indicates the current stage of an import.
type ImportPhase string

const (
	PhaseIdle       ImportPhase = "idle"
	PhaseValidating ImportPhase = "validating"
	PhaseStreaming  ImportPhase = "streaming"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
	PhaseAborted    ImportPhase = "aborted"
)

// ImportProgress is a snapshot of a running import.
type ImportProgress struct {
	Phase         ImportPhase `json:"phase"`
	FileName      string      `json:"fileName"`
	Loaded        int64       `json:"loaded"`
	Total         int64       `json:"total"`
	RowsProcessed int         `json:"rowsProcessed"`
	Errors        int         `json:"errors"`
}

// Percent returns the byte-based progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	pct := int(p.Loaded * 100 / p.Total)
	if pct > 100 {
		return 100
	}
	return pct
}

// ImportResult is the terminal outcome of one import call.
type ImportResult struct {
	ImportID string        `json:"importId"`
	FileName string        `json:"fileName"`
	Success  bool          `json:"success"`
	Imported []DataRecord  `json:"imported"`
	Errors   []ImportError `json:"errors"`
	Skipped  int           `json:"skipped"`
	Aborted  bool          `json:"aborted,omitempty"`

	// Saved counts the records written by Service.Import. It stays zero for
	// dry runs and aborted imports even when Imported is not empty.
	Saved int `json:"saved"`

	// Progress holds the terminal counts, whether or not they fell on an
	// emission boundary.
	Progress ImportProgress `json:"progress"`
	Duration time.Duration  `json:"duration"`
}

// ProgressCallback is called periodically during import processing.
type ProgressCallback func(ImportProgress)

// FileSource is an uploaded file handed to the importer.
type FileSource struct {
	Name   string
	Size   int64
	Reader io.Reader
}
