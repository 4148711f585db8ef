package core

// validation.go turns one normalized CSV row into a DataRecord.
//
// All rules run on every row so a single row can report several field
// errors at once. A row either yields a record and no errors, or no record
// and at least one error.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxFieldLength is the maximum length, in characters, of company and role.
const MaxFieldLength = 100

// RawRow maps canonical field names to raw cell values for one row.
type RawRow map[string]string

// Get returns the trimmed value for field, or "" if absent.
func (r RawRow) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// RowValidator validates rows and builds records.
type RowValidator struct {
	newID func() string
}

// NewRowValidator creates a validator that assigns time-ordered UUIDs to
// rows without an id.
func NewRowValidator() *RowValidator {
	return &RowValidator{newID: newRecordID}
}

// newRecordID returns a UUIDv7: a millisecond timestamp prefix followed by
// random bits, unique within and across import runs.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Validate checks one row. rowNum is the 1-based data row index used in
// error reports.
func (v *RowValidator) Validate(row RawRow, rowNum int) (*DataRecord, []ImportError) {
	var errs []ImportError

	company, err := requiredText(row, FieldCompany, rowNum)
	if err != nil {
		errs = append(errs, *err)
	}

	role, err := requiredText(row, FieldRole, rowNum)
	if err != nil {
		errs = append(errs, *err)
	}

	rawDate := row.Get(FieldDateApplied)
	date, ok := ParseDate(rawDate)
	if !ok {
		errs = append(errs, ImportError{
			Row:     rowNum,
			Field:   FieldDateApplied,
			Message: "invalid date format (use YYYY-MM-DD, MM/DD/YYYY, DD/MM/YYYY, MM-DD-YYYY or DD-MM-YYYY)",
			Data:    row[FieldDateApplied],
		})
	}

	status, ok := NormalizeStatus(row[FieldStatus])
	if !ok {
		errs = append(errs, ImportError{
			Row:     rowNum,
			Field:   FieldStatus,
			Message: fmt.Sprintf("unknown status (must be one of: %s)", statusList()),
			Data:    row[FieldStatus],
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	rec := &DataRecord{
		ID:              row.Get(FieldID),
		Company:         company,
		Role:            role,
		DateApplied:     date,
		Status:          status,
		VisaSponsorship: ResolveVisaSponsorship(row[FieldVisaSponsorship], company),
		Notes:           row.Get(FieldNotes),
		ResumeURL:       row.Get(FieldResumeURL),
	}
	if rec.ID == "" {
		rec.ID = v.newID()
	}
	return rec, nil
}

// requiredText enforces the non-empty and length rules for company and role.
func requiredText(row RawRow, field string, rowNum int) (string, *ImportError) {
	val := row.Get(field)
	if val == "" {
		return "", &ImportError{
			Row:     rowNum,
			Field:   field,
			Message: "required field is empty",
			Data:    row[field],
		}
	}
	if utf8.RuneCountInString(val) > MaxFieldLength {
		return "", &ImportError{
			Row:     rowNum,
			Field:   field,
			Message: fmt.Sprintf("must be %d characters or fewer", MaxFieldLength),
			Data:    row[field],
		}
	}
	return val, nil
}

func statusList() string {
	names := make([]string, 0, 6)
	for _, s := range Statuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
