package core

// export.go serializes DataRecords to CSV for download.
//
// Column order is fixed and matches what the importer recognizes, so an
// exported file can be re-imported unchanged. resumeUrl and id are not
// exported.

import (
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNothingToExport is returned when an export is requested for an empty
// record set.
var ErrNothingToExport = errors.New("nothing to export: no applications found")

// ExportHeader is the header row written by MarshalCSV.
var ExportHeader = []string{"Company", "Role", "Date Applied", "Status", "Visa Sponsorship", "Notes"}

// ExportContentType is the MIME type of exported files.
const ExportContentType = "text/csv; charset=utf-8"

// ExportFileName returns the download name for an export taken at t.
func ExportFileName(t time.Time) string {
	return "job-applications-" + t.Format("2006-01-02") + ".csv"
}

// MarshalCSV renders records as CSV text with CRLF line endings. An empty
// slice yields an empty string.
func MarshalCSV(records []DataRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	writeRow(&b, ExportHeader)
	for _, r := range records {
		writeRow(&b, []string{
			r.Company,
			r.Role,
			r.DateApplied,
			string(r.Status),
			yesNo(r.VisaSponsorship),
			r.Notes,
		})
	}
	return b.String()
}

// WriteCSV writes records to w as a downloadable file: a UTF-8 BOM followed
// by MarshalCSV output. Nothing is written for an empty slice.
func WriteCSV(w io.Writer, records []DataRecord) error {
	if len(records) == 0 {
		return nil
	}
	enc := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	if _, err := io.WriteString(enc, MarshalCSV(records)); err != nil {
		return err
	}
	return enc.Close()
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeField(f))
	}
	b.WriteString("\r\n")
}

// EscapeField quotes f when it contains a comma, double quote, CR or LF,
// doubling any embedded quotes.
func EscapeField(f string) string {
	if !strings.ContainsAny(f, ",\"\r\n") {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
