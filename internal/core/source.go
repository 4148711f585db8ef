package core

// source.go prepares an uploaded file for row-by-row CSV parsing.
//
// The raw bytes pass through two layers before reaching encoding/csv:
//
//   - countingReader: tracks bytes consumed from the upload for progress
//   - UTF-8 decoder: drops a leading BOM and replaces invalid sequences
//     with U+FFFD
//
// Nothing is buffered beyond what the csv reader asks for, so memory stays
// flat regardless of file size.

import (
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

// BytesRead returns the number of raw bytes consumed so far.
func (r *countingReader) BytesRead() int64 {
	return r.n
}

// openSource wraps r for parsing. The counting reader sits below the
// decoder so progress is reported in raw upload bytes.
func openSource(r io.Reader) (*countingReader, *csv.Reader) {
	counter := &countingReader{reader: r}
	decoded := transform.NewReader(counter, unicode.UTF8BOM.NewDecoder())

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1 // ragged rows are handled by column lookup
	cr.ReuseRecord = true
	return counter, cr
}

// normalizeColumns maps each header cell to its canonical field name.
// When two headers normalize to the same field, the later column wins.
func normalizeColumns(header []string) []string {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = NormalizeHeader(strings.TrimSpace(h))
	}
	return cols
}

// rowFromRecord builds a RawRow keyed by canonical column name. Cells past
// the header width are dropped.
func rowFromRecord(cols, record []string) RawRow {
	row := make(RawRow, len(cols))
	for i, v := range record {
		if i >= len(cols) {
			break
		}
		row[cols[i]] = v
	}
	return row
}

// isBlankRow reports whether every cell is empty or whitespace.
func isBlankRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
