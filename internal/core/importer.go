package core

// importer.go drives one CSV file through header normalization, row
// validation, and result accumulation.
//
// Lifecycle of a single import:
//
//	idle -> validating -> streaming -> complete
//	             |             |
//	             v             v
//	          (error)       aborted (context cancelled)
//
// File-level checks (extension, size) run before any byte is read and fail
// the call outright. Once streaming starts, malformed CSV and invalid rows
// are recorded as ImportErrors and the remaining rows keep flowing.
//
// Each call owns its accumulator; an Importer can serve concurrent calls.

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// File-level rejections. These abort an import before any row is read.
var (
	ErrInvalidExtension = errors.New("invalid file type: only .csv files are accepted")
	ErrFileTooLarge     = errors.New("file too large")
	ErrEmptyFile        = errors.New("empty file")
	ErrUnreadableFile   = errors.New("unreadable file")
)

const (
	// DefaultMaxFileSize is the upload ceiling (5 MB). A file of exactly
	// this size is accepted.
	DefaultMaxFileSize int64 = 5 * 1024 * 1024

	// DefaultProgressInterval is the number of rows between progress emissions.
	DefaultProgressInterval = 10
)

// ImporterOptions configures an Importer. Zero values select defaults.
type ImporterOptions struct {
	MaxFileSize      int64
	ProgressInterval int
	Logger           *slog.Logger
}

// Importer validates and parses uploaded CSV files into DataRecords.
type Importer struct {
	maxFileSize      int64
	progressInterval int
	validator        *RowValidator
	logger           *slog.Logger
}

// NewImporter creates an importer with the given options.
func NewImporter(opts ImporterOptions) *Importer {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Importer{
		maxFileSize:      opts.MaxFileSize,
		progressInterval: opts.ProgressInterval,
		validator:        NewRowValidator(),
		logger:           opts.Logger,
	}
}

// MaxFileSize returns the configured upload ceiling in bytes.
func (i *Importer) MaxFileSize() int64 {
	return i.maxFileSize
}

// CheckFile runs the pre-flight checks: .csv extension (any case), size at
// most MaxFileSize, size non-zero, reader present.
func (i *Importer) CheckFile(src FileSource) error {
	if !strings.EqualFold(filepath.Ext(src.Name), ".csv") {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, src.Name)
	}
	if src.Size > i.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrFileTooLarge, src.Size, i.maxFileSize)
	}
	if src.Size <= 0 {
		return ErrEmptyFile
	}
	if src.Reader == nil {
		return fmt.Errorf("%w: no reader", ErrUnreadableFile)
	}
	return nil
}

// Import parses src and returns the terminal result. cb, if non-nil, is
// called on the calling goroutine after every ProgressInterval rows.
// The final counts are in ImportResult.Progress.
//
// Cancelling ctx stops consuming rows; the partial result is returned with
// Aborted set. A non-nil error means the file was refused outright and no
// result exists.
func (i *Importer) Import(ctx context.Context, src FileSource, cb ProgressCallback) (*ImportResult, error) {
	if err := i.CheckFile(src); err != nil {
		return nil, err
	}
	return i.run(ctx, src, cb)
}

// ImportStream is a running import that yields progress snapshots followed
// by one terminal result.
type ImportStream struct {
	progress chan ImportProgress
	done     chan struct{}
	result   *ImportResult
	err      error
}

// Progress returns the channel of intermediate snapshots. It is closed
// when the import finishes.
func (s *ImportStream) Progress() <-chan ImportProgress {
	return s.progress
}

// Wait drains any unread progress and returns the terminal result.
func (s *ImportStream) Wait() (*ImportResult, error) {
	for range s.progress {
	}
	<-s.done
	return s.result, s.err
}

// Stream starts an import on a new goroutine. Pre-flight failures are
// returned immediately. The caller must either range over Progress or call
// Wait, otherwise the import blocks on the next emission.
func (i *Importer) Stream(ctx context.Context, src FileSource) (*ImportStream, error) {
	if err := i.CheckFile(src); err != nil {
		return nil, err
	}

	s := &ImportStream{
		progress: make(chan ImportProgress, 1),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		s.result, s.err = i.run(ctx, src, func(p ImportProgress) {
			select {
			case s.progress <- p:
			case <-ctx.Done():
			}
		})
		close(s.progress)
	}()

	return s, nil
}

// run is the single-pass parse loop shared by Import and Stream.
func (i *Importer) run(ctx context.Context, src FileSource, emit ProgressCallback) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{
		ImportID: newRecordID(),
		FileName: src.Name,
		Imported: []DataRecord{},
		Errors:   []ImportError{},
	}
	logger := i.logger.With("import_id", result.ImportID, "file", src.Name)
	logger.Debug("import started", "size", src.Size)

	progress := ImportProgress{
		Phase:    PhaseStreaming,
		FileName: src.Name,
		Total:    src.Size,
	}

	// One byte past the ceiling is enough to detect a lying Size.
	counter, reader := openSource(io.LimitReader(src.Reader, i.maxFileSize+1))

	var parseErrors []ImportError
	columns, err := i.readHeader(reader, &parseErrors)
	if err != nil {
		return nil, err
	}
	if columns == nil && len(parseErrors) == 0 {
		result.Errors = append(result.Errors, ImportError{Row: 0, Message: "file has no header row"})
	}

	rowNum := 0
	for columns != nil {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				parseErrors = append(parseErrors, parseError(pe))
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if isBlankRow(record) {
			continue
		}

		rowNum++
		rec, rowErrs := i.validator.Validate(rowFromRecord(columns, record), rowNum)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			result.Skipped++
		} else {
			result.Imported = append(result.Imported, *rec)
		}

		progress.RowsProcessed = rowNum
		progress.Errors = len(result.Errors) + len(parseErrors)
		progress.Loaded = counter.BytesRead()
		if emit != nil && rowNum%i.progressInterval == 0 {
			emit(progress)
		}
	}

	if counter.BytesRead() > i.maxFileSize {
		return nil, fmt.Errorf("%w: more than %d bytes read", ErrFileTooLarge, i.maxFileSize)
	}

	result.Errors = append(result.Errors, parseErrors...)
	result.Success = len(result.Errors) == 0 || len(result.Imported) > 0

	progress.RowsProcessed = rowNum
	progress.Errors = len(result.Errors)
	progress.Loaded = counter.BytesRead()
	progress.Phase = PhaseComplete
	if result.Aborted {
		progress.Phase = PhaseAborted
	}
	result.Progress = progress
	result.Duration = time.Since(start)

	logger.Info("import finished",
		"imported", len(result.Imported),
		"errors", len(result.Errors),
		"skipped", result.Skipped,
		"aborted", result.Aborted,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// readHeader returns the normalized column names from the first non-blank
// record, or nil if the file has none. A malformed header is recorded as a
// row-0 parse error and also yields nil; data rows are never promoted.
func (i *Importer) readHeader(reader *csv.Reader, parseErrors *[]ImportError) ([]string, error) {
	for {
		header, err := reader.Read()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				headerErr := parseError(pe)
				headerErr.Row = 0
				*parseErrors = append(*parseErrors, headerErr)
				return nil, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if isBlankRow(header) {
			continue
		}
		return normalizeColumns(header), nil
	}
}

// parseError converts a tokenizer error into an ImportError. The row is the
// line the bad record started on, minus the header line.
func parseError(pe *csv.ParseError) ImportError {
	row := pe.StartLine - 1
	if row < 0 {
		row = 0
	}
	return ImportError{
		Row:     row,
		Message: fmt.Sprintf("invalid csv: %v", pe.Err),
	}
}
