package core

// service.go ties the import pipeline to persistence.
//
// The Service owns the import limiter and hands the repository a complete,
// validated record list only after the whole file has been classified.
// Nothing is written for an aborted or refused import.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Repository persists applications for an owner. Implementations assign
// created/updated timestamps and decide how writes are batched.
type Repository interface {
	SaveApplications(ctx context.Context, ownerID string, records []DataRecord) (int, error)
	ListApplications(ctx context.Context, ownerID string) ([]DataRecord, error)
	Ping(ctx context.Context) error
}

// Mirror copies saved applications to a secondary system. Mirror failures
// are logged and never fail the import.
type Mirror interface {
	MirrorApplications(ctx context.Context, records []DataRecord) error
}

// DefaultOwnerID is used when a request carries no owner identity.
const DefaultOwnerID = "default"

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	Importer      *Importer
	Limiter       *ImportLimiter
	Mirror        Mirror
	ImportTimeout time.Duration
	Logger        *slog.Logger
}

// Service is the entry point for import, export and capture.
type Service struct {
	repo          Repository
	importer      *Importer
	limiter       *ImportLimiter
	mirror        Mirror
	importTimeout time.Duration
	validator     *RowValidator
	logger        *slog.Logger
}

// NewService creates a Service backed by repo.
func NewService(repo Repository, opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Importer == nil {
		opts.Importer = NewImporter(ImporterOptions{Logger: opts.Logger})
	}
	if opts.Limiter == nil {
		opts.Limiter = NewImportLimiter(0, 0)
	}
	if opts.ImportTimeout <= 0 {
		opts.ImportTimeout = 2 * time.Minute
	}
	return &Service{
		repo:          repo,
		importer:      opts.Importer,
		limiter:       opts.Limiter,
		mirror:        opts.Mirror,
		importTimeout: opts.ImportTimeout,
		validator:     NewRowValidator(),
		logger:        opts.Logger,
	}
}

// Importer returns the underlying importer.
func (s *Service) Importer() *Importer {
	return s.importer
}

// Import parses src, then saves every valid record for ownerID.
//
// cb receives a validating snapshot, the periodic streaming snapshots, and
// a failed snapshot if the file is refused. The returned result carries the
// terminal counts.
func (s *Service) Import(ctx context.Context, ownerID string, src FileSource, cb ProgressCallback) (*ImportResult, error) {
	if cb == nil {
		cb = func(ImportProgress) {}
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	cb(ImportProgress{Phase: PhaseValidating, FileName: src.Name, Total: src.Size})

	stream, err := s.importer.Stream(ctx, src)
	if err != nil {
		cb(ImportProgress{Phase: PhaseFailed, FileName: src.Name, Total: src.Size})
		return nil, err
	}
	for p := range stream.Progress() {
		cb(p)
	}
	result, err := stream.Wait()
	if err != nil {
		cb(ImportProgress{Phase: PhaseFailed, FileName: src.Name, Total: src.Size})
		return nil, err
	}

	if result.Aborted || len(result.Imported) == 0 {
		return result, nil
	}

	saved, err := s.repo.SaveApplications(ctx, ownerID, result.Imported)
	if err != nil {
		return nil, fmt.Errorf("save applications: %w", err)
	}
	result.Saved = saved
	s.mirrorRecords(ctx, result.Imported)

	return result, nil
}

// Export returns every application for ownerID in export order.
// ErrNothingToExport is returned when there are none.
func (s *Service) Export(ctx context.Context, ownerID string) ([]DataRecord, error) {
	records, err := s.repo.ListApplications(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	return records, nil
}

// ListApplications returns every application for ownerID.
func (s *Service) ListApplications(ctx context.Context, ownerID string) ([]DataRecord, error) {
	records, err := s.repo.ListApplications(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return records, nil
}

// ErrInvalidCapture is wrapped by CaptureError.
var ErrInvalidCapture = errors.New("invalid application")

// CaptureError lists the field errors of a rejected capture.
type CaptureError struct {
	Errors []ImportError
}

func (e *CaptureError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return ErrInvalidCapture.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *CaptureError) Unwrap() error {
	return ErrInvalidCapture
}

// CaptureRequest is one application submitted by the browser extension.
// VisaSponsorship accepts a JSON bool, number or string.
type CaptureRequest struct {
	ID              string `json:"id,omitempty"`
	Company         string `json:"company"`
	Role            string `json:"role"`
	DateApplied     string `json:"dateApplied,omitempty"`
	Status          string `json:"status,omitempty"`
	VisaSponsorship any    `json:"visaSponsorship,omitempty"`
	Notes           string `json:"notes,omitempty"`
	ResumeURL       string `json:"resumeUrl,omitempty"`
}

// row converts the request into the same shape a CSV row has. A missing
// date defaults to today and a missing status to Applied.
func (c CaptureRequest) row(now time.Time) RawRow {
	row := RawRow{
		FieldID:              c.ID,
		FieldCompany:         c.Company,
		FieldRole:            c.Role,
		FieldDateApplied:     c.DateApplied,
		FieldStatus:          c.Status,
		FieldVisaSponsorship: sponsorshipText(c.VisaSponsorship),
		FieldNotes:           c.Notes,
		FieldResumeURL:       c.ResumeURL,
	}
	if row.Get(FieldDateApplied) == "" {
		row[FieldDateApplied] = now.Format("2006-01-02")
	}
	if row.Get(FieldStatus) == "" {
		row[FieldStatus] = string(StatusApplied)
	}
	return row
}

func sponsorshipText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// CaptureApplication validates one application with the CSV row rules and
// saves it for ownerID.
func (s *Service) CaptureApplication(ctx context.Context, ownerID string, req CaptureRequest) (*DataRecord, error) {
	rec, errs := s.validator.Validate(req.row(time.Now()), 1)
	if len(errs) > 0 {
		return nil, &CaptureError{Errors: errs}
	}

	if _, err := s.repo.SaveApplications(ctx, ownerID, []DataRecord{*rec}); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	s.mirrorRecords(ctx, []DataRecord{*rec})
	return rec, nil
}

func (s *Service) mirrorRecords(ctx context.Context, records []DataRecord) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.MirrorApplications(ctx, records); err != nil {
		s.logger.Warn("mirror applications failed", "records", len(records), "error", err)
	}
}

// Ping checks the repository connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
