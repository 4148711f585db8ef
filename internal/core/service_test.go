package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memoryRepo struct {
	mu      sync.Mutex
	records map[string][]DataRecord
	saveErr error
	saves   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string][]DataRecord)}
}

func (m *memoryRepo) SaveApplications(_ context.Context, ownerID string, records []DataRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.saves++
	m.records[ownerID] = append(m.records[ownerID], records...)
	return len(records), nil
}

func (m *memoryRepo) ListApplications(_ context.Context, ownerID string) ([]DataRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DataRecord(nil), m.records[ownerID]...), nil
}

func (m *memoryRepo) Ping(context.Context) error { return nil }

type recordingMirror struct {
	got []DataRecord
	err error
}

func (r *recordingMirror) MirrorApplications(_ context.Context, records []DataRecord) error {
	r.got = append(r.got, records...)
	return r.err
}

func TestService_ImportSavesValidRecords(t *testing.T) {
	repo := newMemoryRepo()
	mirror := &recordingMirror{}
	svc := NewService(repo, ServiceOptions{Mirror: mirror})

	content := "Company,Role,Date,Status\nGoogle,SWE,2024-01-15,Applied\n,PM,bad,nope\n"
	var phases []ImportPhase
	result, err := svc.Import(context.Background(), "alice", csvSource("apps.csv", content), func(p ImportProgress) {
		phases = append(phases, p.Phase)
	})
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(result.Imported) != 1 || result.Skipped != 1 || result.Saved != 1 {
		t.Fatalf("result = %+v", result)
	}

	saved, _ := repo.ListApplications(context.Background(), "alice")
	if len(saved) != 1 || saved[0].Company != "Google" {
		t.Errorf("saved = %+v", saved)
	}
	if len(mirror.got) != 1 {
		t.Errorf("mirrored %d records, want 1", len(mirror.got))
	}
	if len(phases) == 0 || phases[0] != PhaseValidating {
		t.Errorf("phases = %v, want validating first", phases)
	}
}

func TestService_ImportRefusedFile(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceOptions{})

	var last ImportProgress
	_, err := svc.Import(context.Background(), "alice", FileSource{Name: "apps.txt", Size: 3}, func(p ImportProgress) {
		last = p
	})
	if !errors.Is(err, ErrInvalidExtension) {
		t.Fatalf("Import() error = %v, want ErrInvalidExtension", err)
	}
	if last.Phase != PhaseFailed {
		t.Errorf("last phase = %q, want failed", last.Phase)
	}
	if repo.saves != 0 {
		t.Error("refused file should not reach the repository")
	}
	if svc.LimiterStatus().Active != 0 {
		t.Error("limiter slot was not released")
	}
}

func TestService_ImportNothingValidSkipsSave(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceOptions{})

	result, err := svc.Import(context.Background(), "alice", csvSource("apps.csv", "Company,Role\n,\nx,\n"), nil)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if result.Success {
		t.Error("expected success = false")
	}
	if repo.saves != 0 {
		t.Errorf("repository called %d times, want 0", repo.saves)
	}
	if result.Saved != 0 {
		t.Errorf("Saved = %d, want 0", result.Saved)
	}
}

func TestService_ImportSaveFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.saveErr = errors.New("connection refused")
	svc := NewService(repo, ServiceOptions{})

	_, err := svc.Import(context.Background(), "alice", csvSource("apps.csv", rowsCSV(3)), nil)
	if err == nil || MapError(err).Code != "DB004" {
		t.Errorf("Import() error = %v, want DB004", err)
	}
}

func TestService_ImportMirrorFailureIgnored(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceOptions{Mirror: &recordingMirror{err: errors.New("notion: 401")}})

	result, err := svc.Import(context.Background(), "alice", csvSource("apps.csv", rowsCSV(2)), nil)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(result.Imported) != 2 {
		t.Errorf("imported %d, want 2", len(result.Imported))
	}
}

func TestService_ImportBusy(t *testing.T) {
	limiter := NewImportLimiter(1, 20*time.Millisecond)
	if !limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer limiter.Release()

	svc := NewService(newMemoryRepo(), ServiceOptions{Limiter: limiter})
	_, err := svc.Import(context.Background(), "alice", csvSource("apps.csv", rowsCSV(1)), nil)
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Import() error = %v, want ErrTooManyImports", err)
	}
}

func TestService_Export(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceOptions{})

	if _, err := svc.Export(context.Background(), "bob"); !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("Export() on empty = %v, want ErrNothingToExport", err)
	}

	if _, err := svc.Import(context.Background(), "bob", csvSource("apps.csv", rowsCSV(4)), nil); err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	records, err := svc.Export(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if len(records) != 4 {
		t.Errorf("exported %d, want 4", len(records))
	}

	other, err := svc.ListApplications(context.Background(), "carol")
	if err != nil || len(other) != 0 {
		t.Errorf("other owner sees %d records (err %v)", len(other), err)
	}
}

func TestService_CaptureApplication(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, ServiceOptions{})

	rec, err := svc.CaptureApplication(context.Background(), "alice", CaptureRequest{
		Company:         "Stripe",
		Role:            "Backend Engineer",
		VisaSponsorship: false,
	})
	if err != nil {
		t.Fatalf("CaptureApplication() error: %v", err)
	}
	if rec.Status != StatusApplied {
		t.Errorf("Status = %q, want Applied default", rec.Status)
	}
	if rec.DateApplied != time.Now().Format("2006-01-02") {
		t.Errorf("DateApplied = %q, want today", rec.DateApplied)
	}
	if rec.VisaSponsorship {
		t.Error("explicit false should override the sponsor list")
	}
	if rec.ID == "" {
		t.Error("ID should be generated")
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1", repo.saves)
	}
}

func TestService_CaptureApplicationInvalid(t *testing.T) {
	svc := NewService(newMemoryRepo(), ServiceOptions{})

	_, err := svc.CaptureApplication(context.Background(), "alice", CaptureRequest{
		Role:   "SWE",
		Status: "daydreaming",
	})

	var ce *CaptureError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CaptureError", err)
	}
	if len(ce.Errors) != 2 {
		t.Errorf("field errors = %v, want company and status", ce.Errors)
	}
	if !errors.Is(err, ErrInvalidCapture) {
		t.Error("CaptureError should unwrap to ErrInvalidCapture")
	}
}

func TestSponsorshipText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "true"},
		{"yes", "yes"},
		{float64(1), "1"},
		{float64(0), "0"},
	}
	for _, tt := range tests {
		if got := sponsorshipText(tt.in); got != tt.want {
			t.Errorf("sponsorshipText(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
