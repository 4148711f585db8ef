package store

import (
	"context"
	"testing"
	"time"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()

	s, err := OpenSQLite(ctx, ":memory:", Options{})
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	return s
}

func TestSQLite_SaveAndList(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	records := []core.DataRecord{
		{ID: "a", Company: "Google", Role: "SWE", DateApplied: "2024-01-15", Status: core.StatusApplied, VisaSponsorship: true},
		{ID: "b", Company: "Acme", Role: "PM", DateApplied: "2024-03-01", Status: core.StatusOffer, Notes: `said "yes"`, ResumeURL: "https://example.com/cv"},
	}

	n, err := s.SaveApplications(ctx, "alice", records)
	if err != nil {
		t.Fatalf("SaveApplications() error: %v", err)
	}
	if n != 2 {
		t.Errorf("saved %d, want 2", n)
	}

	got, err := s.ListApplications(ctx, "alice")
	if err != nil {
		t.Fatalf("ListApplications() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d, want 2", len(got))
	}
	// Newest date first.
	if got[0] != records[1] || got[1] != records[0] {
		t.Errorf("listed = %+v, want %+v", got, []core.DataRecord{records[1], records[0]})
	}

	other, err := s.ListApplications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListApplications() error: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("bob sees %d records, want 0", len(other))
	}
}

func TestSQLite_UpsertKeepsCreatedAt(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }

	rec := core.DataRecord{ID: "a", Company: "Google", Role: "SWE", DateApplied: "2024-01-15", Status: core.StatusApplied}
	if _, err := s.SaveApplications(ctx, "alice", []core.DataRecord{rec}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	s.now = func() time.Time { return first.Add(48 * time.Hour) }
	rec.Status = core.StatusRejected
	rec.Notes = "no response"
	if _, err := s.SaveApplications(ctx, "alice", []core.DataRecord{rec}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.ListApplications(ctx, "alice")
	if err != nil {
		t.Fatalf("ListApplications() error: %v", err)
	}
	if len(got) != 1 || got[0].Status != core.StatusRejected || got[0].Notes != "no response" {
		t.Fatalf("after upsert = %+v", got)
	}

	var created, updated string
	err = s.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM applications WHERE owner_id = ? AND id = ?`, "alice", "a").Scan(&created, &updated)
	if err != nil {
		t.Fatalf("query timestamps: %v", err)
	}
	if created != first.Format(time.RFC3339Nano) {
		t.Errorf("created_at = %s, want unchanged %s", created, first.Format(time.RFC3339Nano))
	}
	if created == updated {
		t.Error("updated_at should move on upsert")
	}
}

func TestSQLite_SameIDDifferentOwners(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	rec := core.DataRecord{ID: "shared", Company: "Acme", Role: "SWE", DateApplied: "2024-01-01", Status: core.StatusApplied}
	for _, owner := range []string{"alice", "bob"} {
		if _, err := s.SaveApplications(ctx, owner, []core.DataRecord{rec}); err != nil {
			t.Fatalf("save for %s: %v", owner, err)
		}
	}
	for _, owner := range []string{"alice", "bob"} {
		got, err := s.ListApplications(ctx, owner)
		if err != nil || len(got) != 1 {
			t.Errorf("%s: got %d records (err %v), want 1", owner, len(got), err)
		}
	}
}

func TestSQLite_SaveEmpty(t *testing.T) {
	s := openTestSQLite(t)
	n, err := s.SaveApplications(context.Background(), "alice", nil)
	if err != nil || n != 0 {
		t.Errorf("SaveApplications(nil) = %d, %v", n, err)
	}
}

func TestSQLite_ImportThroughService(t *testing.T) {
	s := openTestSQLite(t)
	svc := core.NewService(s, core.ServiceOptions{})
	ctx := context.Background()

	content := "Company,Role,Date,Status,Notes\nGoogle,SWE,2024-01-15,Applied,\"a, b\"\nMeta,EM,01/05/2024,onsite,\n"
	src := core.FileSource{Name: "apps.csv", Size: int64(len(content)), Reader: stringsReader(content)}

	result, err := svc.Import(ctx, "alice", src, nil)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if len(result.Imported) != 2 {
		t.Fatalf("imported %d, want 2", len(result.Imported))
	}

	exported, err := svc.Export(ctx, "alice")
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if len(exported) != 2 || exported[0].Notes != "a, b" {
		t.Errorf("exported = %+v", exported)
	}
}
