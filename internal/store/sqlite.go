package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id               TEXT    NOT NULL,
	owner_id         TEXT    NOT NULL,
	company          TEXT    NOT NULL,
	role             TEXT    NOT NULL,
	date_applied     TEXT    NOT NULL,
	status           TEXT    NOT NULL,
	visa_sponsorship INTEGER NOT NULL DEFAULT 0,
	notes            TEXT,
	resume_url       TEXT,
	created_at       TEXT    NOT NULL,
	updated_at       TEXT    NOT NULL,
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS applications_owner_date_idx
	ON applications (owner_id, date_applied DESC);
`

const sqliteUpsert = `
INSERT INTO applications (
	id, owner_id, company, role, date_applied, status,
	visa_sponsorship, notes, resume_url, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, id) DO UPDATE SET
	company          = excluded.company,
	role             = excluded.role,
	date_applied     = excluded.date_applied,
	status           = excluded.status,
	visa_sponsorship = excluded.visa_sponsorship,
	notes            = excluded.notes,
	resume_url       = excluded.resume_url,
	updated_at       = excluded.updated_at`

const sqliteList = `
SELECT id, company, role, date_applied, status, visa_sponsorship, notes, resume_url
FROM applications
WHERE owner_id = ?
ORDER BY date_applied DESC, created_at DESC, id`

// SQLite stores applications in a SQLite file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens the database at path (":memory:" for a throwaway
// database). Writes are serialized through a single connection.
func OpenSQLite(ctx context.Context, path string, _ Options) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Migrate creates the applications table if it does not exist.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveApplications upserts records for ownerID in one transaction.
func (s *SQLite) SaveApplications(ctx context.Context, ownerID string, records []core.DataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID,
			ownerID,
			r.Company,
			r.Role,
			r.DateApplied,
			string(r.Status),
			r.VisaSponsorship,
			nullString(r.Notes),
			nullString(r.ResumeURL),
			now,
			now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert application %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// ListApplications returns ownerID's applications, newest first.
func (s *SQLite) ListApplications(ctx context.Context, ownerID string) ([]core.DataRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteList, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var records []core.DataRecord
	for rows.Next() {
		var (
			r      core.DataRecord
			status string
			notes  sql.NullString
			resume sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Company, &r.Role, &r.DateApplied, &status, &r.VisaSponsorship, &notes, &resume); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		r.Status = core.Status(status)
		r.Notes = notes.String
		r.ResumeURL = resume.String
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return records, nil
}

// Ping checks the database handle.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
