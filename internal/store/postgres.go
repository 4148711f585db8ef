package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id               TEXT        NOT NULL,
	owner_id         TEXT        NOT NULL,
	company          TEXT        NOT NULL,
	role             TEXT        NOT NULL,
	date_applied     DATE        NOT NULL,
	status           TEXT        NOT NULL,
	visa_sponsorship BOOLEAN     NOT NULL DEFAULT FALSE,
	notes            TEXT,
	resume_url       TEXT,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS applications_owner_date_idx
	ON applications (owner_id, date_applied DESC);
`

const postgresUpsert = `
INSERT INTO applications (
	id, owner_id, company, role, date_applied, status,
	visa_sponsorship, notes, resume_url, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (owner_id, id) DO UPDATE SET
	company          = EXCLUDED.company,
	role             = EXCLUDED.role,
	date_applied     = EXCLUDED.date_applied,
	status           = EXCLUDED.status,
	visa_sponsorship = EXCLUDED.visa_sponsorship,
	notes            = EXCLUDED.notes,
	resume_url       = EXCLUDED.resume_url,
	updated_at       = EXCLUDED.updated_at`

const postgresList = `
SELECT id, company, role, date_applied, status, visa_sponsorship, notes, resume_url
FROM applications
WHERE owner_id = $1
ORDER BY date_applied DESC, created_at DESC, id`

// Postgres stores applications in PostgreSQL.
type Postgres struct {
	pool      *pgxpool.Pool
	batchSize int
	now       func() time.Time
}

// OpenPostgres creates a connection pool for url and pings it.
func OpenPostgres(ctx context.Context, url string, opts Options) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool, batchSize: opts.batchSize(), now: time.Now}, nil
}

// Migrate creates the applications table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveApplications upserts records for ownerID in one transaction, sending
// batchSize rows per round trip.
func (p *Postgres) SaveApplications(ctx context.Context, ownerID string, records []core.DataRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	now := p.now().UTC()
	saved := 0

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, chunk := range chunks(records, p.batchSize) {
			batch := &pgx.Batch{}
			for _, r := range chunk {
				batch.Queue(postgresUpsert,
					r.ID,
					ownerID,
					r.Company,
					r.Role,
					toPgDate(r.DateApplied),
					string(r.Status),
					r.VisaSponsorship,
					toPgText(r.Notes),
					toPgText(r.ResumeURL),
					now,
				)
			}

			br := tx.SendBatch(ctx, batch)
			for range chunk {
				if _, err := br.Exec(); err != nil {
					br.Close()
					return err
				}
			}
			if err := br.Close(); err != nil {
				return err
			}
			saved += len(chunk)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("upsert applications: %w", err)
	}
	return saved, nil
}

// ListApplications returns ownerID's applications, newest first.
func (p *Postgres) ListApplications(ctx context.Context, ownerID string) ([]core.DataRecord, error) {
	rows, err := p.pool.Query(ctx, postgresList, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.DataRecord, error) {
		var (
			r      core.DataRecord
			status string
			date   pgtype.Date
			notes  pgtype.Text
			resume pgtype.Text
		)
		err := row.Scan(&r.ID, &r.Company, &r.Role, &date, &status, &r.VisaSponsorship, &notes, &resume)
		if err != nil {
			return r, err
		}
		r.Status = core.Status(status)
		r.DateApplied = fromPgDate(date)
		r.Notes = notes.String
		r.ResumeURL = resume.String
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return records, nil
}

// Ping checks that the pool can reach the server.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// toPgText maps "" to NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgDate parses a canonical YYYY-MM-DD date. Records only carry
// validated dates, so a parse failure maps to NULL and the NOT NULL
// constraint reports it.
func toPgDate(s string) pgtype.Date {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func fromPgDate(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(time.DateOnly)
}
