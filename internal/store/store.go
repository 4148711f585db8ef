// Package store persists job applications.
//
// Two backends implement the same Store interface: PostgreSQL through a pgx
// connection pool, and SQLite through modernc.org/sqlite for single-user and
// test setups. Open picks one from the database URL.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/JonMunkholm/jobtracker/internal/core"
)

// Store is a core.Repository with schema and lifecycle management.
type Store interface {
	core.Repository
	Migrate(ctx context.Context) error
	Close() error
}

// Options tunes the backend. Zero values select defaults.
type Options struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// BatchSize is the number of rows sent per round trip on write.
	BatchSize int
}

const defaultBatchSize = 500

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return defaultBatchSize
	}
	return o.BatchSize
}

// IsPostgresURL reports whether url names a PostgreSQL server rather than
// a SQLite file.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Open connects to the database named by url and verifies the connection.
func Open(ctx context.Context, url string, opts Options) (Store, error) {
	if IsPostgresURL(url) {
		return OpenPostgres(ctx, url, opts)
	}
	return OpenSQLite(ctx, url, opts)
}

// chunks splits records into consecutive slices of at most size elements.
func chunks(records []core.DataRecord, size int) [][]core.DataRecord {
	if size <= 0 {
		size = defaultBatchSize
	}
	out := make([][]core.DataRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		out = append(out, records[start:end])
	}
	return out
}
