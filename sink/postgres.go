package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// DefaultTable is the table Postgres writes to when none is configured.
const DefaultTable = "benchmark_records"

// Postgres appends records to a PostgreSQL table, one row per record with the
// encoded line stored as JSONB. A single INSERT per record gives the same
// no-interleaving guarantee the file sink gets from O_APPEND, and lets many
// hosts collect into one shared destination.
type Postgres struct {
	db      *sql.DB
	table   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewPostgres creates a Postgres sink over an open connection pool. An empty
// table name selects DefaultTable. The expected schema is
// (id uuid primary key, captured_at timestamptz, payload jsonb).
func NewPostgres(db *sql.DB, table string, logger *zap.Logger) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		db:      db,
		table:   table,
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// Append implements Sink.
func (p *Postgres) Append(line []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	id := uuid.New()
	query := fmt.Sprintf(
		"INSERT INTO %s (id, captured_at, payload) VALUES ($1, $2, $3)", p.table)

	if _, err := p.db.ExecContext(ctx, query, id, time.Now().UTC(), line); err != nil {
		return fmt.Errorf("failed to insert record into %s: %w", p.table, err)
	}

	p.logger.Debug("record inserted",
		zap.String("table", p.table),
		zap.String("id", id.String()))
	return nil
}
