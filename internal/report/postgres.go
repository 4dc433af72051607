package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/congo-pay/txengine/internal/ledger"
)

const createReportsTable = `
        CREATE TABLE IF NOT EXISTS account_reports (
            client      INTEGER PRIMARY KEY,
            available   NUMERIC NOT NULL,
            held        NUMERIC NOT NULL,
            total       NUMERIC NOT NULL,
            locked      BOOLEAN NOT NULL,
            exported_at TIMESTAMPTZ NOT NULL
        )`

const upsertReport = `
        INSERT INTO account_reports (client, available, held, total, locked, exported_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (client) DO UPDATE SET
            available = EXCLUDED.available,
            held = EXCLUDED.held,
            total = EXCLUDED.total,
            locked = EXCLUDED.locked,
            exported_at = EXCLUDED.exported_at`

// PostgresSink upserts snapshots into the account_reports table. The table
// is written only; the ledger never loads state from it.
type PostgresSink struct {
	db *pgxpool.Pool
}

// NewPostgresSink constructs a Postgres-backed sink.
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// Name identifies the sink in logs.
func (s *PostgresSink) Name() string { return SinkPostgres }

// EnsureSchema creates the account_reports table when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createReportsTable); err != nil {
		return fmt.Errorf("create account_reports: %w", err)
	}
	return nil
}

// Export upserts every row inside one transaction.
func (s *PostgresSink) Export(ctx context.Context, rows []ledger.AccountReport) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	exportedAt := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertReport, int32(r.Client), r.Available, r.Held, r.Total, r.Locked, exportedAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert account_reports: %w", err)
	}

	return tx.Commit(ctx)
}
