package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/postgres"
)

// Run is one persisted evaluation of a topic set against an index.
type Run struct {
	ID               string    `json:"id"`
	Language         string    `json:"language"`
	IndexFingerprint string    `json:"index_fingerprint"`
	Report           *Report   `json:"report"`
	CreatedAt        time.Time `json:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
    id                UUID PRIMARY KEY,
    language          TEXT NOT NULL,
    index_fingerprint TEXT NOT NULL,
    mean_precision    DOUBLE PRECISION NOT NULL,
    mean_recall       DOUBLE PRECISION NOT NULL,
    report            JSONB NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS evaluation_queries (
    run_id    UUID NOT NULL REFERENCES evaluation_runs(id) ON DELETE CASCADE,
    query_id  TEXT NOT NULL,
    precision DOUBLE PRECISION NOT NULL,
    recall    DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (run_id, query_id)
);`

// Store persists evaluation runs in PostgreSQL.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "evaluation-store"),
	}
}

// Migrate creates the run tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating evaluation tables: %w", err)
	}
	return nil
}

// SaveRun inserts the run and its per-query rows in one transaction. An empty
// ID is filled with a fresh UUID.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.Report == nil {
		return errors.New("saving run: nil report")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(run.Report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO evaluation_runs (id, language, index_fingerprint, mean_precision, mean_recall, report, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.Language, run.IndexFingerprint, run.Report.MeanPrecision, run.Report.MeanRecall, data, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO evaluation_queries (run_id, query_id, precision, recall) VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("preparing query insert: %w", err)
		}
		defer stmt.Close()
		for _, m := range run.Report.PerQuery {
			if _, err := stmt.ExecContext(ctx, run.ID, m.QueryID, m.Precision, m.Recall); err != nil {
				return fmt.Errorf("inserting query %s: %w", m.QueryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving evaluation run: %w", err)
	}

	s.logger.Info("evaluation run saved",
		"run_id", run.ID,
		"queries", run.Report.Queries,
		"mean_precision", run.Report.MeanPrecision,
		"mean_recall", run.Report.MeanRecall,
	)
	return nil
}

// LatestRun returns the most recent run, or nil, nil when none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, language, index_fingerprint, report, created_at
		 FROM evaluation_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run  Run
			data []byte
		)
		if err := rows.Scan(&run.ID, &run.Language, &run.IndexFingerprint, &data, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var report Report
		if err := json.Unmarshal(data, &report); err != nil {
			s.logger.Warn("skipping corrupt run", "run_id", run.ID, "error", err)
			continue
		}
		run.Report = &report
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
