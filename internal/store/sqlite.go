// Package store keeps a local history of completed siting runs.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/opencivic/event-siting/internal/model"
)

// Store records completed runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run-history database and configures WAL mode.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	output_dir         TEXT NOT NULL,
	tracts             INTEGER NOT NULL,
	focus_tracts       INTEGER NOT NULL,
	total_pois         INTEGER NOT NULL,
	matched            INTEGER NOT NULL,
	unmatched          INTEGER NOT NULL,
	invalid_coords     INTEGER NOT NULL,
	out_of_focus       INTEGER NOT NULL,
	missing_indicators INTEGER NOT NULL,
	started_at         DATETIME NOT NULL,
	finished_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun inserts a completed run.
func (s *Store) RecordRun(ctx context.Context, sum model.RunSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, name, output_dir, tracts, focus_tracts, total_pois,
			matched, unmatched, invalid_coords, out_of_focus,
			missing_indicators, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.RunName, sum.OutputDir, sum.Tracts, sum.FocusTracts,
		sum.TotalPOIs, sum.Matched, sum.Unmatched, sum.InvalidCoords,
		sum.OutOfFocus, sum.MissingIndicators, sum.StartedAt, sum.FinishedAt,
	)
	return eris.Wrap(err, "store: record run")
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, output_dir, tracts, focus_tracts, total_pois,
		       matched, unmatched, invalid_coords, out_of_focus,
		       missing_indicators, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(
			&r.RunID, &r.RunName, &r.OutputDir, &r.Tracts, &r.FocusTracts,
			&r.TotalPOIs, &r.Matched, &r.Unmatched, &r.InvalidCoords,
			&r.OutOfFocus, &r.MissingIndicators, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate runs")
	}
	return runs, nil
}
