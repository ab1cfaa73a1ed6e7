// Package journal persists run, batch, and lookup history to a local
// SQLite database. The journal is observability only: the record store
// file is the source of truth for results, and a run proceeds even when
// journal writes fail.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/skiptrace-cli/internal/model"
)

// Journal records run history in SQLite.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database and configures WAL mode.
func Open(dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "journal: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "journal: exec %s", pragma)
		}
	}
	return &Journal{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	input_path TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	counters   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_batches (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	batch_idx  INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	backend    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	started_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS run_lookups (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	batch_idx    INTEGER NOT NULL,
	record_id    INTEGER NOT NULL,
	field_group  TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	status       TEXT NOT NULL,
	phone_count  INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_run_batches_run_id ON run_batches(run_id);
CREATE INDEX IF NOT EXISTS idx_run_lookups_run_id ON run_lookups(run_id);
`

// Migrate creates the schema.
func (j *Journal) Migrate(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "journal: migrate")
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// CreateRun inserts a new running run.
func (j *Journal) CreateRun(ctx context.Context, inputPath string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		InputPath: inputPath,
		Status:    model.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.InputPath, string(run.Status), run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "journal: insert run")
	}
	return run, nil
}

// FinishRun records the run's terminal status and counter snapshot.
func (j *Journal) FinishRun(ctx context.Context, runID string, status model.RunStatus, counters model.RunCounters) error {
	blob, err := json.Marshal(counters)
	if err != nil {
		return eris.Wrap(err, "journal: marshal counters")
	}
	_, err = j.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, counters = ?, updated_at = ? WHERE id = ?`,
		string(status), string(blob), time.Now().UTC(), runID,
	)
	return eris.Wrapf(err, "journal: finish run %s", runID)
}

// StartBatch inserts a running batch row and returns its id.
func (j *Journal) StartBatch(ctx context.Context, runID string, index, size int, backend string) (string, error) {
	id := uuid.New().String()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_batches (id, run_id, batch_idx, size, backend, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, runID, index, size, backend, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "journal: insert batch")
	}
	return id, nil
}

// FinishBatch records a batch's terminal status and the backend it ended
// on (which differs from the starting backend after a switch).
func (j *Journal) FinishBatch(ctx context.Context, batchID string, status model.RunStatus, backend string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE run_batches SET status = ?, backend = ? WHERE id = ?`,
		string(status), backend, batchID,
	)
	return eris.Wrapf(err, "journal: finish batch %s", batchID)
}

// RecordLookup appends one completed lookup.
func (j *Journal) RecordLookup(ctx context.Context, rec model.LookupRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO run_lookups (id, run_id, batch_idx, record_id, field_group, subject_name, status, phone_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.BatchIndex, rec.RecordID, string(rec.Group), rec.SubjectName, string(rec.Status), rec.PhoneCount, time.Now().UTC(),
	)
	return eris.Wrap(err, "journal: insert lookup")
}

// GetRun fetches one run by id.
func (j *Journal) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT id, input_path, status, counters, created_at, updated_at FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("journal: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "journal: get run %s", runID)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, input_path, status, counters, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "journal: list runs")
	}
	defer func() { _ = rows.Close() }()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "journal: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "journal: iterate runs")
}

// ListBatches returns a run's batches in index order.
func (j *Journal) ListBatches(ctx context.Context, runID string) ([]model.BatchRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, run_id, batch_idx, size, backend, status, started_at FROM run_batches WHERE run_id = ? ORDER BY batch_idx`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "journal: list batches")
	}
	defer func() { _ = rows.Close() }()

	var batches []model.BatchRecord
	for rows.Next() {
		var b model.BatchRecord
		var status string
		if err := rows.Scan(&b.ID, &b.RunID, &b.Index, &b.Size, &b.Backend, &status, &b.StartedAt); err != nil {
			return nil, eris.Wrap(err, "journal: scan batch")
		}
		b.Status = model.RunStatus(status)
		batches = append(batches, b)
	}
	return batches, eris.Wrap(rows.Err(), "journal: iterate batches")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*model.Run, error) {
	var run model.Run
	var status string
	var counters sql.NullString
	if err := r.Scan(&run.ID, &run.InputPath, &status, &counters, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if counters.Valid && counters.String != "" {
		if err := json.Unmarshal([]byte(counters.String), &run.Counters); err != nil {
			return nil, eris.Wrap(err, "journal: unmarshal counters")
		}
	}
	return &run, nil
}
