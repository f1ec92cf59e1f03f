// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger persists per-run, per-candidate outcomes in a SQLite
// database so batch runs leave an auditable trail: which candidates were
// mosaicked, which were excluded, and why.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// Ledger manages the run-history SQLite database.
type Ledger struct {
	db *sql.DB
}

// CandidateRecord is one candidate's final disposition within a run.
type CandidateRecord struct {
	ObsID    string
	State    types.JobState
	Included bool
	Reason   string
	Image    string
	Weight   string
}

// RunRecord is one pipeline run as stored in the ledger.
type RunRecord struct {
	ID         string
	Started    time.Time
	Finished   time.Time
	Region     types.Region
	Spectral   types.SpectralInterval
	Collection string
	Success    bool
}

// Open opens or creates the ledger database at path, creating the schema
// when missing.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started TEXT NOT NULL,
			finished TEXT,
			ra REAL,
			dec REAL,
			radius REAL,
			low_hz REAL,
			high_hz REAL,
			collection TEXT,
			success INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			run_id TEXT NOT NULL REFERENCES runs(id),
			obs_id TEXT NOT NULL,
			state TEXT NOT NULL,
			included INTEGER NOT NULL,
			reason TEXT,
			image_path TEXT,
			weight_path TEXT,
			PRIMARY KEY (run_id, obs_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a run.
func (l *Ledger) BeginRun(runID string, started time.Time, req types.CutoutRequest) error {
	_, err := l.db.Exec(
		`INSERT INTO runs (id, started, ra, dec, radius, low_hz, high_hz, collection)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, started.UTC().Format(time.RFC3339),
		req.Region.RA, req.Region.Dec, req.Region.Radius,
		req.Spectral.LowHz, req.Spectral.HighHz, req.Collection,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", runID, err)
	}
	return nil
}

// FinishRun records the run's final outcome.
func (l *Ledger) FinishRun(runID string, finished time.Time, success bool) error {
	_, err := l.db.Exec(
		`UPDATE runs SET finished = ?, success = ? WHERE id = ?`,
		finished.UTC().Format(time.RFC3339), success, runID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", runID, err)
	}
	return nil
}

// RecordCandidate upserts one candidate's disposition for a run.
func (l *Ledger) RecordCandidate(runID string, rec CandidateRecord) error {
	_, err := l.db.Exec(
		`INSERT INTO candidates (run_id, obs_id, state, included, reason, image_path, weight_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, obs_id) DO UPDATE SET
			state = excluded.state,
			included = excluded.included,
			reason = excluded.reason,
			image_path = excluded.image_path,
			weight_path = excluded.weight_path`,
		runID, rec.ObsID, string(rec.State), rec.Included, rec.Reason, rec.Image, rec.Weight,
	)
	if err != nil {
		return fmt.Errorf("recording candidate %s: %w", rec.ObsID, err)
	}
	return nil
}

// Runs returns all recorded runs, most recent first.
func (l *Ledger) Runs() ([]RunRecord, error) {
	rows, err := l.db.Query(
		`SELECT id, started, finished, ra, dec, radius, low_hz, high_hz, collection, success
		 FROM runs ORDER BY started DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished sql.NullString
		var success sql.NullBool
		if err := rows.Scan(&r.ID, &started, &finished,
			&r.Region.RA, &r.Region.Dec, &r.Region.Radius,
			&r.Spectral.LowHz, &r.Spectral.HighHz, &r.Collection, &success); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Started, _ = time.Parse(time.RFC3339, started)
		if finished.Valid {
			r.Finished, _ = time.Parse(time.RFC3339, finished.String)
		}
		r.Success = success.Valid && success.Bool
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Candidates returns a run's candidate records ordered by obs_id.
func (l *Ledger) Candidates(runID string) ([]CandidateRecord, error) {
	rows, err := l.db.Query(
		`SELECT obs_id, state, included, reason, image_path, weight_path
		 FROM candidates WHERE run_id = ? ORDER BY obs_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var records []CandidateRecord
	for rows.Next() {
		var rec CandidateRecord
		var state string
		if err := rows.Scan(&rec.ObsID, &state, &rec.Included, &rec.Reason, &rec.Image, &rec.Weight); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		rec.State = types.JobState(state)
		records = append(records, rec)
	}
	return records, rows.Err()
}
