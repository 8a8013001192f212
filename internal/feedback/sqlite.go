package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/archivelab/docmeta/internal/model"
)

// SQLiteRecorder implements Recorder on a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
}

var _ Recorder = (*SQLiteRecorder)(nil)

// NewSQLite opens (or creates) the feedback database at dsn and applies
// the schema.
func NewSQLite(dsn string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "feedback: exec %s", pragma)
		}
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id         TEXT PRIMARY KEY,
	source_id  TEXT NOT NULL,
	mode       TEXT NOT NULL,
	priority   TEXT NOT NULL,
	doc_type   TEXT NOT NULL,
	quality    REAL NOT NULL,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS field_results (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES extraction_runs(id),
	field_key  TEXT NOT NULL,
	value      TEXT,
	confidence REAL NOT NULL,
	resolution TEXT NOT NULL,
	backends   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS corrections (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL,
	field_key       TEXT NOT NULL,
	original_value  TEXT,
	corrected_value TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_source ON extraction_runs(source_id);
CREATE INDEX IF NOT EXISTS idx_field_results_run ON field_results(run_id);
CREATE INDEX IF NOT EXISTS idx_field_results_key ON field_results(field_key);
CREATE INDEX IF NOT EXISTS idx_corrections_run ON corrections(run_id);
`

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "feedback: migrate")
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

// Record implements Recorder. The full report is stored as JSON alongside
// one row per field for cheap querying.
func (r *SQLiteRecorder) Record(ctx context.Context, report *model.ExtractionReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "feedback: marshal report")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "feedback: begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO extraction_runs (id, source_id, mode, priority, doc_type, quality, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.SourceID, string(report.Mode), string(report.Priority),
		string(report.Profile.Type), report.Profile.Quality.Overall, string(reportJSON),
		report.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "feedback: insert run")
	}

	for _, f := range report.Fields {
		value := ""
		if f.Value != nil {
			if s, ok := f.Value.(string); ok {
				value = s
			} else {
				raw, _ := json.Marshal(f.Value)
				value = string(raw)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO field_results (id, run_id, field_key, value, confidence, resolution, backends)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), report.RunID, f.FieldKey, value, f.Confidence,
			string(f.Resolution), strings.Join(f.Models(), ","),
		)
		if err != nil {
			return eris.Wrapf(err, "feedback: insert field %s", f.FieldKey)
		}
	}

	return eris.Wrap(tx.Commit(), "feedback: commit")
}

// RecordCorrection implements Recorder.
func (r *SQLiteRecorder) RecordCorrection(ctx context.Context, c Correction) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO corrections (id, run_id, field_key, original_value, corrected_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.RunID, c.FieldKey, c.OriginalValue, c.CorrectedValue, c.CreatedAt,
	)
	return eris.Wrap(err, "feedback: insert correction")
}

// RunSummary is one stored run, without the full report payload.
type RunSummary struct {
	RunID     string    `json:"run_id"`
	SourceID  string    `json:"source_id"`
	Mode      string    `json:"mode"`
	Priority  string    `json:"priority"`
	DocType   string    `json:"doc_type"`
	Quality   float64   `json:"quality"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRuns returns the most recent runs, newest first.
func (r *SQLiteRecorder) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, mode, priority, doc_type, quality, created_at
		 FROM extraction_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.SourceID, &s.Mode, &s.Priority, &s.DocType, &s.Quality, &s.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "feedback: scan run")
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), "feedback: iterate runs")
}

// GetReport loads the full stored report for a run.
func (r *SQLiteRecorder) GetReport(ctx context.Context, runID string) (*model.ExtractionReport, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT report FROM extraction_runs WHERE id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("feedback: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "feedback: get report")
	}

	var report model.ExtractionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, eris.Wrap(err, "feedback: decode report")
	}
	return &report, nil
}

// FieldStats summarizes how one field has been performing.
type FieldStats struct {
	FieldKey      string  `json:"field_key"`
	Runs          int     `json:"runs"`
	Unresolved    int     `json:"unresolved"`
	Corrections   int     `json:"corrections"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// Stats aggregates per-field accuracy signals across all stored runs.
// Fields with many corrections are candidates for prompt or routing
// changes.
func (r *SQLiteRecorder) Stats(ctx context.Context) ([]FieldStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT fr.field_key,
		       COUNT(*),
		       SUM(CASE WHEN fr.resolution = 'unresolved' THEN 1 ELSE 0 END),
		       AVG(fr.confidence),
		       (SELECT COUNT(*) FROM corrections c WHERE c.field_key = fr.field_key)
		FROM field_results fr
		GROUP BY fr.field_key
		ORDER BY fr.field_key`)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: stats")
	}
	defer rows.Close()

	var out []FieldStats
	for rows.Next() {
		var s FieldStats
		if err := rows.Scan(&s.FieldKey, &s.Runs, &s.Unresolved, &s.AvgConfidence, &s.Corrections); err != nil {
			return nil, eris.Wrap(err, "feedback: scan stats")
		}
		out = append(out, s)
	}
	return out, eris.Wrap(rows.Err(), "feedback: iterate stats")
}
