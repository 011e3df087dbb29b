// Package history records optimization runs in a SQLite database so past
// cutting plans can be listed, reprinted and compared.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/piwi3910/BarCut/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id           TEXT PRIMARY KEY,
	created_at       TEXT NOT NULL,
	source           TEXT NOT NULL,
	categories       INTEGER NOT NULL,
	solved           INTEGER NOT NULL,
	total_bars       INTEGER NOT NULL,
	total_waste      REAL NOT NULL,
	waste_percentage REAL NOT NULL,
	run_json         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_categories (
	run_id      TEXT NOT NULL,
	category    TEXT NOT NULL,
	status      TEXT NOT NULL,
	bars        INTEGER NOT NULL,
	waste       REAL NOT NULL,
	phase       INTEGER NOT NULL,
	efficiency  REAL NOT NULL,
	PRIMARY KEY (run_id, category),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Timestamps are stored fixed-width so text order is time order.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a run ID is not in the store.
var ErrNotFound = errors.New("run not found")

// RunRecord is the listing view of a stored run.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Source    string // Input file or project the run was made from
	Summary   model.Summary
}

// CategoryRecord is one category of a stored run.
type CategoryRecord struct {
	RunID      string
	CreatedAt  time.Time
	Category   string
	Status     model.CategoryStatus
	Bars       int
	Waste      float64
	Phase      int
	Efficiency float64
}

// StoredRun is a run together with the source it was recorded from.
type StoredRun struct {
	Source string          `json:"source"`
	Run    model.RunResult `json:"run"`
}

// Store manages run history in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its per-category rows in one transaction. A run
// without an ID gets one; a run without a timestamp is stamped now.
func (s *Store) SaveRun(run *model.RunResult, source string) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sum := run.Summary
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, created_at, source, categories, solved, total_bars, total_waste, waste_percentage, run_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeFormat), source, sum.Categories, sum.Solved,
		sum.TotalBars, sum.TotalWaste, sum.WastePercentage, string(runJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range run.Outcomes {
		var bars, phase int
		var waste, eff float64
		if o.Solved() {
			bars, phase = o.Result.TotalBars, o.Result.PhaseUsed
			waste, eff = o.Result.TotalWaste, o.Result.UsedEfficiency
		}
		_, err = tx.Exec(
			`INSERT INTO run_categories (run_id, category, status, bars, waste, phase, efficiency)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, o.Key, string(o.Status), bars, waste, phase, eff,
		)
		if err != nil {
			return fmt.Errorf("insert category %s: %w", o.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetRun retrieves a stored run by ID.
func (s *Store) GetRun(id string) (model.RunResult, error) {
	var runJSON string
	err := s.db.QueryRow(`SELECT run_json FROM runs WHERE run_id = ?`, id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RunResult{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.RunResult{}, fmt.Errorf("get run %s: %w", id, err)
	}

	var run model.RunResult
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return model.RunResult{}, fmt.Errorf("unmarshal run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0 or
// less returns every run.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT run_id, created_at, source, categories, solved, total_bars, total_waste, waste_percentage
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		sum := &rec.Summary
		if err := rows.Scan(&rec.ID, &createdStr, &rec.Source, &sum.Categories, &sum.Solved,
			&sum.TotalBars, &sum.TotalWaste, &sum.WastePercentage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Failed = sum.Categories - sum.Solved
		rec.CreatedAt, _ = time.Parse(timeFormat, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CategoryHistory returns the stored results of one category across runs,
// newest first.
func (s *Store) CategoryHistory(category string, limit int) ([]CategoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT c.run_id, r.created_at, c.category, c.status, c.bars, c.waste, c.phase, c.efficiency
		 FROM run_categories c JOIN runs r ON r.run_id = c.run_id
		 WHERE c.category = ? ORDER BY r.created_at DESC LIMIT ?`, category, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("category history: %w", err)
	}
	defer rows.Close()

	var out []CategoryRecord
	for rows.Next() {
		var rec CategoryRecord
		var createdStr, status string
		if err := rows.Scan(&rec.RunID, &createdStr, &rec.Category, &status,
			&rec.Bars, &rec.Waste, &rec.Phase, &rec.Efficiency); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		rec.Status = model.CategoryStatus(status)
		rec.CreatedAt, _ = time.Parse(timeFormat, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its category rows.
func (s *Store) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExportRuns returns every stored run with its source, oldest first.
func (s *Store) ExportRuns() ([]StoredRun, error) {
	rows, err := s.db.Query(`SELECT source, run_json FROM runs ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("export runs: %w", err)
	}
	defer rows.Close()

	var out []StoredRun
	for rows.Next() {
		var sr StoredRun
		var runJSON string
		if err := rows.Scan(&sr.Source, &runJSON); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(runJSON), &sr.Run); err != nil {
			return nil, fmt.Errorf("unmarshal run: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// ImportRuns saves every run whose ID is not stored yet and returns how
// many were added.
func (s *Store) ImportRuns(runs []StoredRun) (int, error) {
	added := 0
	for i := range runs {
		run := runs[i].Run
		if run.ID != "" {
			_, err := s.GetRun(run.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return added, err
			}
		}
		if err := s.SaveRun(&run, runs[i].Source); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
