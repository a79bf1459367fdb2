package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seed INTEGER NOT NULL,
    start_year INTEGER NOT NULL,
    end_year INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS national_series (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    year INTEGER NOT NULL,
    yearly_ha REAL NOT NULL,
    cumulative_ha REAL NOT NULL,
    PRIMARY KEY (run_id, year)
);

CREATE TABLE IF NOT EXISTS observations (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    municipality TEXT NOT NULL,
    year INTEGER NOT NULL,
    fraction REAL NOT NULL,
    hectares REAL NOT NULL,
    PRIMARY KEY (run_id, municipality, year)
);
CREATE INDEX IF NOT EXISTS idx_observations_municipality ON observations(run_id, municipality);
`

// SQLiteRunStore implements RunStore backed by a SQLite database file.
type SQLiteRunStore struct {
	db *sql.DB
}

// NewSQLiteRunStore opens (creating if needed) the run database at path.
func NewSQLiteRunStore(path string) (*SQLiteRunStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db}, nil
}

// SaveRun stores a complete run in one transaction.
func (s *SQLiteRunStore) SaveRun(ctx context.Context, seed int64, startYear, endYear int, national []NationalPoint, observations []Observation) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (seed, start_year, end_year, created_at) VALUES (?, ?, ?, ?)`,
		seed, startYear, endYear, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, p := range national {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO national_series (run_id, year, yearly_ha, cumulative_ha) VALUES (?, ?, ?, ?)`,
			runID, p.Year, p.YearlyHa, p.CumulativeHa,
		); err != nil {
			return 0, fmt.Errorf("insert national point %d: %w", p.Year, err)
		}
	}

	for _, o := range observations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO observations (run_id, municipality, year, fraction, hectares) VALUES (?, ?, ?, ?, ?)`,
			runID, o.Municipality, o.Year, o.Fraction, o.Hectares,
		); err != nil {
			return 0, fmt.Errorf("insert observation %s/%d: %w", o.Municipality, o.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetRun returns run metadata by id.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	var r Run
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, seed, start_year, end_year, created_at FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &r.Seed, &r.StartYear, &r.EndYear, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %d: %w", id, err)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &r, nil
}

// ListRuns returns all runs, newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, start_year, end_year, created_at FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Seed, &r.StartYear, &r.EndYear, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// NationalSeries returns the national series of a run in year order.
func (s *SQLiteRunStore) NationalSeries(ctx context.Context, runID int64) ([]NationalPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, yearly_ha, cumulative_ha FROM national_series WHERE run_id = ? ORDER BY year`, runID)
	if err != nil {
		return nil, fmt.Errorf("query national series: %w", err)
	}
	defer rows.Close()

	var points []NationalPoint
	for rows.Next() {
		var p NationalPoint
		if err := rows.Scan(&p.Year, &p.YearlyHa, &p.CumulativeHa); err != nil {
			return nil, fmt.Errorf("scan national point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Observations returns the per-municipality observations of a run.
func (s *SQLiteRunStore) Observations(ctx context.Context, runID int64) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT municipality, year, fraction, hectares FROM observations WHERE run_id = ? ORDER BY municipality, year`, runID)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.Municipality, &o.Year, &o.Fraction, &o.Hectares); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// Close closes the database.
func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}
