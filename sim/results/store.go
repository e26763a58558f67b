// Package results persists Monte-Carlo harness outputs to SQLite so reporting
// and plotting tools can consume them without re-running the experiment.
package results

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Beanavil/marathon-sim/sim"
	"github.com/Beanavil/marathon-sim/sim/harness"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs + aggregates
const currentSchemaVersion = 1

// Store provides durable storage for harness reports.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies pragmas (WAL, NORMAL sync, busy timeout) and the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// SchemaVersion returns the database's user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// SaveReport writes every run record and every scenario aggregate in one
// transaction. Saving the same seed again replaces its aggregates.
func (s *Store) SaveReport(ctx context.Context, rep *harness.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rep.Records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, seed, scenario, repetition, day_index, date, run_key, mean_pace, runners, finished, dropped)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID.String(), rep.Seed, r.Scenario, r.Repetition, r.DayIndex, r.Date.Format(sim.DateLayout),
			int64(r.Key), r.MeanPace, r.Runners, r.Finished, r.Dropped)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", r.ID, err)
		}
	}

	for _, summary := range rep.Summaries {
		for _, d := range summary.Days {
			_, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO aggregates (seed, scenario, multiplier, date, mean_pace)
				VALUES (?, ?, ?, ?, ?)`,
				rep.Seed, summary.Scenario.Name, summary.Scenario.Multiplier, d.Date.Format(sim.DateLayout), d.MeanPace)
			if err != nil {
				return fmt.Errorf("insert aggregate %s/%s: %w", summary.Scenario.Name, d.Date.Format(sim.DateLayout), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Aggregates reads back a scenario's aggregate series for a seed, ordered by date.
func (s *Store) Aggregates(ctx context.Context, seed int64, scenario string) ([]harness.DayAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, mean_pace FROM aggregates
		WHERE seed = ? AND scenario = ?
		ORDER BY date`, seed, scenario)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var out []harness.DayAggregate
	for rows.Next() {
		var date string
		var pace float64
		if err := rows.Scan(&date, &pace); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		t, err := time.Parse(sim.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse aggregate date %q: %w", date, err)
		}
		out = append(out, harness.DayAggregate{Date: t, MeanPace: pace})
	}
	return out, rows.Err()
}

// RunCount returns the number of stored run records.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}
