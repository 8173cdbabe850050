// Package store provides a SQLite-backed history of report runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Run statuses.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Run is one recorded job invocation.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	DryRun       bool
	Status       string
	Error        string
	AWSRecords   int
	AzureRecords int
	Currency     string
	Projects     []ProjectTotal
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ProjectTotal is the snapshot of one project in a run.
type ProjectTotal struct {
	Project     string
	AWS         decimal.Decimal
	Azure       decimal.Decimal
	Total       decimal.Decimal
	Forecast    decimal.Decimal
	Budget      decimal.Decimal
	UsedPercent int64
	Recipients  int
	Sent        bool
}

// ProjectSnapshot is a ProjectTotal with the run it belongs to.
type ProjectSnapshot struct {
	RunID     string
	StartedAt time.Time
	ProjectTotal
}

// Dir returns the XDG-compliant state directory.
func Dir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "costnotify")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "costnotify")
}

// DefaultPath returns the full path to the history database.
func DefaultPath() string {
	return filepath.Join(Dir(), "history.db")
}

// Store provides SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the history database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run and its project totals.
func (s *Store) RecordRun(r Run) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, dry_run, status, error, aws_records, azure_records, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), boolInt(r.DryRun),
		r.Status, r.Error, r.AWSRecords, r.AzureRecords, r.Currency,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	// Replace project rows for this run
	if _, err := tx.Exec("DELETE FROM project_totals WHERE run_id = ?", r.ID); err != nil {
		return err
	}
	for _, p := range r.Projects {
		_, err = tx.Exec(`INSERT INTO project_totals
			(run_id, project, aws_amount, azure_amount, total, forecast, budget, used_percent, recipients, sent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, p.Project, p.AWS.String(), p.Azure.String(), p.Total.String(),
			p.Forecast.String(), p.Budget.String(), p.UsedPercent, p.Recipients, boolInt(p.Sent),
		)
		if err != nil {
			return fmt.Errorf("inserting totals for %s: %w", p.Project, err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first, with their project totals.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT
		run_id, started_at, finished_at, dry_run, status, error, aws_records, azure_records, currency
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	idx := make(map[string]int)
	for rows.Next() {
		var r Run
		var started, finished string
		var errStr sql.NullString
		var dry int
		if err := rows.Scan(&r.ID, &started, &finished, &dry, &r.Status, &errStr,
			&r.AWSRecords, &r.AzureRecords, &r.Currency); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		r.DryRun = dry != 0
		r.Error = errStr.String
		idx[r.ID] = len(runs)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return runs, nil
	}

	// Batch-load project totals for the selected runs
	totalRows, err := s.db.Query(`SELECT
		pt.run_id, pt.project, pt.aws_amount, pt.azure_amount, pt.total, pt.forecast, pt.budget,
		pt.used_percent, pt.recipients, pt.sent
		FROM project_totals pt
		JOIN (SELECT run_id FROM runs ORDER BY started_at DESC LIMIT ?) r ON r.run_id = pt.run_id
		ORDER BY pt.project`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = totalRows.Close() }()

	for totalRows.Next() {
		var runID string
		pt, err := scanTotal(totalRows, &runID)
		if err != nil {
			return nil, err
		}
		if i, ok := idx[runID]; ok {
			runs[i].Projects = append(runs[i].Projects, pt)
		}
	}
	return runs, totalRows.Err()
}

// ProjectHistory returns the snapshots of one project, newest first.
func (s *Store) ProjectHistory(project string, limit int) ([]ProjectSnapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.Query(`SELECT
		pt.run_id, pt.project, pt.aws_amount, pt.azure_amount, pt.total, pt.forecast, pt.budget,
		pt.used_percent, pt.recipients, pt.sent, r.started_at
		FROM project_totals pt
		JOIN runs r ON r.run_id = pt.run_id
		WHERE pt.project = ?
		ORDER BY r.started_at DESC LIMIT ?`, project, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectSnapshot
	for rows.Next() {
		var snap ProjectSnapshot
		var started string
		pt, err := scanTotal(rows, &snap.RunID, &started)
		if err != nil {
			return nil, err
		}
		snap.ProjectTotal = pt
		snap.StartedAt = parseTime(started)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTotal scans runID, the project columns, then any extra columns.
func scanTotal(row scanner, runID *string, extra ...any) (ProjectTotal, error) {
	var pt ProjectTotal
	var aws, azure, total, forecast, budget string
	var sent int
	dest := []any{runID, &pt.Project, &aws, &azure, &total, &forecast, &budget,
		&pt.UsedPercent, &pt.Recipients, &sent}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return pt, err
	}
	pt.AWS = parseDecimal(aws)
	pt.Azure = parseDecimal(azure)
	pt.Total = parseDecimal(total)
	pt.Forecast = parseDecimal(forecast)
	pt.Budget = parseDecimal(budget)
	pt.Sent = sent != 0
	return pt, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
