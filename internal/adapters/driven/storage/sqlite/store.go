package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-notes/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is a SQLite-backed benchmark run store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-notes/data/runs.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-notes", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "runs.db")

	// WAL mode lets history reads proceed while a run is being saved
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// SaveRun stores a benchmark report with its traces and failures.
// Saving the same run id again replaces the previous rows.
func (s *Store) SaveRun(ctx context.Context, report *domain.BenchmarkReport) error {
	if report == nil || report.RunID == "" {
		return domain.ErrInvalidInput
	}

	blob, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sum := report.Summary()
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", report.RunID); err != nil {
		return fmt.Errorf("replacing run: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dataset_path, dataset_size,
			precision_at_k, mrr, ndcg_at_k, ece, failures, passed, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sum.RunID, formatTime(report.StartedAt), formatTime(report.FinishedAt),
		sum.DatasetPath, sum.DatasetSize, sum.PrecisionAtK, sum.MRR, sum.NDCGAtK,
		sum.ECE, sum.Failures, boolToInt(sum.Passed), string(blob))
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, t := range report.Traces {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO traces (run_id, position, query_id, precision, confidence,
				execution_ms, error, timed_out)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, report.RunID, i, t.QueryID, t.Precision, t.Confidence,
			t.ExecutionTime.Milliseconds(), t.Error, boolToInt(t.TimedOut))
		if err != nil {
			return fmt.Errorf("inserting trace %s: %w", t.QueryID, err)
		}
	}

	for _, f := range report.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, query_id, mode, severity, root_cause, evidence, suggested_fix)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, report.RunID, f.QueryID, string(f.Mode), string(f.Severity),
			f.RootCause, f.Evidence, f.SuggestedFix)
		if err != nil {
			return fmt.Errorf("inserting failure %s: %w", f.QueryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetRun retrieves a stored report by run id.
func (s *Store) GetRun(ctx context.Context, runID string) (*domain.BenchmarkReport, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT report FROM runs WHERE id = ?", runID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	var report domain.BenchmarkReport
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, fmt.Errorf("unmarshalling report %s: %w", runID, err)
	}
	return &report, nil
}

// ListRuns returns the most recent run summaries, newest first.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	query := `
		SELECT id, started_at, dataset_path, dataset_size, precision_at_k, mrr,
			ndcg_at_k, ece, failures, passed
		FROM runs ORDER BY started_at DESC, id ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.RunSummary{}
	for rows.Next() {
		var (
			sum       domain.RunSummary
			startedAt string
			passed    int
		)
		if err := rows.Scan(&sum.RunID, &startedAt, &sum.DatasetPath, &sum.DatasetSize,
			&sum.PrecisionAtK, &sum.MRR, &sum.NDCGAtK, &sum.ECE, &sum.Failures, &passed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.StartedAt = parseTime(startedAt)
		sum.Passed = passed != 0
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// FailureCounts returns the number of classified failures per mode for a run.
func (s *Store) FailureCounts(ctx context.Context, runID string) (map[domain.FailureMode]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT mode, COUNT(*) FROM failures WHERE run_id = ? GROUP BY mode", runID)
	if err != nil {
		return nil, fmt.Errorf("counting failures: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.FailureMode]int)
	for rows.Next() {
		var (
			mode string
			n    int
		)
		if err := rows.Scan(&mode, &n); err != nil {
			return nil, fmt.Errorf("scanning failure count: %w", err)
		}
		counts[domain.FailureMode(mode)] = n
	}
	return counts, rows.Err()
}

// TraceCount returns the number of stored traces for a run.
func (s *Store) TraceCount(ctx context.Context, runID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM traces WHERE run_id = ?", runID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting traces: %w", err)
	}
	return n, nil
}

// Times are stored as RFC 3339 with nanoseconds so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
