package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/legend"
)

// SQLiteStore persists reports in a SQLite database so history survives
// restarts. Safe for concurrent use.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex

	maxHistory int
	maxAge     time.Duration
	now        func() time.Time
}

// OpenSQLite opens or creates the report database at path, with the same
// retention semantics as MemoryStore.
func OpenSQLite(path string, maxHistory int, maxAge time.Duration) (*SQLiteStore, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{db: db, maxHistory: maxHistory, maxAge: maxAge, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		records INTEGER NOT NULL,
		reference TEXT NOT NULL DEFAULT '',
		findings TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_provider_checked ON reports(provider, checked_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveReport inserts a report and enforces retention for its provider.
func (s *SQLiteStore) SaveReport(ctx context.Context, report audit.Report) error {
	findings, err := json.Marshal(report.Findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, provider, checked_at, records, reference, findings)
		VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.Provider, report.CheckedAt.UnixNano(), report.Records, report.Reference, string(findings))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if s.maxHistory > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM reports WHERE provider = ? AND id NOT IN (
				SELECT id FROM reports WHERE provider = ?
				ORDER BY checked_at DESC, rowid DESC LIMIT ?
			)`, report.Provider, report.Provider, s.maxHistory)
		if err != nil {
			return fmt.Errorf("trim report history: %w", err)
		}
	}
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge).UnixNano()
		_, err = tx.ExecContext(ctx, `DELETE FROM reports WHERE provider = ? AND checked_at < ?`, report.Provider, cutoff)
		if err != nil {
			return fmt.Errorf("expire reports: %w", err)
		}
	}
	return tx.Commit()
}

// Latest returns the most recent report for a provider.
func (s *SQLiteStore) Latest(ctx context.Context, provider string) (audit.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, provider, checked_at, records, reference, findings FROM reports
		WHERE provider = ? ORDER BY checked_at DESC, rowid DESC LIMIT 1`, provider)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return audit.Report{}, ErrNotFound
	}
	return r, err
}

// Range returns all reports for a provider between from and to (inclusive),
// oldest first.
func (s *SQLiteStore) Range(ctx context.Context, provider string, from, to time.Time) ([]audit.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, checked_at, records, reference, findings FROM reports
		WHERE provider = ? AND checked_at >= ? AND checked_at <= ?
		ORDER BY checked_at, rowid`, provider, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var result []audit.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (audit.Report, error) {
	var (
		r        audit.Report
		nanos    int64
		findings string
	)
	if err := sc.Scan(&r.ID, &r.Provider, &nanos, &r.Records, &r.Reference, &findings); err != nil {
		return audit.Report{}, err
	}
	r.CheckedAt = time.Unix(0, nanos).UTC()

	var fs []legend.Finding
	if err := json.Unmarshal([]byte(findings), &fs); err != nil {
		return audit.Report{}, fmt.Errorf("decode findings of report %s: %w", r.ID, err)
	}
	if len(fs) > 0 {
		r.Findings = fs
	}
	return r, nil
}
