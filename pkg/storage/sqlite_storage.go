package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/utils"
)

// SQLiteStorage stores each run as a JSON document plus one row per matched
// URL so matches can be queried across runs.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// NewSQLiteStorage opens or creates the database at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStorage{
		db:   db,
		path: path,
		log:  logger.GetLogger().WithField("component", "sqlite_storage"),
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	s.log.WithField("path", path).Debug("Run store opened")
	return s, nil
}

func (s *SQLiteStorage) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		domains INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		matches INTEGER NOT NULL,
		terms TEXT NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		term TEXT NOT NULL,
		domain TEXT NOT NULL,
		url TEXT NOT NULL,
		url_hash TEXT NOT NULL,
		UNIQUE(run_id, term, domain, url_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_matches_term ON matches(term);
	CREATE INDEX IF NOT EXISTS idx_matches_url_hash ON matches(url_hash);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the run and its matches in one transaction, replacing any
// previous run with the same ID.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report *scanner.Report) (err error) {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	termsJSON, err := json.Marshal(report.Terms)
	if err != nil {
		return fmt.Errorf("failed to marshal terms: %w", err)
	}
	summary := Summarize(report)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM matches WHERE run_id = ?`, report.RunID); err != nil {
		return fmt.Errorf("failed to clear matches: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
	INSERT OR REPLACE INTO runs (id, started_at, finished_at, domains, failed, matches, terms, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.StartedAt.UTC().Format(timeLayout),
		report.FinishedAt.UTC().Format(timeLayout),
		summary.Domains, summary.Failed, summary.Matches,
		string(termsJSON), string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if report.Matches != nil {
		stmt, perr := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO matches (run_id, term, domain, url, url_hash) VALUES (?, ?, ?, ?, ?)`)
		if perr != nil {
			err = fmt.Errorf("failed to prepare match insert: %w", perr)
			return err
		}
		defer stmt.Close()

		for _, entry := range report.Matches.Terms {
			for _, d := range entry.Domains {
				for _, u := range d.URLs {
					if _, err = stmt.ExecContext(ctx, report.RunID, entry.Term, d.Domain, u, utils.URLHash(u)); err != nil {
						return fmt.Errorf("failed to insert match: %w", err)
					}
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.log.WithFields(map[string]interface{}{
		"run_id":  report.RunID,
		"matches": summary.Matches,
	}).Debug("Run saved")
	return nil
}

func (s *SQLiteStorage) LoadRun(ctx context.Context, runID string) (*scanner.Report, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	var report scanner.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &report, nil
}

func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT id, started_at, finished_at, domains, failed, matches, terms FROM runs ORDER BY started_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
			terms             string
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Domains, &r.Failed, &r.Matches, &terms); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
		if err := json.Unmarshal([]byte(terms), &r.Terms); err != nil {
			return nil, fmt.Errorf("failed to unmarshal terms: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStorage) FindMatches(ctx context.Context, term string) ([]MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT m.run_id, m.term, m.domain, m.url
	FROM matches m JOIN runs r ON r.id = m.run_id
	WHERE lower(m.term) = ?
	ORDER BY r.started_at DESC, m.id ASC`, strings.ToLower(term))
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	records := []MatchRecord{}
	for rows.Next() {
		var m MatchRecord
		if err := rows.Scan(&m.RunID, &m.Term, &m.Domain, &m.URL); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
