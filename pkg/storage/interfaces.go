package storage

import (
	"context"
	"errors"
	"time"

	"sitemap-terms/pkg/scanner"
)

// ErrRunNotFound is returned by LoadRun for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Domains    int       `json:"domains"`
	Failed     int       `json:"failed"`
	Matches    int       `json:"matches"`
	Terms      []string  `json:"terms"`
}

// Summarize builds the listing view of a report.
func Summarize(report *scanner.Report) RunSummary {
	return RunSummary{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Domains:    len(report.Domains),
		Failed:     len(report.Failed),
		Matches:    report.Matches.Total(),
		Terms:      report.Terms,
	}
}

// MatchRecord is one stored term match.
type MatchRecord struct {
	RunID  string `json:"run_id"`
	Term   string `json:"term"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// StorageConfig selects the run store backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory or sqlite
	Path   string `mapstructure:"path"`
}

// RunStore persists scan reports.
type RunStore interface {
	SaveRun(ctx context.Context, report *scanner.Report) error
	LoadRun(ctx context.Context, runID string) (*scanner.Report, error)
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	// FindMatches returns the stored matches for term across runs, newest
	// run first. Terms compare case-insensitively.
	FindMatches(ctx context.Context, term string) ([]MatchRecord, error)
	Close() error
}
