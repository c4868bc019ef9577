package service

import (
	"context"

	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/storage"
)

// ScanRequest is the input of one scan run.
type ScanRequest struct {
	Domains []string `json:"domains"`
	Terms   []string `json:"terms"`
}

// ScanService runs scans and gives access to stored runs.
type ScanService interface {
	RunScan(ctx context.Context, req ScanRequest) (*scanner.Report, error)
	GetRun(ctx context.Context, runID string) (*scanner.Report, error)
	ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error)
	FindMatches(ctx context.Context, term string) ([]storage.MatchRecord, error)
}

// Scanner is the part of scanner.Scanner the service depends on.
type Scanner interface {
	Scan(ctx context.Context, domains, terms []string) (*scanner.Report, error)
}
