package service

import (
	"context"
	"fmt"

	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/storage"
)

type scanService struct {
	scanner Scanner
	store   storage.RunStore
	log     *logger.Logger
}

// NewScanService stores every finished scan in store.
func NewScanService(s Scanner, store storage.RunStore) ScanService {
	return &scanService{
		scanner: s,
		store:   store,
		log:     logger.GetLogger().WithField("component", "scan_service"),
	}
}

func (s *scanService) RunScan(ctx context.Context, req ScanRequest) (*scanner.Report, error) {
	report, err := s.scanner.Scan(ctx, req.Domains, req.Terms)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRun(ctx, report); err != nil {
		s.log.WithError(err).WithField("run_id", report.RunID).Error("Failed to store run")
		return nil, fmt.Errorf("store run: %w", err)
	}
	return report, nil
}

func (s *scanService) GetRun(ctx context.Context, runID string) (*scanner.Report, error) {
	return s.store.LoadRun(ctx, runID)
}

func (s *scanService) ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	return s.store.ListRuns(ctx, limit)
}

func (s *scanService) FindMatches(ctx context.Context, term string) ([]storage.MatchRecord, error) {
	return s.store.FindMatches(ctx, term)
}
