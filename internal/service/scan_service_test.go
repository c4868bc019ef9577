package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitemap-terms/pkg/matcher"
	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/storage"
)

type stubScanner struct {
	err   error
	calls int
}

func (s *stubScanner) Scan(ctx context.Context, domains, terms []string) (*scanner.Report, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now().UTC()
	return &scanner.Report{
		RunID:      "run-1",
		StartedAt:  now,
		FinishedAt: now,
		Terms:      terms,
		Matches:    &matcher.TermMatch{},
		Failed:     domains,
	}, nil
}

func TestRunScanStoresReport(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewScanService(&stubScanner{}, store)

	report, err := svc.RunScan(context.Background(), ScanRequest{Domains: []string{"a.com"}, Terms: []string{"x"}})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	loaded, err := svc.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.RunID != "run-1" || len(loaded.Failed) != 1 {
		t.Errorf("unexpected stored run: %+v", loaded)
	}

	runs, err := svc.ListRuns(context.Background(), 10)
	if err != nil || len(runs) != 1 {
		t.Errorf("expected one run, got %d (%v)", len(runs), err)
	}
}

func TestRunScanPropagatesCancellation(t *testing.T) {
	svc := NewScanService(&stubScanner{err: context.Canceled}, storage.NewMemoryStorage())
	if _, err := svc.RunScan(context.Background(), ScanRequest{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if _, err := svc.GetRun(context.Background(), "missing"); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
