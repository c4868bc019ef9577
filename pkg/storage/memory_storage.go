package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"sitemap-terms/pkg/scanner"
)

// MemoryStorage keeps runs as JSON blobs in memory.
type MemoryStorage struct {
	data      map[string][]byte
	summaries map[string]RunSummary
	mu        sync.RWMutex
}

// NewMemoryStorage creates a new memory storage instance
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data:      make(map[string][]byte),
		summaries: make(map[string]RunSummary),
	}
}

// SaveRun stores a copy of the report. Saving an existing ID replaces it.
func (ms *MemoryStorage) SaveRun(ctx context.Context, report *scanner.Report) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("report has no run id")
	}
	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[report.RunID] = jsonData
	ms.summaries[report.RunID] = Summarize(report)
	return nil
}

// LoadRun returns the stored report without its in-memory resolutions.
func (ms *MemoryStorage) LoadRun(ctx context.Context, runID string) (*scanner.Report, error) {
	ms.mu.RLock()
	jsonData, exists := ms.data[runID]
	ms.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	var report scanner.Report
	if err := json.Unmarshal(jsonData, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &report, nil
}

func (ms *MemoryStorage) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	ms.mu.RLock()
	runs := make([]RunSummary, 0, len(ms.summaries))
	for _, s := range ms.summaries {
		runs = append(runs, s)
	}
	ms.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].RunID > runs[j].RunID
		}
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (ms *MemoryStorage) FindMatches(ctx context.Context, term string) ([]MatchRecord, error) {
	runs, err := ms.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	records := []MatchRecord{}
	for _, run := range runs {
		report, err := ms.LoadRun(ctx, run.RunID)
		if err != nil {
			return nil, err
		}
		if report.Matches == nil {
			continue
		}
		for _, entry := range report.Matches.Terms {
			if !strings.EqualFold(entry.Term, term) {
				continue
			}
			for _, d := range entry.Domains {
				for _, u := range d.URLs {
					records = append(records, MatchRecord{RunID: run.RunID, Term: entry.Term, Domain: d.Domain, URL: u})
				}
			}
		}
	}
	return records, nil
}

func (ms *MemoryStorage) Close() error {
	return nil
}
