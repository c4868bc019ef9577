package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sitemap-terms/pkg/input"
	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/matcher"
	"sitemap-terms/pkg/resolver"
	"sitemap-terms/pkg/worker"
)

// DomainResolver resolves one domain's root sitemap.
type DomainResolver interface {
	Resolve(ctx context.Context, domain, sitemapURL string) resolver.Resolution
}

// Config controls domain level concurrency.
type Config struct {
	MaxWorkers    int
	DomainTimeout time.Duration
	SitemapSuffix string
}

// DefaultConfig returns the scanner defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:    8,
		DomainTimeout: 5 * time.Minute,
	}
}

// Scanner runs one resolution per domain on a worker pool and matches the
// results against the terms.
type Scanner struct {
	resolver DomainResolver
	config   Config
	log      *logger.Logger
}

func New(r DomainResolver, config Config) *Scanner {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultConfig().MaxWorkers
	}
	return &Scanner{
		resolver: r,
		config:   config,
		log:      logger.GetLogger().WithField("component", "scanner"),
	}
}

// Scan resolves every domain and matches the terms. Repeated domains and
// terms are dropped. Domain failures are part of the report; only
// cancellation of ctx is returned as an error.
func (s *Scanner) Scan(ctx context.Context, domains, terms []string) (*Report, error) {
	domains = input.Normalize(domains)
	terms = input.Normalize(terms)

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Terms:     terms,
	}
	log := s.log.WithField("run_id", report.RunID)
	log.WithFields(map[string]interface{}{
		"domains": len(domains),
		"terms":   len(terms),
		"workers": s.config.MaxWorkers,
	}).Info("Starting scan")

	progress := logger.NewProgressReporter(len(domains), "Resolving sitemaps", log)
	resolutions := make([]resolver.Resolution, len(domains))
	sitemapURLs := make([]string, len(domains))
	tasks := make([]worker.Task, len(domains))

	for i, domain := range domains {
		sitemapURLs[i] = input.SitemapURL(domain, s.config.SitemapSuffix)
		tasks[i] = worker.Task{
			ID:      domain,
			Timeout: s.config.DomainTimeout,
			Fn: func(ctx context.Context) error {
				res := s.resolver.Resolve(ctx, domain, sitemapURLs[i])
				resolutions[i] = res
				progress.Done(res.IsResolved())
				if !res.IsResolved() {
					return res.Err
				}
				return nil
			},
		}
	}

	results, metrics := worker.Run(ctx, worker.WorkerPoolConfig{
		MaxWorkers:    s.config.MaxWorkers,
		WorkerTimeout: s.config.DomainTimeout,
	}, tasks)

	if err := ctx.Err(); err != nil {
		log.WithError(err).Warn("Scan cancelled")
		return nil, err
	}

	// A task that panicked left its slot empty.
	for i, r := range results {
		if resolutions[i].Status == 0 {
			resolutions[i] = resolver.Failed(domains[i], sitemapURLs[i], r.Error)
		}
	}

	resolved := 0
	report.Resolutions = resolutions
	report.Domains = make([]DomainSummary, len(resolutions))
	for i, res := range resolutions {
		report.Domains[i] = Summarize(res)
		if res.IsResolved() {
			resolved++
		}
	}
	report.Matches, report.Failed = matcher.Match(resolutions, terms)
	report.FinishedAt = time.Now().UTC()

	log.WithFields(map[string]interface{}{
		"resolved": resolved,
		"failed":   len(report.Failed),
		"matches":  report.Matches.Total(),
		"duration": report.Duration().String(),
		"avg_task": metrics.AverageDuration.String(),
	}).Info("Scan finished")
	return report, nil
}
