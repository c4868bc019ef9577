package scanner

import (
	"time"

	"sitemap-terms/pkg/matcher"
	"sitemap-terms/pkg/resolver"
)

// DomainSummary is the serializable view of one domain's resolution.
type DomainSummary struct {
	Domain     string `json:"domain" yaml:"domain"`
	SitemapURL string `json:"sitemap_url" yaml:"sitemap_url"`
	Status     string `json:"status" yaml:"status"`
	URLCount   int    `json:"url_count" yaml:"url_count"`
	Fetched    int    `json:"fetched" yaml:"fetched"`
	Failures   int    `json:"node_failures" yaml:"node_failures"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Cause      string `json:"cause,omitempty" yaml:"cause,omitempty"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Report is the outcome of one scan. Resolutions hold the full URL lists
// and are not serialized; Domains carries their summary.
type Report struct {
	RunID       string                `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time             `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time             `json:"finished_at" yaml:"finished_at"`
	Terms       []string              `json:"terms" yaml:"terms"`
	Domains     []DomainSummary       `json:"domains" yaml:"domains"`
	Matches     *matcher.TermMatch    `json:"matches" yaml:"matches"`
	Failed      []string              `json:"failed" yaml:"failed"`
	Resolutions []resolver.Resolution `json:"-" yaml:"-"`
}

// Duration returns the wall time of the scan.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summarize converts a resolution to its serializable summary.
func Summarize(res resolver.Resolution) DomainSummary {
	s := DomainSummary{
		Domain:     res.Domain,
		SitemapURL: res.SitemapURL,
		Status:     res.Status.String(),
		URLCount:   len(res.URLs),
		Fetched:    res.Fetched,
		Failures:   len(res.Failures),
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
		s.Cause = resolver.Cause(res.Err)
	}
	return s
}
