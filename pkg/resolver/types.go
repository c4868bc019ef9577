package resolver

import (
	"strings"
	"time"

	"sitemap-terms/pkg/parser"
)

// Kind classifies a single sitemap node.
type Kind int

const (
	KindUnresolvable Kind = iota
	KindURLSet
	KindSitemapIndex
)

func (k Kind) String() string {
	switch k {
	case KindURLSet:
		return "urlset"
	case KindSitemapIndex:
		return "sitemapindex"
	default:
		return "unresolvable"
	}
}

// Node is one fetched sitemap document. Children is set for an index,
// Leaves for a urlset, Err for an unresolvable node.
type Node struct {
	URL      string
	Kind     Kind
	Children []string
	Leaves   []string
	Err      error
}

// Status is the outcome of resolving a domain's root sitemap.
type Status int

const (
	StatusResolved Status = iota + 1
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// NodeFailure records a node that contributed nothing to the leaf list.
type NodeFailure struct {
	URL string
	Err error
}

// Resolution is the per-domain result. A resolved domain carries its
// de-duplicated leaf URLs in discovery order; a failed one carries Err.
type Resolution struct {
	Domain     string
	SitemapURL string
	Status     Status
	URLs       []string
	Err        error

	Fetched  int
	Failures []NodeFailure
	Duration time.Duration
}

// Resolved builds a successful resolution.
func Resolved(domain, sitemapURL string, urls []string) Resolution {
	if urls == nil {
		urls = []string{}
	}
	return Resolution{Domain: domain, SitemapURL: sitemapURL, Status: StatusResolved, URLs: urls}
}

// Failed builds a failed resolution.
func Failed(domain, sitemapURL string, err error) Resolution {
	return Resolution{Domain: domain, SitemapURL: sitemapURL, Status: StatusFailed, Err: err}
}

func (r Resolution) IsResolved() bool {
	return r.Status == StatusResolved
}

// DisplayName derives a domain name from a sitemap URL by removing the exact
// suffix, never a character set.
func DisplayName(sitemapURL, suffix string) string {
	if suffix == "" {
		suffix = parser.DefaultSitemapSuffix
	}
	return strings.TrimSuffix(sitemapURL, suffix)
}
