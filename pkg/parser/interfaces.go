package parser

import (
	"context"
	"net/url"
)

// DocumentType is the shape of a sitemap document, taken from its root element.
type DocumentType int

const (
	DocumentUnknown DocumentType = iota
	DocumentURLSet
	DocumentSitemapIndex
)

func (t DocumentType) String() string {
	switch t {
	case DocumentURLSet:
		return "urlset"
	case DocumentSitemapIndex:
		return "sitemapindex"
	default:
		return "unknown"
	}
}

// Document is a decoded sitemap. Locs holds <url><loc> values for a urlset
// and <sitemap><loc> values for an index, in document order.
type Document struct {
	Type DocumentType
	Root string
	Locs []string
}

// DefaultSitemapSuffix is appended to a bare domain to locate its root sitemap.
const DefaultSitemapSuffix = "/sitemap.xml"

// Fetcher retrieves the raw (decompressed) body of a sitemap URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

type Filter interface {
	ShouldExclude(u *url.URL) bool
	Name() string
}
