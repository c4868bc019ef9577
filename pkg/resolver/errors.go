package resolver

import (
	"errors"
	"fmt"

	"sitemap-terms/pkg/parser"
)

var (
	// ErrCycleDetected marks a child that is already on the current index chain.
	ErrCycleDetected = errors.New("sitemap cycle detected")
	// ErrUnrecognizedDocument marks XML that is neither a urlset nor a sitemapindex.
	ErrUnrecognizedDocument = errors.New("unrecognized sitemap document")
	// ErrNoResolvableChildren marks an index none of whose children resolved.
	ErrNoResolvableChildren = errors.New("sitemap index has no resolvable children")
	// ErrMaxDepthExceeded marks a child nested deeper than the configured limit.
	ErrMaxDepthExceeded = errors.New("sitemap index nesting too deep")
)

// FetchError wraps any failure to retrieve a sitemap body.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status behind the failure, or 0.
func (e *FetchError) StatusCode() int {
	var statusErr *parser.StatusError
	if errors.As(e.Err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// ParseError wraps a body that could not be decoded as XML.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Cause names the failure class of err for logs and reports.
func Cause(err error) string {
	var fetchErr *FetchError
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, ErrCycleDetected):
		return "cycle"
	case errors.Is(err, ErrUnrecognizedDocument):
		return "unrecognized"
	case errors.Is(err, ErrNoResolvableChildren):
		return "no_children"
	case errors.Is(err, ErrMaxDepthExceeded):
		return "max_depth"
	default:
		return "other"
	}
}
