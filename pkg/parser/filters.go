package parser

import (
	"net/url"
	"strings"
)

// PathFilter excludes URLs whose path contains one of the given fragments.
type PathFilter struct {
	excludePaths []string
	name         string
}

func NewPathFilter(name string, excludePaths []string) *PathFilter {
	return &PathFilter{
		name:         name,
		excludePaths: excludePaths,
	}
}

func (f *PathFilter) ShouldExclude(u *url.URL) bool {
	path := strings.ToLower(u.Path)
	for _, excludePath := range f.excludePaths {
		if excludePath != "" && strings.Contains(path, strings.ToLower(excludePath)) {
			return true
		}
	}
	return false
}

func (f *PathFilter) Name() string {
	return f.name
}

// ExtensionFilter excludes URLs whose path ends with one of the given extensions.
type ExtensionFilter struct {
	excludeExts []string
	name        string
}

func NewExtensionFilter(name string, excludeExts []string) *ExtensionFilter {
	return &ExtensionFilter{
		name:        name,
		excludeExts: excludeExts,
	}
}

func (f *ExtensionFilter) ShouldExclude(u *url.URL) bool {
	path := strings.ToLower(u.Path)
	for _, ext := range f.excludeExts {
		if ext != "" && strings.HasSuffix(path, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func (f *ExtensionFilter) Name() string {
	return f.name
}

// Excluded reports whether any filter rejects rawURL. Unparseable URLs are
// never excluded; the leaf is kept as the sitemap lists it.
func Excluded(filters []Filter, rawURL string) bool {
	if len(filters) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, f := range filters {
		if f.ShouldExclude(u) {
			return true
		}
	}
	return false
}
