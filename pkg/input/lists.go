package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"sitemap-terms/pkg/parser"
)

// ReadDomains reads a newline-delimited domain list.
func ReadDomains(path string) ([]string, error) {
	lines, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domains: %w", err)
	}
	return lines, nil
}

// ReadTerms reads a newline-delimited term list.
func ReadTerms(path string) ([]string, error) {
	lines, err := readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terms: %w", err)
	}
	return lines, nil
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseLines(f)
}

// ParseLines returns the trimmed, non-blank lines of r. Lines starting with
// '#' are comments.
func ParseLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// SitemapURL builds the root sitemap URL for a domain line. Lines already
// pointing at an .xml or .xml.gz document are used as is.
func SitemapURL(domain, suffix string) string {
	if suffix == "" {
		suffix = parser.DefaultSitemapSuffix
	}
	u := strings.TrimSpace(domain)
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	lower := strings.ToLower(u)
	if strings.HasSuffix(lower, ".xml") || strings.HasSuffix(lower, ".xml.gz") {
		return u
	}
	return strings.TrimRight(u, "/") + suffix
}

// Normalize drops duplicate entries while keeping the first occurrence.
func Normalize(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
