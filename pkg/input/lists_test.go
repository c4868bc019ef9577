package input

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseLines(t *testing.T) {
	in := "\ufeffa.com\n\n  b.com  \r\n# comment\n\t\nc.com"
	got, err := ParseLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a.com", "b.com", "c.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	domains := filepath.Join(dir, "domains.txt")
	terms := filepath.Join(dir, "terms.txt")
	if err := os.WriteFile(domains, []byte("a.com\nb.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(terms, []byte("Rugby\n football \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := ReadDomains(domains)
	if err != nil || !reflect.DeepEqual(d, []string{"a.com", "b.com"}) {
		t.Errorf("ReadDomains = %v, %v", d, err)
	}
	tm, err := ReadTerms(terms)
	if err != nil || !reflect.DeepEqual(tm, []string{"Rugby", "football"}) {
		t.Errorf("ReadTerms = %v, %v", tm, err)
	}

	if _, err := ReadDomains(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSitemapURL(t *testing.T) {
	tests := []struct {
		domain string
		suffix string
		want   string
	}{
		{"a.com", "", "https://a.com/sitemap.xml"},
		{"a.com/", "", "https://a.com/sitemap.xml"},
		{"http://a.com", "", "http://a.com/sitemap.xml"},
		{"https://a.com/blog/", "/sitemap_index.xml", "https://a.com/blog/sitemap_index.xml"},
		{"https://a.com/news.xml", "", "https://a.com/news.xml"},
		{"a.com/map.XML.gz", "", "https://a.com/map.XML.gz"},
	}

	for _, tt := range tests {
		if got := SitemapURL(tt.domain, tt.suffix); got != tt.want {
			t.Errorf("SitemapURL(%q, %q) = %q, want %q", tt.domain, tt.suffix, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected %v", got)
	}
}
