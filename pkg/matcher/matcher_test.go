package matcher

import (
	"errors"
	"reflect"
	"testing"

	"sitemap-terms/pkg/resolver"
)

func resolved(domain string, urls ...string) resolver.Resolution {
	return resolver.Resolved(domain, "https://"+domain+"/sitemap.xml", urls)
}

func failed(domain string) resolver.Resolution {
	return resolver.Failed(domain, "https://"+domain+"/sitemap.xml", errors.New("404"))
}

func TestMatchScenario(t *testing.T) {
	resolutions := []resolver.Resolution{
		resolved("a.com", "https://a.com/sports/Rugby-News", "https://a.com/about"),
		failed("b.com"),
	}

	match, bad := Match(resolutions, []string{"rugby", "football"})

	if !reflect.DeepEqual(bad, []string{"b.com"}) {
		t.Errorf("expected failed [b.com], got %v", bad)
	}
	if len(match.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(match.Terms))
	}

	rugby := match.Terms[0]
	if rugby.Term != "rugby" {
		t.Errorf("expected first term rugby, got %q", rugby.Term)
	}
	want := []DomainMatches{{Domain: "a.com", URLs: []string{"https://a.com/sports/Rugby-News"}}}
	if !reflect.DeepEqual(rugby.Domains, want) {
		t.Errorf("unexpected rugby matches: %+v", rugby.Domains)
	}

	football := match.Terms[1]
	if football.Term != "football" || len(football.Domains) != 0 || football.Domains == nil {
		t.Errorf("expected football with empty domain list, got %+v", football)
	}
}

func TestMatchNestedIndexResult(t *testing.T) {
	resolutions := []resolver.Resolution{
		resolved("c.com", "https://c.com/x/term1", "https://c.com/y/other", "https://c.com/z/TERM1-2"),
	}

	match, bad := Match(resolutions, []string{"term1"})
	if len(bad) != 0 {
		t.Errorf("expected no failed domains, got %v", bad)
	}
	entry, ok := match.Lookup("term1")
	if !ok {
		t.Fatal("term1 missing")
	}
	want := []string{"https://c.com/x/term1", "https://c.com/z/TERM1-2"}
	if len(entry.Domains) != 1 || !reflect.DeepEqual(entry.Domains[0].URLs, want) {
		t.Errorf("expected %v in order, got %+v", want, entry.Domains)
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	tests := []struct {
		term string
		url  string
		hit  bool
	}{
		{"rugby", "https://a.com/Rugby-News", true},
		{"RUGBY", "https://a.com/rugby", true},
		{"RuGbY", "https://a.com/RUGBY/2024", true},
		{"rugby", "https://a.com/football", false},
	}

	for _, tt := range tests {
		t.Run(tt.term+" "+tt.url, func(t *testing.T) {
			match, _ := Match([]resolver.Resolution{resolved("a.com", tt.url)}, []string{tt.term})
			got := len(match.Terms[0].Domains) == 1
			if got != tt.hit {
				t.Errorf("expected hit=%v, got %v", tt.hit, got)
			}
			if got && match.Terms[0].Term != tt.term {
				t.Errorf("term case not preserved: %q", match.Terms[0].Term)
			}
		})
	}
}

func TestMatchEmptyTerms(t *testing.T) {
	resolutions := []resolver.Resolution{
		failed("x.com"),
		resolved("a.com", "https://a.com/page"),
		failed("y.com"),
		failed("x.com"),
	}

	match, bad := Match(resolutions, nil)
	if len(match.Terms) != 0 {
		t.Errorf("expected empty match, got %+v", match.Terms)
	}
	if !reflect.DeepEqual(bad, []string{"x.com", "y.com"}) {
		t.Errorf("expected failed [x.com y.com], got %v", bad)
	}
}

func TestMatchPreservesDomainAndURLOrder(t *testing.T) {
	resolutions := []resolver.Resolution{
		resolved("z.com", "https://z.com/news/3", "https://z.com/news/1"),
		resolved("a.com", "https://a.com/news"),
	}

	match, _ := Match(resolutions, []string{"news"})
	got := match.Terms[0].Domains
	if len(got) != 2 || got[0].Domain != "z.com" || got[1].Domain != "a.com" {
		t.Fatalf("domain order not preserved: %+v", got)
	}
	if !reflect.DeepEqual(got[0].URLs, []string{"https://z.com/news/3", "https://z.com/news/1"}) {
		t.Errorf("url order not preserved: %v", got[0].URLs)
	}
	if match.Total() != 3 {
		t.Errorf("expected total 3, got %d", match.Total())
	}
}

func TestMatchDeduplicatesPerDomain(t *testing.T) {
	resolutions := []resolver.Resolution{
		resolved("a.com", "https://a.com/x", "https://a.com/x"),
		resolved("a.com", "https://a.com/x", "https://a.com/xy"),
	}

	match, _ := Match(resolutions, []string{"x"})
	want := []DomainMatches{{Domain: "a.com", URLs: []string{"https://a.com/x", "https://a.com/xy"}}}
	if !reflect.DeepEqual(match.Terms[0].Domains, want) {
		t.Errorf("unexpected matches: %+v", match.Terms[0].Domains)
	}
}

func TestLookupMissing(t *testing.T) {
	var m *TermMatch
	if _, ok := m.Lookup("x"); ok {
		t.Error("nil match should not find terms")
	}
	match, _ := Match(nil, []string{"a"})
	if _, ok := match.Lookup("b"); ok {
		t.Error("unexpected term b")
	}
}
