package matcher

import (
	"strings"

	"sitemap-terms/pkg/resolver"
)

// DomainMatches holds the URLs of one domain that contain a term.
type DomainMatches struct {
	Domain string   `json:"domain" yaml:"domain"`
	URLs   []string `json:"urls" yaml:"urls"`
}

// TermEntry is one term as given by the caller and its per-domain matches.
// Domains without a match are omitted, so Domains may be empty.
type TermEntry struct {
	Term    string          `json:"term" yaml:"term"`
	Domains []DomainMatches `json:"domains" yaml:"domains"`
}

// Count returns the number of matched URLs across domains.
func (e TermEntry) Count() int {
	n := 0
	for _, d := range e.Domains {
		n += len(d.URLs)
	}
	return n
}

// TermMatch keeps terms in input order.
type TermMatch struct {
	Terms []TermEntry `json:"terms" yaml:"terms"`
}

// Lookup finds a term, comparing case-insensitively.
func (m *TermMatch) Lookup(term string) (TermEntry, bool) {
	if m == nil {
		return TermEntry{}, false
	}
	for _, e := range m.Terms {
		if strings.EqualFold(e.Term, term) {
			return e, true
		}
	}
	return TermEntry{}, false
}

// Total returns the number of matched URLs over all terms.
func (m *TermMatch) Total() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, e := range m.Terms {
		n += e.Count()
	}
	return n
}

type domainURLs struct {
	domain string
	urls   []string
	lower  []string
}

// Match selects, for every term, the URLs of each resolved domain whose
// lowercased form contains the lowercased term. Failed domains are returned
// once each, in input order. Match performs no I/O.
func Match(resolutions []resolver.Resolution, terms []string) (*TermMatch, []string) {
	var (
		domains []*domainURLs
		byName  = make(map[string]*domainURLs)
		failed  []string
		seenBad = make(map[string]struct{})
	)

	for _, res := range resolutions {
		if !res.IsResolved() {
			if _, ok := seenBad[res.Domain]; !ok {
				seenBad[res.Domain] = struct{}{}
				failed = append(failed, res.Domain)
			}
			continue
		}

		d, ok := byName[res.Domain]
		if !ok {
			d = &domainURLs{domain: res.Domain}
			byName[res.Domain] = d
			domains = append(domains, d)
		}
		d.add(res.URLs)
	}
	if failed == nil {
		failed = []string{}
	}

	match := &TermMatch{Terms: make([]TermEntry, 0, len(terms))}
	for _, term := range terms {
		needle := strings.ToLower(term)
		entry := TermEntry{Term: term, Domains: []DomainMatches{}}

		for _, d := range domains {
			var hits []string
			for i, u := range d.lower {
				if strings.Contains(u, needle) {
					hits = append(hits, d.urls[i])
				}
			}
			if len(hits) > 0 {
				entry.Domains = append(entry.Domains, DomainMatches{Domain: d.domain, URLs: hits})
			}
		}
		match.Terms = append(match.Terms, entry)
	}
	return match, failed
}

// add appends urls not already present for the domain.
func (d *domainURLs) add(urls []string) {
	seen := make(map[string]struct{}, len(d.urls)+len(urls))
	for _, u := range d.urls {
		seen[u] = struct{}{}
	}
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		d.urls = append(d.urls, u)
		d.lower = append(d.lower, strings.ToLower(u))
	}
}
