package resolver

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/parser"
	"sitemap-terms/pkg/utils"
)

// Config bounds the recursion. MaxDepth 0 means unlimited nesting.
type Config struct {
	ChildConcurrency     int
	MaxConcurrentFetches int
	MaxDepth             int
	Filters              []parser.Filter
}

// DefaultConfig returns the resolver defaults.
func DefaultConfig() Config {
	return Config{
		ChildConcurrency:     4,
		MaxConcurrentFetches: 16,
	}
}

// Resolver turns a root sitemap URL into the flat list of leaf URLs it
// references, through any depth of sitemap indexes.
type Resolver struct {
	fetcher  parser.Fetcher
	config   Config
	fetchSem *semaphore.Weighted
	log      *logger.Logger
}

// New creates a resolver. The fetch semaphore is shared by every Resolve
// call on the returned value.
func New(fetcher parser.Fetcher, config Config) *Resolver {
	if config.ChildConcurrency <= 0 {
		config.ChildConcurrency = 1
	}
	if config.MaxConcurrentFetches <= 0 {
		config.MaxConcurrentFetches = DefaultConfig().MaxConcurrentFetches
	}
	return &Resolver{
		fetcher:  fetcher,
		config:   config,
		fetchSem: semaphore.NewWeighted(int64(config.MaxConcurrentFetches)),
		log:      logger.GetLogger().WithField("component", "resolver"),
	}
}

// Resolve resolves one domain. Node level failures are absorbed; the domain
// is Failed only when its root node is unresolvable. An empty domain is
// derived from sitemapURL.
func (r *Resolver) Resolve(ctx context.Context, domain, sitemapURL string) Resolution {
	start := time.Now()
	if domain == "" {
		domain = DisplayName(sitemapURL, "")
	}

	c := newCall(r)
	c.discover(ctx, sitemapURL)
	leaves, err := c.walk(sitemapURL, nil, 0)

	var res Resolution
	if err != nil {
		c.recordFailure(sitemapURL, err)
		res = Failed(domain, sitemapURL, err)
	} else {
		res = Resolved(domain, sitemapURL, dedupe(leaves))
	}
	res.Fetched = c.fetched
	res.Failures = c.failures
	res.Duration = time.Since(start)

	log := r.log.WithFields(map[string]interface{}{
		"domain":   domain,
		"fetched":  res.Fetched,
		"failures": len(res.Failures),
		"duration": res.Duration.String(),
	})
	if err != nil {
		log.WithError(err).WithField("cause", Cause(err)).Warn("Domain sitemap unresolvable")
	} else {
		log.WithField("urls", len(res.URLs)).Debug("Domain sitemap resolved")
	}
	return res
}

// call is the state of one top-level Resolve: every document discovered
// under the root, the URLs already expanded and the failures seen so far.
type call struct {
	r        *Resolver
	nodes    map[string]Node
	visited  map[string]visit
	fetched  int
	failures []NodeFailure
}

// visit is the outcome of the first expansion of a URL and the depth it was
// expanded at.
type visit struct {
	depth int
	err   error
}

func newCall(r *Resolver) *call {
	return &call{
		r:       r,
		nodes:   make(map[string]Node),
		visited: make(map[string]visit),
	}
}

// chain is the immutable list of index URLs from the root to the current node.
type chain struct {
	url    string
	parent *chain
}

func (c *chain) contains(url string) bool {
	for n := c; n != nil; n = n.parent {
		if n.url == url {
			return true
		}
	}
	return false
}

// discover fetches every document reachable from root, level by level, each
// URL at most once. Children beyond MaxDepth are not fetched.
func (c *call) discover(ctx context.Context, root string) {
	limit := c.r.config.MaxDepth
	seen := map[string]struct{}{root: {}}
	frontier := []string{root}

	for depth := 0; len(frontier) > 0; depth++ {
		level := make([]Node, len(frontier))

		var g errgroup.Group
		g.SetLimit(c.r.config.ChildConcurrency)
		for i, url := range frontier {
			g.Go(func() error {
				level[i] = c.r.fetchNode(ctx, url)
				return nil
			})
		}
		_ = g.Wait()

		var next []string
		for _, node := range level {
			c.nodes[node.URL] = node
			c.fetched++
			if node.Kind != KindSitemapIndex || (limit > 0 && depth+1 > limit) {
				continue
			}
			for _, child := range node.Children {
				if _, ok := seen[child]; ok {
					continue
				}
				seen[child] = struct{}{}
				next = append(next, child)
			}
		}
		frontier = next
	}
}

// walk expands url over the discovered documents, depth first in child
// order. A URL already expanded is not expanded again: that occurrence adds
// no leaves and reports the first outcome, unless it now sits shallower under
// a depth limit.
func (c *call) walk(url string, ancestors *chain, depth int) ([]string, error) {
	node, ok := c.nodes[url]
	if limit := c.r.config.MaxDepth; !ok || (limit > 0 && depth > limit) {
		return nil, ErrMaxDepthExceeded
	}

	var (
		leaves []string
		err    error
	)
	switch node.Kind {
	case KindURLSet:
		leaves = node.Leaves
	case KindSitemapIndex:
		leaves, err = c.walkChildren(node, &chain{url: url, parent: ancestors}, depth)
	default:
		err = node.Err
	}
	c.visited[url] = visit{depth: depth, err: err}
	return leaves, err
}

// walkChildren concatenates the leaves of an index's children in child order.
// Failed children contribute nothing; the index fails only when it has
// children and none of them resolved.
func (c *call) walkChildren(node Node, path *chain, depth int) ([]string, error) {
	limit := c.r.config.MaxDepth
	var leaves []string
	resolved := 0

	for _, child := range node.Children {
		if path.contains(child) {
			c.recordFailure(child, ErrCycleDetected)
			continue
		}
		if v, ok := c.visited[child]; ok && !(limit > 0 && depth+1 < v.depth) {
			if v.err == nil {
				resolved++
			}
			continue
		}
		childLeaves, err := c.walk(child, path, depth+1)
		if err != nil {
			c.recordFailure(child, err)
			continue
		}
		resolved++
		leaves = append(leaves, childLeaves...)
	}

	if resolved == 0 && len(node.Children) > 0 {
		return nil, fmt.Errorf("%w (%d children)", ErrNoResolvableChildren, len(node.Children))
	}
	return leaves, nil
}

func (c *call) recordFailure(url string, err error) {
	c.r.log.WithError(err).WithFields(map[string]interface{}{
		"url":      url,
		"url_hash": utils.ShortURLHash(url),
		"cause":    Cause(err),
	}).Debug("Sitemap node unresolvable")

	c.failures = append(c.failures, NodeFailure{URL: url, Err: err})
}

// fetchNode performs the fetch and decode steps. The fetch semaphore is held
// only for the network call.
func (r *Resolver) fetchNode(ctx context.Context, url string) Node {
	node := Node{URL: url, Kind: KindUnresolvable}

	if err := r.fetchSem.Acquire(ctx, 1); err != nil {
		node.Err = &FetchError{URL: url, Err: err}
		return node
	}
	body, err := r.fetcher.Fetch(ctx, url)
	r.fetchSem.Release(1)
	if err != nil {
		node.Err = &FetchError{URL: url, Err: err}
		return node
	}

	doc, err := parser.DecodeDocument(body)
	if err != nil {
		node.Err = &ParseError{URL: url, Err: err}
		return node
	}

	switch doc.Type {
	case parser.DocumentURLSet:
		node.Kind = KindURLSet
		node.Leaves = make([]string, 0, len(doc.Locs))
		for _, loc := range doc.Locs {
			if !parser.Excluded(r.config.Filters, loc) {
				node.Leaves = append(node.Leaves, loc)
			}
		}
	case parser.DocumentSitemapIndex:
		node.Kind = KindSitemapIndex
		node.Children = doc.Locs
	default:
		node.Err = fmt.Errorf("%w: root element <%s>", ErrUnrecognizedDocument, doc.Root)
	}
	return node
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
