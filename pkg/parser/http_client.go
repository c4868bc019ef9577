package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/utils"
)

var (
	// ErrBodyTooLarge is returned when a sitemap exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrTooManyRedirects is returned when the redirect chain exceeds MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// HTTPClientConfig tunes the sitemap fetcher.
type HTTPClientConfig struct {
	Timeout      time.Duration
	MaxBodySize  int
	MaxRedirects int
	RateLimit    float64
	Burst        int
	UserAgents   []string
}

// DefaultHTTPClientConfig returns the defaults used by the CLI.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:      30 * time.Second,
		MaxBodySize:  50 * 1024 * 1024,
		MaxRedirects: 5,
		UserAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		},
	}
}

// HTTPClient fetches sitemap bodies over a shared fasthttp client. Each call
// is a single attempt bounded by Timeout; failures are never retried.
type HTTPClient struct {
	client  *fasthttp.Client
	config  HTTPClientConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewHTTPClient creates a new HTTP client for sitemap fetching
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	defaults := DefaultHTTPClientConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = defaults.MaxBodySize
	}
	if config.MaxRedirects < 0 {
		config.MaxRedirects = 0
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = defaults.UserAgents
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	return &HTTPClient{
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxResponseBodySize: config.MaxBodySize,
			MaxIdleConnDuration: time.Minute,
		},
		config:  config,
		limiter: limiter,
		log:     logger.GetLogger().WithField("component", "http_client"),
	}
}

// Fetch downloads targetURL following redirects, and returns the body with
// any content or file level gzip removed.
func (h *HTTPClient) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	// fasthttp has no context support; the deadline is the closer of the
	// configured timeout and the context deadline.
	deadline := time.Now().Add(h.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	current := targetURL
	for redirects := 0; ; redirects++ {
		req.Reset()
		resp.Reset()
		req.SetRequestURI(current)
		req.Header.SetMethod(fasthttp.MethodGet)
		h.setRequestHeaders(req, current)

		if err := h.client.DoDeadline(req, resp, deadline); err != nil {
			if errors.Is(err, fasthttp.ErrBodyTooLarge) {
				return nil, ErrBodyTooLarge
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		if !fasthttp.StatusCodeIsRedirect(resp.StatusCode()) {
			break
		}
		if redirects >= h.config.MaxRedirects {
			return nil, ErrTooManyRedirects
		}
		next, err := resolveLocation(current, string(resp.Header.Peek(fasthttp.HeaderLocation)))
		if err != nil {
			return nil, err
		}
		h.log.WithFields(map[string]interface{}{
			"from": current,
			"to":   next,
		}).Debug("Following redirect")
		current = next
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return nil, &StatusError{StatusCode: code}
	}

	body, err := h.decodeBody(resp)
	if err != nil {
		return nil, err
	}
	return maybeGunzip(body, h.config.MaxBodySize)
}

// setRequestHeaders adds browser-like headers to avoid bot detection
func (h *HTTPClient) setRequestHeaders(req *fasthttp.Request, targetURL string) {
	req.Header.SetUserAgent(h.config.UserAgents[utils.Bucket(targetURL, len(h.config.UserAgents))])
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	if parsedURL, err := url.Parse(targetURL); err == nil && parsedURL.Host != "" {
		req.Header.Set("Referer", fmt.Sprintf("%s://%s/", parsedURL.Scheme, parsedURL.Host))
	}
}

// decodeBody undoes Content-Encoding through a reader capped at MaxBodySize.
// The returned slice is a copy that outlives the pooled response.
func (h *HTTPClient) decodeBody(resp *fasthttp.Response) ([]byte, error) {
	raw := bytes.NewReader(resp.Body())

	var r io.Reader
	switch string(bytes.ToLower(resp.Header.Peek(fasthttp.HeaderContentEncoding))) {
	case "gzip":
		zr, err := gzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
		defer zr.Close()
		r = zr
	case "deflate":
		zr, err := zlib.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(raw)
	default:
		return append([]byte(nil), resp.Body()...), nil
	}
	return readLimited(r, h.config.MaxBodySize)
}

// maybeGunzip unpacks .xml.gz sitemaps served without Content-Encoding,
// detected by the gzip magic number.
func maybeGunzip(body []byte, limit int) ([]byte, error) {
	if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
		return body, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()
	return readLimited(zr, limit)
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress sitemap: %w", err)
	}
	if len(out) > limit {
		return nil, ErrBodyTooLarge
	}
	return out, nil
}

func resolveLocation(base, location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("redirect without Location header")
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", base, err)
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid redirect location %q: %w", location, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
