package parser

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("Failed to gzip fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

func newSitemapServer(t *testing.T) *httptest.Server {
	t.Helper()
	gzFile := gzipBytes(t, urlsetXML)
	bomb := gzipBytes(t, strings.Repeat(" ", 8<<20))

	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(urlsetXML))
	})
	mux.HandleFunc("/sitemap.xml.gz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(gzFile)
	})
	mux.HandleFunc("/encoded.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gzFile)
	})
	mux.HandleFunc("/deflate.xml", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, _ = zw.Write([]byte(urlsetXML))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "deflate")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/brotli.xml", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte(urlsetXML))
		_ = bw.Close()
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(buf.Bytes())
	})
	mux.HandleFunc("/bomb.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(bomb)
	})
	mux.HandleFunc("/moved.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sitemap.xml", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/loop.xml", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop.xml", http.StatusFound)
	})
	mux.HandleFunc("/slow.xml", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(urlsetXML))
	})
	mux.HandleFunc("/big.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientFetch(t *testing.T) {
	srv := newSitemapServer(t)
	client := NewHTTPClient(HTTPClientConfig{Timeout: 5 * time.Second})
	ctx := context.Background()

	for _, path := range []string{"/sitemap.xml", "/sitemap.xml.gz", "/encoded.xml", "/deflate.xml", "/brotli.xml", "/moved.xml"} {
		t.Run(path, func(t *testing.T) {
			body, err := client.Fetch(ctx, srv.URL+path)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if string(body) != urlsetXML {
				t.Errorf("Unexpected body for %s: %q", path, body)
			}
		})
	}
}

func TestHTTPClientFetchFailures(t *testing.T) {
	srv := newSitemapServer(t)
	client := NewHTTPClient(HTTPClientConfig{
		Timeout:      300 * time.Millisecond,
		MaxBodySize:  1024,
		MaxRedirects: 3,
	})
	ctx := context.Background()

	_, err := client.Fetch(ctx, srv.URL+"/missing.xml")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 StatusError, got %v", err)
	}

	if _, err := client.Fetch(ctx, srv.URL+"/loop.xml"); !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("Expected ErrTooManyRedirects, got %v", err)
	}

	if _, err := client.Fetch(ctx, srv.URL+"/big.xml"); !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("Expected ErrBodyTooLarge, got %v", err)
	}

	start := time.Now()
	if _, err := client.Fetch(ctx, srv.URL+"/slow.xml"); err == nil {
		t.Error("Expected timeout error for slow sitemap")
	}
	if elapsed := time.Since(start); elapsed > 1500*time.Millisecond {
		t.Errorf("Timeout not enforced, took %v", elapsed)
	}

	if _, err := client.Fetch(ctx, "example.com/sitemap.xml"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := client.Fetch(cancelled, srv.URL+"/sitemap.xml"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestHTTPClientDecodedBodyLimit(t *testing.T) {
	srv := newSitemapServer(t)
	client := NewHTTPClient(HTTPClientConfig{
		Timeout:     5 * time.Second,
		MaxBodySize: 64 << 10,
	})

	body, err := client.Fetch(context.Background(), srv.URL+"/bomb.xml")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Expected ErrBodyTooLarge for an oversized decoded body, got %d bytes, err %v", len(body), err)
	}
}

func TestHTTPClientRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(urlsetXML))
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientConfig{Timeout: time.Second, RateLimit: 20, Burst: 1})
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("Fetch %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Expected rate limiting to space requests, took %v", elapsed)
	}
	if hits.Load() != 3 {
		t.Errorf("Expected 3 requests, got %d", hits.Load())
	}
}
