package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Input.Domains != "domains.txt" || cfg.Input.Terms != "terms.txt" || cfg.Output.Path != "output.txt" {
		t.Errorf("unexpected file defaults: %+v %+v", cfg.Input, cfg.Output)
	}
	if cfg.Fetch.Timeout != 30*time.Second {
		t.Errorf("expected 30s fetch timeout, got %v", cfg.Fetch.Timeout)
	}
	if cfg.Worker.MaxWorkers != 8 || cfg.Resolver.ChildConcurrency != 4 {
		t.Errorf("unexpected concurrency defaults: %+v %+v", cfg.Worker, cfg.Resolver)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("expected memory storage, got %q", cfg.Storage.Driver)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
fetch:
  timeout: 5s
  rate_limit: 2.5
worker:
  max_workers: 3
resolver:
  max_depth: 4
  exclude_extensions: [".pdf", ".jpg"]
output:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	cfg, err := m.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.ConfigFileUsed() != path {
		t.Errorf("expected config file %s, got %s", path, m.ConfigFileUsed())
	}
	if cfg.Fetch.Timeout != 5*time.Second || cfg.Fetch.RateLimit != 2.5 {
		t.Errorf("unexpected fetch config: %+v", cfg.Fetch)
	}
	if cfg.Worker.MaxWorkers != 3 || cfg.Resolver.MaxDepth != 4 {
		t.Errorf("unexpected values: %+v %+v", cfg.Worker, cfg.Resolver)
	}
	if !reflect.DeepEqual(cfg.Resolver.ExcludeExtensions, []string{".pdf", ".jpg"}) {
		t.Errorf("unexpected extensions: %v", cfg.Resolver.ExcludeExtensions)
	}

	rc := cfg.ResolverConfig()
	if len(rc.Filters) != 1 || rc.Filters[0].Name() != "exclude_extensions" {
		t.Errorf("expected extension filter, got %+v", rc.Filters)
	}
	if cfg.ScannerConfig().MaxWorkers != 3 || cfg.HTTPClientConfig().Timeout != 5*time.Second {
		t.Error("derived configs not populated")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := NewManager().Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SITEMAP_TERMS_WORKER_MAX_WORKERS", "12")
	t.Setenv("SITEMAP_TERMS_FETCH_TIMEOUT", "2s")

	cfg, err := NewManager().Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Worker.MaxWorkers != 12 {
		t.Errorf("expected 12 workers from env, got %d", cfg.Worker.MaxWorkers)
	}
	if cfg.Fetch.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout from env, got %v", cfg.Fetch.Timeout)
	}
}

func TestBindFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("domains", "d", "domains.txt", "")
	flags.StringP("format", "f", "", "")
	if err := flags.Parse([]string{"-d", "list.txt", "--format", "markdown"}); err != nil {
		t.Fatal(err)
	}

	m := NewManager()
	err := m.BindFlags(flags, map[string]string{
		"domains": "input.domains",
		"format":  "output.format",
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	cfg, err := m.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Input.Domains != "list.txt" || cfg.Output.Format != "markdown" {
		t.Errorf("flags not applied: %+v %+v", cfg.Input, cfg.Output)
	}

	if err := m.BindFlags(flags, map[string]string{"missing": "x"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := NewManager().Load("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"workers", func(c *Config) { c.Worker.MaxWorkers = 0 }, "max_workers"},
		{"domain timeout", func(c *Config) { c.Worker.DomainTimeout = 0 }, "domain_timeout"},
		{"fetch timeout", func(c *Config) { c.Fetch.Timeout = -time.Second }, "fetch.timeout"},
		{"rate", func(c *Config) { c.Fetch.RateLimit = -1 }, "rate_limit"},
		{"depth", func(c *Config) { c.Resolver.MaxDepth = -1 }, "max_depth"},
		{"format", func(c *Config) { c.Output.Format = "pdf" }, "output.format"},
		{"driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver"},
		{"sqlite path", func(c *Config) { c.Storage.Driver = "sqlite"; c.Storage.Path = "" }, "storage.path"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestReload(t *testing.T) {
	m := NewManager()
	if err := m.Reload(); err == nil {
		t.Error("expected reload before load to fail")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("worker:\n  max_workers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load(path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("worker:\n  max_workers: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m.GetConfig().Worker.MaxWorkers != 6 {
		t.Errorf("expected 6 workers after reload, got %d", m.GetConfig().Worker.MaxWorkers)
	}
}
