package config

import (
	"time"

	"sitemap-terms/pkg/logger"
	"sitemap-terms/pkg/parser"
	"sitemap-terms/pkg/resolver"
	"sitemap-terms/pkg/scanner"
	"sitemap-terms/pkg/storage"
)

// AppName names the config directory under the XDG config home.
const AppName = "sitemap-terms"

type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Output   OutputConfig   `mapstructure:"output"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

type InputConfig struct {
	Domains       string `mapstructure:"domains"`
	Terms         string `mapstructure:"terms"`
	SitemapSuffix string `mapstructure:"sitemap_suffix"`
}

type OutputConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	Burst        int           `mapstructure:"burst"`
	MaxBodySize  int           `mapstructure:"max_body_size"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	UserAgents   []string      `mapstructure:"user_agents"`
}

type ResolverConfig struct {
	ChildConcurrency     int      `mapstructure:"child_concurrency"`
	MaxConcurrentFetches int      `mapstructure:"max_concurrent_fetches"`
	MaxDepth             int      `mapstructure:"max_depth"`
	ExcludePaths         []string `mapstructure:"exclude_paths"`
	ExcludeExtensions    []string `mapstructure:"exclude_extensions"`
}

type WorkerConfig struct {
	MaxWorkers    int           `mapstructure:"max_workers"`
	DomainTimeout time.Duration `mapstructure:"domain_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxDomains      int           `mapstructure:"max_domains"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	TimeFormat string `mapstructure:"time_format"`
}

func (c *Config) HTTPClientConfig() parser.HTTPClientConfig {
	return parser.HTTPClientConfig{
		Timeout:      c.Fetch.Timeout,
		MaxBodySize:  c.Fetch.MaxBodySize,
		MaxRedirects: c.Fetch.MaxRedirects,
		RateLimit:    c.Fetch.RateLimit,
		Burst:        c.Fetch.Burst,
		UserAgents:   c.Fetch.UserAgents,
	}
}

func (c *Config) ResolverConfig() resolver.Config {
	cfg := resolver.Config{
		ChildConcurrency:     c.Resolver.ChildConcurrency,
		MaxConcurrentFetches: c.Resolver.MaxConcurrentFetches,
		MaxDepth:             c.Resolver.MaxDepth,
	}
	if len(c.Resolver.ExcludePaths) > 0 {
		cfg.Filters = append(cfg.Filters, parser.NewPathFilter("exclude_paths", c.Resolver.ExcludePaths))
	}
	if len(c.Resolver.ExcludeExtensions) > 0 {
		cfg.Filters = append(cfg.Filters, parser.NewExtensionFilter("exclude_extensions", c.Resolver.ExcludeExtensions))
	}
	return cfg
}

func (c *Config) ScannerConfig() scanner.Config {
	return scanner.Config{
		MaxWorkers:    c.Worker.MaxWorkers,
		DomainTimeout: c.Worker.DomainTimeout,
		SitemapSuffix: c.Input.SitemapSuffix,
	}
}

func (c *Config) StorageConfig() storage.StorageConfig {
	return storage.StorageConfig{Driver: c.Storage.Driver, Path: c.Storage.Path}
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logger.Level,
		Format:     c.Logger.Format,
		Output:     c.Logger.Output,
		TimeFormat: c.Logger.TimeFormat,
	}
}
