package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"sitemap-terms/pkg/report"
	"sitemap-terms/pkg/storage"
)

// EnvPrefix prefixes every environment override, e.g. SITEMAP_TERMS_WORKER_MAX_WORKERS.
const EnvPrefix = "SITEMAP_TERMS"

type Manager interface {
	// BindFlags maps command line flags onto config keys. Call before Load.
	BindFlags(flags *pflag.FlagSet, keys map[string]string) error
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
	// ConfigFileUsed returns the file the config was read from, if any.
	ConfigFileUsed() string
}

type manager struct {
	mu     sync.RWMutex
	config *Config
	viper  *viper.Viper
}

func NewManager() Manager {
	v := viper.New()
	setDefaults(v)
	return &manager{viper: v}
}

// ConfigDir is the per-user config directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.domains", "domains.txt")
	v.SetDefault("input.terms", "terms.txt")
	v.SetDefault("input.sitemap_suffix", "/sitemap.xml")

	v.SetDefault("output.path", "output.txt")
	v.SetDefault("output.format", "")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.rate_limit", 0)
	v.SetDefault("fetch.burst", 1)
	v.SetDefault("fetch.max_body_size", 50*1024*1024)
	v.SetDefault("fetch.max_redirects", 5)
	v.SetDefault("fetch.user_agents", []string{})

	v.SetDefault("resolver.child_concurrency", 4)
	v.SetDefault("resolver.max_concurrent_fetches", 16)
	v.SetDefault("resolver.max_depth", 0)
	v.SetDefault("resolver.exclude_paths", []string{})
	v.SetDefault("resolver.exclude_extensions", []string{})

	v.SetDefault("worker.max_workers", 8)
	v.SetDefault("worker.domain_timeout", 5*time.Minute)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.path", filepath.Join(xdg.DataHome, AppName, "runs.db"))

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_domains", 500)

	v.SetDefault("logger.level", "warn")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "15:04:05")
}

func (m *manager) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, key := range keys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := m.viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads configPath, or when empty looks for config.{yaml,json,toml} in
// the working directory and ConfigDir. A missing optional file is not an error.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setupViper(configPath)

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return nil, err
	}
	m.config = config
	return config, nil
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}
	if m.viper.ConfigFileUsed() != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
	}

	config, err := m.decode()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

func (m *manager) setupViper(configPath string) {
	if configPath != "" {
		m.viper.SetConfigFile(configPath)
	} else {
		m.viper.SetConfigName("config")
		m.viper.AddConfigPath(".")
		m.viper.AddConfigPath(ConfigDir())
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()
}

func (m *manager) decode() (*Config, error) {
	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate rejects settings the scanner cannot run with.
func Validate(config *Config) error {
	if config.Worker.MaxWorkers <= 0 {
		return fmt.Errorf("worker.max_workers must be positive")
	}
	if config.Worker.DomainTimeout <= 0 {
		return fmt.Errorf("worker.domain_timeout must be positive")
	}
	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if config.Fetch.RateLimit < 0 {
		return fmt.Errorf("fetch.rate_limit cannot be negative")
	}
	if config.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be positive")
	}
	if config.Resolver.ChildConcurrency <= 0 {
		return fmt.Errorf("resolver.child_concurrency must be positive")
	}
	if config.Resolver.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("resolver.max_concurrent_fetches must be positive")
	}
	if config.Resolver.MaxDepth < 0 {
		return fmt.Errorf("resolver.max_depth cannot be negative")
	}
	if config.Output.Format != "" {
		if _, err := report.ParseFormat(config.Output.Format); err != nil {
			return fmt.Errorf("output.format: %w", err)
		}
	}
	switch storage.NormalizeDriver(config.Storage.Driver) {
	case storage.DriverMemory:
	case storage.DriverSQLite:
		if config.Storage.Path == "" {
			return fmt.Errorf("storage.path cannot be empty for sqlite")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", config.Storage.Driver)
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", config.Server.Port)
	}
	return nil
}
