// Package config loads typed configuration for the client and the reference
// server. Values come from built-in defaults, then an optional YAML file,
// then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads from YAML as a Go duration string ("5m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// ClientConfig configures the contact client: where the service lives and how
// the session cache behaves.
type ClientConfig struct {
	BaseURL         string   `yaml:"base_url"`
	HTTPTimeout     Duration `yaml:"http_timeout"`
	ListStaleTime   Duration `yaml:"list_stale_time"`
	DetailStaleTime Duration `yaml:"detail_stale_time"`
	PageSize        int      `yaml:"page_size"`
	SearchDebounce  Duration `yaml:"search_debounce"`
	Locale          string   `yaml:"locale"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:         "http://localhost:8080",
		HTTPTimeout:     Duration(10 * time.Second),
		ListStaleTime:   Duration(5 * time.Minute),
		DetailStaleTime: Duration(time.Minute),
		PageSize:        10,
		SearchDebounce:  Duration(500 * time.Millisecond),
		Locale:          "vi",
	}
}

// LoadClientConfig reads path (if non-empty) over the defaults, then applies
// CONTACTS_* environment overrides.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := readYAML(path, &cfg); err != nil {
		return ClientConfig{}, err
	}

	if v := os.Getenv("CONTACTS_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CONTACTS_LOCALE"); v != "" {
		cfg.Locale = v
	}
	durations := []struct {
		env string
		dst *Duration
	}{
		{"CONTACTS_HTTP_TIMEOUT", &cfg.HTTPTimeout},
		{"CONTACTS_LIST_STALE_TIME", &cfg.ListStaleTime},
		{"CONTACTS_DETAIL_STALE_TIME", &cfg.DetailStaleTime},
		{"CONTACTS_SEARCH_DEBOUNCE", &cfg.SearchDebounce},
	}
	for _, d := range durations {
		if err := envDuration(d.env, d.dst); err != nil {
			return ClientConfig{}, err
		}
	}
	if v := os.Getenv("CONTACTS_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return ClientConfig{}, fmt.Errorf("CONTACTS_PAGE_SIZE must be a positive integer, got %q", v)
		}
		cfg.PageSize = n
	}

	if cfg.BaseURL == "" {
		return ClientConfig{}, errors.New("base url must not be empty")
	}
	if cfg.PageSize < 1 {
		return ClientConfig{}, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	return cfg, nil
}

// Storage backends supported by the reference server.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type ServerConfig struct {
	Port        string `yaml:"port"`
	Storage     string `yaml:"storage_backend"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`

	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            "8080",
		Storage:         StorageMemory,
		SQLitePath:      "contacts.db",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: Duration(10 * time.Second),
	}
}

// LoadServerConfig reads path (if non-empty) over the defaults, then applies
// environment overrides. DATABASE_URL is required for the postgres backend.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := readYAML(path, &cfg); err != nil {
		return ServerConfig{}, err
	}

	strs := []struct {
		env string
		dst *string
	}{
		{"PORT", &cfg.Port},
		{"STORAGE_BACKEND", &cfg.Storage},
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"SQLITE_PATH", &cfg.SQLitePath},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"LOG_FORMAT", &cfg.LogFormat},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	if err := envDuration("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout); err != nil {
		return ServerConfig{}, err
	}

	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return ServerConfig{}, errors.New("DATABASE_URL is required for the postgres storage backend")
		}
	case StorageSQLite:
		if cfg.SQLitePath == "" {
			return ServerConfig{}, errors.New("SQLITE_PATH is required for the sqlite storage backend")
		}
	default:
		return ServerConfig{}, fmt.Errorf("unknown STORAGE_BACKEND %q (want memory, postgres or sqlite)", cfg.Storage)
	}
	return cfg, nil
}

func readYAML(path string, dst any) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func envDuration(name string, dst *Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s must be a duration (e.g. 5m): %w", name, err)
	}
	*dst = Duration(d)
	return nil
}
