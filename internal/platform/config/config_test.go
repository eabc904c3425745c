package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var clientEnv = []string{
	"CONTACTS_BASE_URL", "CONTACTS_HTTP_TIMEOUT", "CONTACTS_LIST_STALE_TIME",
	"CONTACTS_DETAIL_STALE_TIME", "CONTACTS_PAGE_SIZE", "CONTACTS_SEARCH_DEBOUNCE", "CONTACTS_LOCALE",
}

var serverEnv = []string{
	"PORT", "STORAGE_BACKEND", "DATABASE_URL", "SQLITE_PATH", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T, names []string) {
	t.Helper()
	for _, n := range names {
		t.Setenv(n, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadClientConfig_Defaults(t *testing.T) {
	clearEnv(t, clientEnv)

	cfg, err := LoadClientConfig("")
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultClientConfig(), cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
	if time.Duration(cfg.ListStaleTime) != 5*time.Minute || time.Duration(cfg.SearchDebounce) != 500*time.Millisecond {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadClientConfig_FileThenEnv(t *testing.T) {
	clearEnv(t, clientEnv)
	path := writeFile(t, strings.Join([]string{
		"base_url: http://contacts.internal:9000",
		"list_stale_time: 2m",
		"page_size: 6",
		"locale: en",
	}, "\n"))
	t.Setenv("CONTACTS_PAGE_SIZE", "20")
	t.Setenv("CONTACTS_SEARCH_DEBOUNCE", "250ms")

	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	want := DefaultClientConfig()
	want.BaseURL = "http://contacts.internal:9000"
	want.ListStaleTime = Duration(2 * time.Minute)
	want.PageSize = 20
	want.SearchDebounce = Duration(250 * time.Millisecond)
	want.Locale = "en"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config (-want +got):\n%s", diff)
	}
}

func TestLoadClientConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad duration", env: map[string]string{"CONTACTS_HTTP_TIMEOUT": "soon"}},
		{name: "bad page size", env: map[string]string{"CONTACTS_PAGE_SIZE": "0"}},
		{name: "bad yaml duration", file: "detail_stale_time: forever"},
		{name: "missing file", file: "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, clientEnv)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			switch tt.file {
			case "":
			case "-":
				path = filepath.Join(t.TempDir(), "absent.yaml")
			default:
				path = writeFile(t, tt.file)
			}
			if _, err := LoadClientConfig(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadServerConfig(t *testing.T) {
	clearEnv(t, serverEnv)

	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultServerConfig(), cfg); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}

	t.Setenv("STORAGE_BACKEND", StoragePostgres)
	if _, err := LoadServerConfig(""); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("err=%v want DATABASE_URL error", err)
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/contacts")
	t.Setenv("PORT", "9090")
	cfg, err = LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.Storage != StoragePostgres || cfg.DatabaseURL != "postgres://localhost/contacts" {
		t.Fatalf("cfg=%+v", cfg)
	}

	t.Setenv("STORAGE_BACKEND", "mongo")
	if _, err := LoadServerConfig(""); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadServerConfig_File(t *testing.T) {
	clearEnv(t, serverEnv)
	path := writeFile(t, "storage_backend: sqlite\nsqlite_path: /tmp/c.db\nshutdown_timeout: 3s\nlog_format: console\n")

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Storage != StorageSQLite || cfg.SQLitePath != "/tmp/c.db" || time.Duration(cfg.ShutdownTimeout) != 3*time.Second || cfg.LogFormat != "console" {
		t.Fatalf("cfg=%+v", cfg)
	}
}
