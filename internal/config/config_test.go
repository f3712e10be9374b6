package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const minimalConfig = "project: test\nversion: 1\nsources:\n  - name: main\n    location: ./ep-popolo-v1.0.json\n"

func TestLoadProjectConfig(t *testing.T) {
	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-project" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.Database.DSN != "sqlite://./test.db" {
			t.Fatalf("unexpected dsn %q", cfg.Database.DSN)
		}
		if cfg.Log.Level != "debug" {
			t.Fatalf("unexpected log level %q", cfg.Log.Level)
		}
		if len(cfg.Sources) != 2 {
			t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg, err := LoadProjectConfig(writeTempConfig(t, minimalConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.DSN != DefaultDSN {
			t.Fatalf("expected default dsn, got %q", cfg.Database.DSN)
		}
		if cfg.Log.Level != DefaultLogLevel || cfg.Log.JSON {
			t.Fatalf("unexpected log config %+v", cfg.Log)
		}
		if !reflect.DeepEqual(cfg.Classifications.Election, []string{"general election"}) {
			t.Fatalf("unexpected election classifications %v", cfg.Classifications.Election)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("POPOLO_DATABASE_DSN", "postgres://u:p@localhost:5432/popolo")
		t.Setenv("POPOLO_LOG_LEVEL", "warn")
		t.Setenv("POPOLO_LOG_JSON", "true")

		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Database.DSN != "postgres://u:p@localhost:5432/popolo" {
			t.Fatalf("expected env dsn, got %q", cfg.Database.DSN)
		}
		if cfg.Log.Level != "warn" || !cfg.Log.JSON {
			t.Fatalf("expected env log config, got %+v", cfg.Log)
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nsources:\n  - name: main\n    location: ./a.json\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 2\nsources:\n  - name: main\n    location: ./a.json\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("no sources", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("source missing name", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nsources:\n  - location: ./a.json\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("source missing location", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nsources:\n  - name: main\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("duplicate source names", func(t *testing.T) {
		path := writeTempConfig(t, "project: test\nversion: 1\nsources:\n  - name: main\n    location: ./a.json\n  - name: Main\n    location: ./b.json\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "project: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestConfigHelpers(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	t.Run("SourceByName case-insensitive", func(t *testing.T) {
		src, ok := cfg.SourceByName("SENATE")
		if !ok {
			t.Fatalf("expected to find senate source")
		}
		if src.Location != "https://example.org/senate/ep-popolo-v1.0.json" {
			t.Fatalf("unexpected location %q", src.Location)
		}
		if _, ok := cfg.SourceByName("house"); ok {
			t.Fatalf("expected house to be missing")
		}
	})

	t.Run("PopoloClassifications", func(t *testing.T) {
		c := cfg.Classifications.PopoloClassifications()
		if !reflect.DeepEqual(c.LegislativePeriod, []string{"legislative period", "session"}) {
			t.Fatalf("unexpected legislative periods %v", c.LegislativePeriod)
		}
		if !reflect.DeepEqual(c.Election, []string{"general election"}) {
			t.Fatalf("unexpected elections %v", c.Election)
		}
	})

	t.Run("nil config has no sources", func(t *testing.T) {
		var empty *ProjectConfig
		if _, ok := empty.SourceByName("riigikogu"); ok {
			t.Fatalf("expected no source")
		}
	})
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
