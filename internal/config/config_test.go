package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/retain/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()
	if cfg.Store.Driver != DefaultDriver {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, DefaultDriver)
	}
	if cfg.Store.Key != DefaultStoreKey {
		t.Errorf("Store.Key = %q, want %q", cfg.Store.Key, DefaultStoreKey)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Store.Driver != DefaultDriver {
		t.Errorf("Store.Driver = %q, want default", cfg.Store.Driver)
	}
	if cfg.Path() != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Path = %q", cfg.Path())
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `
log:
  level: debug
  format: json
store:
  driver: sqlite
inspect:
  addr: ":9090"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Store.Driver = %q, want sqlite", cfg.Store.Driver)
	}
	if cfg.Store.Path != "retain.db" {
		t.Errorf("Store.Path = %q, want the sqlite default", cfg.Store.Path)
	}
	if cfg.Store.Key != DefaultStoreKey {
		t.Errorf("Store.Key = %q, want default", cfg.Store.Key)
	}
	if cfg.Inspect.Addr != ":9090" {
		t.Errorf("Inspect.Addr = %q", cfg.Inspect.Addr)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q", cfg.Metrics.Namespace)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"unknown driver", "store:\n  driver: mongo\n", "Driver"},
		{"s3 without bucket", "store:\n  driver: s3\n", "Bucket"},
		{"bad log level", "log:\n  level: loud\n", "Level"},
		{"bad format", "log:\n  format: xml\n", "Format"},
		{"bad endpoint", "store:\n  driver: s3\n  bucket: b\n  endpoint: not a url\n", "Endpoint"},
		{"bad namespace", "metrics:\n  namespace: my-app\n", "Namespace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load should fail")
			}
			if errors.CodeOf(err) != "E501" {
				t.Errorf("code = %q, want E501", errors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, "store: [unterminated\n"))
	if err == nil {
		t.Fatal("Load should fail on malformed YAML")
	}
	if errors.CodeOf(err) != "E501" {
		t.Errorf("code = %q, want E501", errors.CodeOf(err))
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	cfg := New()
	cfg.Store.Driver = "badger"
	cfg.Store.Path = "/var/lib/retain"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Store != cfg.Store {
		t.Errorf("Store = %+v, want %+v", loaded.Store, cfg.Store)
	}

	if err := New().Save(); err == nil {
		t.Error("Save without a path should fail")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "shown" {
		t.Errorf("msg = %v", rec["msg"])
	}
}
