package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
	if cfg.Hunt.Catalog != nil || cfg.Scare.Enabled != nil {
		t.Fatalf("expected empty config")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[hunt]
catalog = "/tmp/hunt.yaml"
backend = "redis"

[redis]
addr = "localhost:6379"
db = 2

[scare]
probability = 0.5
duration-ms = 900

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Hunt.Catalog == nil || *cfg.Hunt.Catalog != "/tmp/hunt.yaml" {
		t.Fatalf("unexpected catalog %v", cfg.Hunt.Catalog)
	}
	if cfg.Hunt.Namespace != nil {
		t.Fatalf("expected unset namespace")
	}
	if cfg.Redis.DB == nil || *cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis db")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level")
	}

	scare, err := cfg.Scare.Apply(DefaultScare())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !scare.Enabled || scare.EffectiveProbability() != 0.5 || scare.Duration != 900*time.Millisecond {
		t.Fatalf("unexpected merged scare %+v", scare)
	}
	if scare.ImageURL != "assets/scare-default.png" {
		t.Fatalf("expected default image to survive, got %q", scare.ImageURL)
	}
}

func TestLoadConfigDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[hunt\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestScareApplyRejectsOutOfRange(t *testing.T) {
	p := 1.5
	if _, err := (ScareConfig{Probability: &p}).Apply(DefaultScare()); err == nil {
		t.Fatalf("expected probability error")
	}
	d := -1
	if _, err := (ScareConfig{DurationMs: &d}).Apply(DefaultScare()); err == nil {
		t.Fatalf("expected duration error")
	}
	off := false
	got, err := (ScareConfig{Enabled: &off}).Apply(DefaultScare())
	if err != nil || got.Enabled {
		t.Fatalf("expected disabled scare, got %+v %v", got, err)
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("SPOOKHUNT_BACKEND", "memory")
	t.Setenv("SPOOKHUNT_REDIS_DB", "4")
	t.Setenv("SPOOKHUNT_LOG_FILE", "/tmp/hunt.log")

	envCfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if envCfg.Catalog != nil {
		t.Fatalf("expected unset catalog to stay nil")
	}
	fileBackend := "sqlite"
	fileCatalog := "/srv/hunt.toml"
	file := FileConfig{Hunt: HuntConfig{Backend: &fileBackend, Catalog: &fileCatalog}}
	envCfg.Overlay(&file)
	if *file.Hunt.Backend != "memory" {
		t.Fatalf("expected env backend to win, got %s", *file.Hunt.Backend)
	}
	if *file.Hunt.Catalog != "/srv/hunt.toml" {
		t.Fatalf("expected file catalog to survive")
	}
	if file.Redis.DB == nil || *file.Redis.DB != 4 {
		t.Fatalf("expected redis db from env")
	}
	if file.Log.File == nil || *file.Log.File != "/tmp/hunt.log" {
		t.Fatalf("expected log file from env")
	}
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("SPOOKHUNT_REDIS_DB", "not-a-number")
	if _, err := LoadEnv(); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("SPOOKHUNT_NAMESPACE=from_dotenv\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SPOOKHUNT_NAMESPACE", "")
	os.Unsetenv("SPOOKHUNT_NAMESPACE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("SPOOKHUNT_NAMESPACE"); got != "from_dotenv" {
		t.Fatalf("expected namespace from .env, got %q", got)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "spookhunt", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "spookhunt", "progress.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "spookhunt", "spookhunt.log") {
		t.Fatalf("unexpected log path %s", got)
	}
}
