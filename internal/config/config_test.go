package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.MaxIterations != 10 || cfg.HistoryWindow != 50 {
		t.Errorf("loop defaults = %d/%d", cfg.MaxIterations, cfg.HistoryWindow)
	}
	if cfg.WorkStartHour != 9 || cfg.WorkEndHour != 18 {
		t.Errorf("work hours = %d-%d", cfg.WorkStartHour, cfg.WorkEndHour)
	}
	if cfg.Timezone != "Asia/Taipei" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedagent.yaml")
	yaml := "listen_addr: \":9999\"\nmax_iterations: 5\ntimezone: \"UTC\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d", cfg.MaxIterations)
	}
	// Untouched keys keep defaults.
	if cfg.OllamaModel != "qwen2.5:7b" {
		t.Errorf("OllamaModel = %q", cfg.OllamaModel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedagent.yaml")
	if err := os.WriteFile(path, []byte("ollama_model: \"from-file\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OLLAMA_MODEL", "from-env")
	t.Setenv("AGENT_MAX_ITERATIONS", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OllamaModel != "from-env" {
		t.Errorf("OllamaModel = %q, want env to win", cfg.OllamaModel)
	}
	if cfg.MaxIterations != 3 {
		t.Errorf("MaxIterations = %d", cfg.MaxIterations)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("missing optional file: %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("AGENT_MAX_ITERATIONS", "0")
	if _, err := Load(""); err == nil {
		t.Error("zero iteration cap accepted")
	}
	t.Setenv("AGENT_MAX_ITERATIONS", "10")

	t.Setenv("WORK_START_HOUR", "18")
	t.Setenv("WORK_END_HOUR", "9")
	if _, err := Load(""); err == nil {
		t.Error("inverted work hours accepted")
	}
	t.Setenv("WORK_START_HOUR", "9")
	t.Setenv("WORK_END_HOUR", "18")

	t.Setenv("AGENT_TIMEZONE", "Mars/Olympus")
	if _, err := Load(""); err == nil {
		t.Error("bogus timezone accepted")
	}
}
