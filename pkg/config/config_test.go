package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Agent.MaxToolIterations == 0 {
		t.Error("MaxToolIterations should not be zero")
	}
	if cfg.Agent.HistorySize == 0 {
		t.Error("HistorySize should not be zero")
	}
	if cfg.Notify.MinInterval == 0 {
		t.Error("Notify.MinInterval should not be zero")
	}
	if cfg.Telegram.PollTimeout == 0 {
		t.Error("Telegram.PollTimeout should not be zero")
	}
	if cfg.Guest.Command == "" {
		t.Error("Guest.Command should not be empty")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if cfg.Agent.Model == "" {
		t.Error("defaults should apply when file is missing")
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"agent": {"max_tool_iterations": 5}, "telegram": {"allow_from": [123, "456"]}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GENESISBRIDGE_AGENT_MODEL", "test-model")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Agent.MaxToolIterations != 5 {
		t.Errorf("max_tool_iterations = %d, want 5", cfg.Agent.MaxToolIterations)
	}
	if cfg.Agent.Model != "test-model" {
		t.Errorf("env override not applied, model = %s", cfg.Agent.Model)
	}
	if len(cfg.Telegram.AllowFrom) != 2 || cfg.Telegram.AllowFrom[0] != "123" {
		t.Errorf("allow_from = %v, want [123 456]", cfg.Telegram.AllowFrom)
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("GB_TEST_SECRET", "sekrit")

	if got := resolveEnvRef("${GB_TEST_SECRET}"); got != "sekrit" {
		t.Errorf("braced ref = %q", got)
	}
	if got := resolveEnvRef("$GB_TEST_SECRET"); got != "sekrit" {
		t.Errorf("bare ref = %q", got)
	}
	if got := resolveEnvRef("plain-value"); got != "plain-value" {
		t.Errorf("plain value = %q", got)
	}
}
