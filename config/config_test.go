package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SERPER_API_KEY", "serper-test")

	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server.address default wrong: %q", cfg.Server.Address)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" || cfg.OpenAI.ImageModel != "dall-e-3" {
		t.Errorf("model defaults wrong: %+v", cfg.OpenAI)
	}
	if cfg.Agent.MaxSteps != 10 {
		t.Errorf("agent.max_steps default wrong: %d", cfg.Agent.MaxSteps)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OPENAI_API_KEY not picked up")
	}
	if cfg.SearchAPIKey() != "serper-test" {
		t.Errorf("search key wrong: %q", cfg.SearchAPIKey())
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BRAVE_API_KEY", "brave-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"server":{"address":":9090"},"search":{"provider":"brave"},"agent":{"max_steps":4}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("server.address not read from file: %q", cfg.Server.Address)
	}
	if cfg.Search.Provider != "brave" || cfg.SearchAPIKey() != "brave-test" {
		t.Errorf("brave provider not configured: %+v", cfg.Search)
	}
	if cfg.Agent.MaxSteps != 4 {
		t.Errorf("agent.max_steps not read from file: %d", cfg.Agent.MaxSteps)
	}
}

func TestLoadConfigRejectsMissingKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SERPER_API_KEY", "")
	t.Setenv("BRAVE_API_KEY", "")

	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer os.Chdir(wd)

	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected validation failure without API keys")
	}
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"search":{"provider":"duckduckgo"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected rejection of unknown search provider")
	}
}
