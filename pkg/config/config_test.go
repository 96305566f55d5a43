package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("unexpected default port: %s", cfg.Port)
	}
	if cfg.AIProvider != "ollama" {
		t.Errorf("unexpected default AI provider: %s", cfg.AIProvider)
	}
	if cfg.EmbeddingDimension != 1024 {
		t.Errorf("unexpected default embedding dimension: %d", cfg.EmbeddingDimension)
	}
	if cfg.SyncWorkers != 4 || cfg.IndexWorkers != 4 {
		t.Errorf("unexpected default worker counts: %d/%d", cfg.SyncWorkers, cfg.IndexWorkers)
	}
	if !cfg.MCPEnabled || cfg.MCPPort != "3002" {
		t.Errorf("unexpected MCP defaults: %v/%s", cfg.MCPEnabled, cfg.MCPPort)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("EMBEDDING_DIMENSION", "1536")
	t.Setenv("SYNC_WORKERS", "8")
	t.Setenv("MCP_ENABLED", "false")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("PORT override ignored: %s", cfg.Port)
	}
	if cfg.AIProvider != "openai" {
		t.Errorf("AI_PROVIDER override ignored: %s", cfg.AIProvider)
	}
	if cfg.EmbeddingDimension != 1536 {
		t.Errorf("EMBEDDING_DIMENSION override ignored: %d", cfg.EmbeddingDimension)
	}
	if cfg.SyncWorkers != 8 {
		t.Errorf("SYNC_WORKERS override ignored: %d", cfg.SyncWorkers)
	}
	if cfg.MCPEnabled {
		t.Error("MCP_ENABLED override ignored")
	}
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSION", "not-a-number")
	t.Setenv("MCP_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.EmbeddingDimension != 1024 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.EmbeddingDimension)
	}
	if !cfg.MCPEnabled {
		t.Error("invalid bool should fall back to default")
	}
}
