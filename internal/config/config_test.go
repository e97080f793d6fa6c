package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.ChunkWindow != 900 || cfg.ChunkOverlap != 150 {
		t.Fatalf("chunk defaults = %d/%d", cfg.ChunkWindow, cfg.ChunkOverlap)
	}
	if cfg.RAGTopK != 5 {
		t.Fatalf("RAGTopK = %d", cfg.RAGTopK)
	}
	if cfg.IndexBackend != "memory" {
		t.Fatalf("IndexBackend = %q", cfg.IndexBackend)
	}
	if cfg.RAGRetrievalMode != "semantic" {
		t.Fatalf("RAGRetrievalMode = %q", cfg.RAGRetrievalMode)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("API_PORT", "9191")
	t.Setenv("CHUNK_WINDOW", "500")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9191" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.ChunkWindow != 500 || cfg.ChunkOverlap != 100 {
		t.Fatalf("chunk config = %d/%d", cfg.ChunkWindow, cfg.ChunkOverlap)
	}
	if cfg.IndexBackend != "qdrant" {
		t.Fatalf("IndexBackend = %q", cfg.IndexBackend)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("RateLimitRPS = %v", cfg.RateLimitRPS)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CHUNK_WINDOW", "not-a-number")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ChunkWindow != 900 {
		t.Fatalf("ChunkWindow = %d, want default", cfg.ChunkWindow)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("CacheTTL = %v, want default", cfg.CacheTTL)
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	t.Setenv("INDEX_BACKEND", "pinecone")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown index backend")
	}
}

func TestLoadRejectsOverlapNotBelowWindow(t *testing.T) {
	t.Setenv("CHUNK_WINDOW", "100")
	t.Setenv("CHUNK_OVERLAP", "100")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for overlap >= window")
	}
}

func TestConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_port: \"7070\"\nchunk_window: 600\nrag_top_k: 7\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	// Environment wins over the file.
	t.Setenv("RAG_TOP_K", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("APIPort = %q, want file value", cfg.APIPort)
	}
	if cfg.ChunkWindow != 600 {
		t.Fatalf("ChunkWindow = %d, want file value", cfg.ChunkWindow)
	}
	if cfg.RAGTopK != 3 {
		t.Fatalf("RAGTopK = %d, env must win over file", cfg.RAGTopK)
	}
}

func TestConfigFileUnreadable(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
