package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, key string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("perplexity_api_key: "+key+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExplicitPath(t *testing.T) {
	path := writeConfig(t, "pplx-file-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PerplexityAPIKey != "pplx-file-key" {
		t.Errorf("PerplexityAPIKey = %q, want pplx-file-key", cfg.PerplexityAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load of missing file should not error, got %v", err)
	}
	if cfg.PerplexityAPIKey != "" {
		t.Errorf("missing file should yield an empty Config, got %+v", cfg)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("perplexity_api_key: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestResolveAPIKeyPrecedence(t *testing.T) {
	path := writeConfig(t, "pplx-file-key")

	t.Run("flag wins over everything", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "pplx-env-key")
		if got := ResolveAPIKey("pplx-flag-key", path, nil); got != "pplx-flag-key" {
			t.Errorf("ResolveAPIKey = %q, want flag value", got)
		}
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "pplx-env-key")
		if got := ResolveAPIKey("", path, nil); got != "pplx-env-key" {
			t.Errorf("ResolveAPIKey = %q, want env value", got)
		}
	})

	t.Run("file is the last resort", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		if got := ResolveAPIKey("", path, nil); got != "pplx-file-key" {
			t.Errorf("ResolveAPIKey = %q, want file value", got)
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		if got := ResolveAPIKey("", filepath.Join(t.TempDir(), "nope.yaml"), nil); got != "" {
			t.Errorf("ResolveAPIKey = %q, want empty", got)
		}
	})
}
