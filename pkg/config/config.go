// Package config loads the optional demograph configuration file and resolves
// the Perplexity API credential.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// EnvAPIKey is the environment variable consulted for the Perplexity credential.
const EnvAPIKey = "PERPLEXITY_API_KEY"

// Config is the on-disk configuration file shape.
type Config struct {
	PerplexityAPIKey string `yaml:"perplexity_api_key"`
}

// Load reads a YAML config file. With an empty path the default locations are
// tried in order: ./demograph.yaml, then $XDG_CONFIG_HOME/demograph/config.yaml.
// A missing file yields an empty Config, not an error.
func Load(path string) (*Config, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{
			"demograph.yaml",
			filepath.Join(xdg.ConfigHome, "demograph", "config.yaml"),
		}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", candidate, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", candidate, err)
		}
		return &cfg, nil
	}

	return &Config{}, nil
}

// ResolveAPIKey evaluates the credential lookup chain in precedence order:
// explicit flag value, then the environment, then the config file. The first
// non-empty value wins; an empty string means no credential is available.
func ResolveAPIKey(flagValue, configPath string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	strategies := []struct {
		lookup func() string
		source string
	}{
		{source: "flag", lookup: func() string { return flagValue }},
		{source: "environment", lookup: func() string { return os.Getenv(EnvAPIKey) }},
		{source: "config file", lookup: func() string {
			cfg, err := Load(configPath)
			if err != nil {
				logger.Warn("failed to load config file", "error", err)
				return ""
			}
			return cfg.PerplexityAPIKey
		}},
	}

	for _, s := range strategies {
		if key := s.lookup(); key != "" {
			logger.Debug("resolved API key", "source", s.source)
			return key
		}
	}
	return ""
}
