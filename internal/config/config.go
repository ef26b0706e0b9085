// Package config loads service configuration from an optional TOML file with
// PLCDIAG_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the full service configuration.
type Config struct {
	Server Server `toml:"server"`
	LLM    LLM    `toml:"llm"`
	Log    Log    `toml:"log"`
}

// Server configures the HTTP boundary.
type Server struct {
	Addr string `toml:"addr"`
	// UnitName is the POU extracted as diagnostic context. The original
	// pipeline hard-wires program0; keep that default unless overridden.
	UnitName string `toml:"unit_name"`
}

// LLM configures the diagnostic provider.
type LLM struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	// TimeoutSeconds bounds each provider call issued by the server.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Log configures logging output.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file and no overrides are
// present. The google provider mirrors the original service's Gemini default.
func Default() Config {
	return Config{
		Server: Server{
			Addr:     ":8080",
			UnitName: "program0",
		},
		LLM: LLM{
			Provider:       "google",
			Model:          "gemini-2.5-flash-lite",
			MaxTokens:      2048,
			Temperature:    0.2,
			TimeoutSeconds: 30,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path (if
// path is non-empty), then environment overrides. A missing file at an
// explicitly given path is an error; an empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.LLM.TimeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("config: llm.timeout_seconds must be positive, got %d", cfg.LLM.TimeoutSeconds)
	}
	if cfg.LLM.MaxTokens <= 0 {
		return Config{}, fmt.Errorf("config: llm.max_tokens must be positive, got %d", cfg.LLM.MaxTokens)
	}
	return cfg, nil
}

// Timeout returns the provider call timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// applyEnv overlays PLCDIAG_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PLCDIAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PLCDIAG_UNIT_NAME"); v != "" {
		cfg.Server.UnitName = v
	}
	if v := os.Getenv("PLCDIAG_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("PLCDIAG_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PLCDIAG_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = n
		}
	}
	if v := os.Getenv("PLCDIAG_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("PLCDIAG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
