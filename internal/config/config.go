// Package config provides configuration management for memotheme.
// Settings load from environment variables with the MEMOTHEME_ prefix and
// every option has a sensible default, so a bare environment gives a fully
// working single-user setup on SQLite.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Dr-Min/memotheme/internal/analyzer"
)

// Config holds all configuration settings for the memotheme application.
type Config struct {
	Storage  StorageConfig
	Analyzer AnalyzerConfig
	Import   ImportConfig
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Learning-table backend: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresDSN   string // DSN for the postgres learning backend
}

// AnalyzerConfig contains relevance engine tuning. The thresholds are the
// product knobs called out by the engine design; defaults are the canonical
// conservative values.
type AnalyzerConfig struct {
	SelectThreshold   float64 // Minimum score for auto-attachment (default: 0.25)
	FallbackThreshold float64 // Floor for the single-top-theme fallback (default: 0.15)

	WeightKeywordMatch     float64 // default: 0.35
	WeightUserPattern      float64 // default: 0.25
	WeightFrequencyBoost   float64 // default: 0.15
	WeightContextRelevance float64 // default: 0.15
	WeightHierarchyBonus   float64 // default: 0.10
}

// ImportConfig contains inbox watcher configuration.
type ImportConfig struct {
	InboxPath   string  // Directory watched for dropped memo files (default: ./inbox)
	RatePerSec  float64 // Max files imported per second (default: 2)
	RemoveFiles bool    // Delete files after successful import (default: true)
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("MEMOTHEME_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("MEMOTHEME_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("MEMOTHEME_POSTGRES_DSN", ""),
		},
		Analyzer: AnalyzerConfig{
			SelectThreshold:   getEnvFloat("MEMOTHEME_SELECT_THRESHOLD", 0.25),
			FallbackThreshold: getEnvFloat("MEMOTHEME_FALLBACK_THRESHOLD", 0.15),

			WeightKeywordMatch:     getEnvFloat("MEMOTHEME_WEIGHT_KEYWORD", 0.35),
			WeightUserPattern:      getEnvFloat("MEMOTHEME_WEIGHT_PATTERN", 0.25),
			WeightFrequencyBoost:   getEnvFloat("MEMOTHEME_WEIGHT_FREQUENCY", 0.15),
			WeightContextRelevance: getEnvFloat("MEMOTHEME_WEIGHT_CONTEXT", 0.15),
			WeightHierarchyBonus:   getEnvFloat("MEMOTHEME_WEIGHT_HIERARCHY", 0.10),
		},
		Import: ImportConfig{
			InboxPath:   getEnv("MEMOTHEME_INBOX_PATH", "./inbox"),
			RatePerSec:  getEnvFloat("MEMOTHEME_IMPORT_RATE", 2),
			RemoveFiles: getEnvBool("MEMOTHEME_IMPORT_REMOVE", true),
		},
	}

	if cfg.Storage.StorageEngine == "postgres" && cfg.Storage.PostgresDSN == "" {
		return nil, fmt.Errorf("config: MEMOTHEME_POSTGRES_DSN is required when MEMOTHEME_STORAGE_ENGINE=postgres")
	}

	return cfg, nil
}

// AnalyzerConfig converts the env-level settings into the engine's Config.
func (c *Config) AnalyzerEngineConfig() analyzer.Config {
	return analyzer.Config{
		SelectThreshold:   c.Analyzer.SelectThreshold,
		FallbackThreshold: c.Analyzer.FallbackThreshold,
		Weights: analyzer.Weights{
			KeywordMatch:     c.Analyzer.WeightKeywordMatch,
			UserPattern:      c.Analyzer.WeightUserPattern,
			FrequencyBoost:   c.Analyzer.WeightFrequencyBoost,
			ContextRelevance: c.Analyzer.WeightContextRelevance,
			HierarchyBonus:   c.Analyzer.WeightHierarchyBonus,
		},
	}
}

// SQLitePath returns the SQLite database path under the data directory.
func (c *Config) SQLitePath() string {
	return c.Storage.DataPath + "/memotheme.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
