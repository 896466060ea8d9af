// Package config reads service settings from the environment, loading a
// .env file first when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds settings shared by the service and its commands.
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	GeminiAPIKey       string
	GeminiModel        string
	ExtractConcurrency int

	GCSBucket string

	BQProjectID string
	BQDataset   string

	NotionToken        string
	NotionPaymentsDBID string

	JobWorkers int
	JobBuffer  int
}

// Load reads the configuration. Variables already set in the environment
// win over values from the .env files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("Load: read %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:               env("PORT", "8080"),
		LogLevel:           env("LOG_LEVEL", "info"),
		LogFormat:          env("LOG_FORMAT", "console"),
		GeminiAPIKey:       env("GEMINI_API_KEY", ""),
		GeminiModel:        env("GEMINI_MODEL", "gemini-2.5-flash"),
		GCSBucket:          env("GCS_BUCKET", ""),
		BQProjectID:        env("BQ_PROJECT_ID", ""),
		BQDataset:          env("BQ_DATASET", "finance"),
		NotionToken:        env("NOTION_TOKEN", ""),
		NotionPaymentsDBID: env("NOTION_PAYMENTS_DB_ID", ""),
	}

	var err error
	if cfg.ExtractConcurrency, err = envInt("EXTRACT_CONCURRENCY", 3); err != nil {
		return nil, err
	}
	if cfg.JobWorkers, err = envInt("JOB_WORKERS", 5); err != nil {
		return nil, err
	}
	if cfg.JobBuffer, err = envInt("JOB_BUFFER", 100); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExtractionEnabled reports whether a model API key is configured.
func (c *Config) ExtractionEnabled() bool {
	return c.GeminiAPIKey != ""
}

// BigQueryEnabled reports whether the BigQuery journal is configured.
func (c *Config) BigQueryEnabled() bool {
	return c.BQProjectID != "" && c.BQDataset != ""
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := env(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("Load: %s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
