package app

import (
	"errors"
	"log/slog"
)

// Config holds everything an App instance needs to run.
type Config struct {
	JobPath string // hcl job file

	// CLI overrides of the job file's conversion block.
	BlockOverride       string
	FullReplaceOverride *bool
	PublishOverride     *bool

	LogFormat string // "text" or "json"
	LogLevel  slog.Level
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.JobPath == "" {
		return nil, errors.New("JobPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
