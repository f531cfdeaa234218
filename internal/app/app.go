// Package app is the composition root: it wires the logger, the job
// configuration, the API client and the conversion orchestrator together.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/config"
	"github.com/vk/blocklift/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	job    *config.Model

	// newAPI builds the API client for the loaded job. Tests swap it for
	// an in-memory implementation.
	newAPI func(job *config.Model) (cms.API, func() error, error)
}

// NewApp is the constructor for the main application. It loads and
// validates the job file and returns a fully initialized App instance with
// its own isolated logger.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	job, err := loader.Load(ctx, appConfig.JobPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load job configuration: %w", err)
	}
	applyOverrides(job, appConfig)
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("invalid job configuration: %w", err)
	}
	logger.Debug("Job configuration loaded.",
		"block_id", job.Conversion.BlockID,
		"block_api_key", job.Conversion.BlockAPIKey,
		"fully_replace", job.Conversion.FullyReplace)

	return &App{
		outW:   outW,
		logger: logger,
		job:    job,
		newAPI: restAPI,
	}, nil
}

// applyOverrides folds explicit CLI flags into the job model.
func applyOverrides(job *config.Model, appConfig *Config) {
	if appConfig.BlockOverride != "" {
		job.Conversion.BlockAPIKey = appConfig.BlockOverride
		job.Conversion.BlockID = ""
	}
	if appConfig.FullReplaceOverride != nil {
		job.Conversion.FullyReplace = *appConfig.FullReplaceOverride
	}
	if appConfig.PublishOverride != nil {
		job.Conversion.PublishAfterChanges = *appConfig.PublishOverride
	}
}
