// Package config holds the format-agnostic job configuration model and the
// Loader contract format-specific loaders implement.
package config

import (
	"context"
	"errors"
)

// Model is the unified representation of one conversion job.
type Model struct {
	API        APIConfig
	Conversion ConversionConfig
}

// APIConfig locates and authenticates the management API.
type APIConfig struct {
	BaseURL string
	Token   string
}

// ConversionConfig selects the target block and the conversion policy.
// Exactly one of BlockID/BlockAPIKey must be set.
type ConversionConfig struct {
	BlockID             string
	BlockAPIKey         string
	FullyReplace        bool
	PublishAfterChanges bool
}

// Loader is the interface for a format-specific job file loader.
type Loader interface {
	// Load reads a job file and translates it into the model.
	Load(ctx context.Context, path string) (*Model, error)
}

// Validate checks the model for the invariants the engine relies on.
func (m *Model) Validate() error {
	if m.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if m.API.Token == "" {
		return errors.New("api.token is required")
	}
	if m.Conversion.BlockID == "" && m.Conversion.BlockAPIKey == "" {
		return errors.New("conversion requires block_id or block_api_key")
	}
	if m.Conversion.BlockID != "" && m.Conversion.BlockAPIKey != "" {
		return errors.New("conversion accepts only one of block_id and block_api_key")
	}
	return nil
}
