package app

import (
	"context"
	"fmt"

	"github.com/vk/blocklift/internal/cms"
	"github.com/vk/blocklift/internal/cms/rest"
	"github.com/vk/blocklift/internal/config"
	"github.com/vk/blocklift/internal/convert"
	"github.com/vk/blocklift/internal/ctxlog"
)

// restAPI is the production API factory.
func restAPI(job *config.Model) (cms.API, func() error, error) {
	client := rest.New(job.API.BaseURL, job.API.Token)
	return client, client.Close, nil
}

// Run executes the configured conversion end to end.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	api, closeAPI, err := a.newAPI(a.job)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}
	defer func() {
		if cerr := closeAPI(); cerr != nil {
			a.logger.Warn("Failed to close API client.", "error", cerr)
		}
	}()

	blockID := a.job.Conversion.BlockID
	if blockID == "" {
		blockID, err = resolveBlockID(ctx, api, a.job.Conversion.BlockAPIKey)
		if err != nil {
			return err
		}
	}

	result := convert.New(api).Run(ctx, convert.Options{
		BlockID:             blockID,
		FullyReplace:        a.job.Conversion.FullyReplace,
		PublishAfterChanges: a.job.Conversion.PublishAfterChanges,
		Progress: func(step, total int, description string, percent float64) {
			fmt.Fprintf(a.outW, "[%d/%d] %s (%.0f%%)\n", step, total, description, percent)
		},
	})

	if !result.Success {
		if result.Error == cms.ErrNoUsage.Error() {
			fmt.Fprintf(a.outW, "Block %q is not referenced by any field; nothing to convert.\n", result.OriginalAPIKey)
			return nil
		}
		return fmt.Errorf("conversion of %q failed: %s", result.OriginalAPIKey, result.Error)
	}

	fmt.Fprintf(a.outW, "Converted block %q into model %q (%d record(s) migrated, %d field(s) converted).\n",
		result.OriginalAPIKey, result.NewModelAPIKey, result.MigratedRecords, result.ConvertedFields)
	if result.Warning != "" {
		fmt.Fprintf(a.outW, "Warning: %s\n", result.Warning)
	}
	return nil
}

// resolveBlockID maps a block api_key onto its item type id.
func resolveBlockID(ctx context.Context, api cms.API, apiKey string) (string, error) {
	itemTypes, err := api.ItemTypes(ctx)
	if err != nil {
		return "", fmt.Errorf("listing item types: %w", err)
	}
	for _, it := range itemTypes {
		if it.APIKey != apiKey {
			continue
		}
		if !it.IsBlock {
			return "", fmt.Errorf("item type %q is a top-level model, not a block", apiKey)
		}
		return it.ID, nil
	}
	return "", fmt.Errorf("no block with api_key %q", apiKey)
}
