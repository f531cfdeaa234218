// Package hcljob is the HCL implementation of the config.Loader interface.
// Job files may reference process environment variables through the env
// object, e.g. `token = env.CMS_API_TOKEN`.
package hcljob

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/blocklift/internal/config"
	"github.com/vk/blocklift/internal/ctxlog"
)

// Loader parses HCL job files.
type Loader struct{}

// NewLoader creates a new HCL job loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes the top-level blocks of a job file.
type fileRoot struct {
	API        *apiBlock        `hcl:"api,block"`
	Conversion *conversionBlock `hcl:"conversion,block"`
	Remain     hcl.Body         `hcl:",remain"`
}

type apiBlock struct {
	BaseURL string `hcl:"base_url"`
	Token   string `hcl:"token"`
}

type conversionBlock struct {
	BlockID             *string `hcl:"block_id,optional"`
	BlockAPIKey         *string `hcl:"block_api_key,optional"`
	FullyReplace        *bool   `hcl:"fully_replace,optional"`
	PublishAfterChanges *bool   `hcl:"publish_after_changes,optional"`
}

// Load parses the job file and translates it into the format-agnostic model.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL job loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", path, diags)
	}

	model := &config.Model{}
	if root.API != nil {
		model.API = config.APIConfig{BaseURL: root.API.BaseURL, Token: root.API.Token}
	}
	if root.Conversion != nil {
		model.Conversion = config.ConversionConfig{
			BlockID:             deref(root.Conversion.BlockID),
			BlockAPIKey:         deref(root.Conversion.BlockAPIKey),
			FullyReplace:        derefBool(root.Conversion.FullyReplace),
			PublishAfterChanges: derefBool(root.Conversion.PublishAfterChanges),
		}
	}

	logger.Debug("HCL job loaded.", "block_id", model.Conversion.BlockID, "block_api_key", model.Conversion.BlockAPIKey)
	return model, nil
}

// evalContext exposes the process environment as the cty object `env`.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
