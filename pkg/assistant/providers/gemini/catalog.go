package gemini

import (
	"context"
	"fmt"
	"strings"

	legacy "github.com/google/generative-ai-go/genai"
	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/types"
	"google.golang.org/api/option"
)

// Catalog reads model metadata from the Gemini models endpoint.
type Catalog struct {
	client *legacy.Client
}

type ModelDescription struct {
	Model            types.ModelInfo
	OutputTokenLimit int32
}

func NewCatalog(ctx context.Context, cfg config.GeminiConfig) (*Catalog, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is not configured", types.ErrConfiguration)
	}
	client, err := legacy.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini catalog client: %w", err)
	}
	return &Catalog{client: client}, nil
}

// Describe fills in the display name of model and reports its output token
// limit. The configured id is kept as is.
func (c *Catalog) Describe(ctx context.Context, model types.ModelInfo) (ModelDescription, error) {
	info, err := c.client.GenerativeModel(model.Name).Info(ctx)
	if err != nil {
		return ModelDescription{Model: model}, fmt.Errorf("failed to describe model %s: %w", model.Name, err)
	}
	if info.DisplayName != "" {
		model.DisplayName = info.DisplayName
	}
	if model.ID == "" {
		model.ID = strings.TrimPrefix(info.Name, "models/")
	}
	return ModelDescription{Model: model, OutputTokenLimit: info.OutputTokenLimit}, nil
}

func (c *Catalog) Close() error {
	return c.client.Close()
}

// ClampTokens bounds the requested output tokens by the model's limit. A zero
// limit means unknown.
func ClampTokens(requested, limit int32) int32 {
	if limit > 0 && requested > limit {
		return limit
	}
	return requested
}
