package app

import (
	"context"
	"fmt"

	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	gmp "github.com/xpanvictor/convoinfer/pkg/assistant/providers/gemini"
	"github.com/xpanvictor/convoinfer/pkg/assistant/providers/guard"
	olp "github.com/xpanvictor/convoinfer/pkg/assistant/providers/ollama"
	oap "github.com/xpanvictor/convoinfer/pkg/assistant/providers/openai"
)

// BackendFactory builds the configured backend and the generation settings
// the adapter runs with.
type BackendFactory struct {
	config *config.Settings
	logger *Logger.Logger
}

func NewBackendFactory(cfg *config.Settings, logger *Logger.Logger) *BackendFactory {
	return &BackendFactory{config: cfg, logger: logger}
}

// CreateBackend returns the provider named by model.provider, wrapped by the
// guard when one is configured.
func (f *BackendFactory) CreateBackend(ctx context.Context) (adapters.Backend, error) {
	var (
		backend adapters.Backend
		err     error
	)
	switch f.config.Model.Provider {
	case config.ProviderGemini:
		backend, err = gmp.New(ctx, f.config.Gemini)
	case config.ProviderOpenAI:
		backend, err = oap.New(f.config.OpenAI)
	case config.ProviderOllama:
		backend, err = olp.New(f.config.Ollama, f.logger.Named("ollama"))
	default:
		err = fmt.Errorf("%w: unknown model provider %q", types.ErrConfiguration, f.config.Model.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s backend: %w", f.config.Model.Provider, err)
	}

	f.logger.Infow("backend created", "provider", backend.Name(), "model", f.config.Model.Name)
	return guard.Wrap(backend, f.config.Guard, f.logger.Named("guard")), nil
}

// ResolveModel returns the published model metadata and generation settings.
// With model.resolve_info on a Gemini backend the catalog supplies the
// display name and caps max_output_tokens at the model's limit. Catalog
// failures are logged and the configured values kept.
func (f *BackendFactory) ResolveModel(ctx context.Context) (types.ModelInfo, types.GenerationConfig) {
	info := f.config.ModelInfo()
	gen := f.config.GenerationConfig()
	if !f.config.Model.ResolveInfo || f.config.Model.Provider != config.ProviderGemini {
		return info, gen
	}

	catalog, err := gmp.NewCatalog(ctx, f.config.Gemini)
	if err != nil {
		f.logger.Warnw("model catalog unavailable", "error", err)
		return info, gen
	}
	defer catalog.Close()

	desc, err := catalog.Describe(ctx, info)
	if err != nil {
		f.logger.Warnw("model description failed", "model", info.Name, "error", err)
		return info, gen
	}
	clamped := gmp.ClampTokens(gen.MaxOutputTokens, desc.OutputTokenLimit)
	if clamped != gen.MaxOutputTokens {
		f.logger.Infow("max_output_tokens capped by model limit",
			"requested", gen.MaxOutputTokens, "limit", desc.OutputTokenLimit)
		gen.MaxOutputTokens = clamped
	}
	return desc.Model, gen
}
