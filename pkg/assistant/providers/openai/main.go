package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	oad "github.com/xpanvictor/convoinfer/pkg/assistant/adapters/openai"
)

// OpenAIProvider talks to the chat completions API, or to any server that
// speaks it when a base URL is configured.
type OpenAIProvider struct {
	client openai.Client
}

func New(cfg config.OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is not configured", types.ErrConfiguration)
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...)}, nil
}

func (o *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

func (o *OpenAIProvider) params(req adapters.ContractRequest) openai.ChatCompletionNewParams {
	msgs := oad.ConvertMsgs(req.Msgs, req.Params.SystemInstruction)
	return oad.ConvertParams(req.Model, msgs, req.Params)
}

func (o *OpenAIProvider) Generate(ctx context.Context, req adapters.ContractRequest) (string, error) {
	res, err := o.client.Chat.Completions.New(ctx, o.params(req))
	if err != nil {
		return "", err
	}
	return oad.ConvertMsgBackward(res), nil
}

func (o *OpenAIProvider) GenerateStream(ctx context.Context, req adapters.ContractRequest) (adapters.FragmentStream, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, o.params(req))
	// request errors are reported on the stream before any event
	if err := stream.Err(); err != nil {
		stream.Close()
		return nil, err
	}
	return &openaiStream{stream: stream}, nil
}

type openaiStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openaiStream) Next(ctx context.Context) (adapters.ContractFragment, error) {
	if err := ctx.Err(); err != nil {
		return adapters.ContractFragment{}, err
	}
	if s.stream.Next() {
		return oad.ConvertChunk(s.stream.Current()), nil
	}
	if err := s.stream.Err(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return adapters.ContractFragment{}, ctxErr
		}
		return adapters.ContractFragment{}, fmt.Errorf("failed to receive from OpenAI stream: %w", err)
	}
	return adapters.ContractFragment{}, io.EOF
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}
