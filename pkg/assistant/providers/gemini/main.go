package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	gad "github.com/xpanvictor/convoinfer/pkg/assistant/adapters/gemini"
	"google.golang.org/genai"
)

// GeminiProvider serves any Gemini model through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

func New(ctx context.Context, cfg config.GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is not configured", types.ErrConfiguration)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	return &GeminiProvider{client: client}, nil
}

func (gp *GeminiProvider) Name() string {
	return config.ProviderGemini
}

func (gp *GeminiProvider) Generate(ctx context.Context, req adapters.ContractRequest) (string, error) {
	resp, err := gp.client.Models.GenerateContent(ctx, req.Model, gad.ConvertMsgs(req.Msgs), gad.ConvertParams(req.Params))
	if err != nil {
		return "", err
	}
	return gad.ConvertMsgBackward(resp).Text, nil
}

// GenerateStream opens a streaming call. The first chunk is pulled eagerly so
// that connection and request errors surface here rather than mid-stream.
func (gp *GeminiProvider) GenerateStream(ctx context.Context, req adapters.ContractRequest) (adapters.FragmentStream, error) {
	seq := gp.client.Models.GenerateContentStream(ctx, req.Model, gad.ConvertMsgs(req.Msgs), gad.ConvertParams(req.Params))
	stream := newGeminiStream(seq)
	if err := stream.prime(); err != nil {
		stream.Close()
		return nil, err
	}
	return stream, nil
}

type geminiStream struct {
	next    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	pending *genai.GenerateContentResponse
	done    bool
}

func newGeminiStream(seq iter.Seq2[*genai.GenerateContentResponse, error]) *geminiStream {
	next, stop := iter.Pull2(seq)
	return &geminiStream{next: next, stop: stop}
}

func (s *geminiStream) prime() error {
	resp, err, ok := s.next()
	if !ok {
		s.done = true
		return nil
	}
	if err != nil {
		return err
	}
	s.pending = resp
	return nil
}

func (s *geminiStream) Next(ctx context.Context) (adapters.ContractFragment, error) {
	if s.pending != nil {
		resp := s.pending
		s.pending = nil
		return gad.ConvertMsgBackward(resp), nil
	}
	if s.done {
		return adapters.ContractFragment{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return adapters.ContractFragment{}, err
	}

	resp, err, ok := s.next()
	if !ok {
		s.done = true
		return adapters.ContractFragment{}, io.EOF
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return adapters.ContractFragment{}, ctxErr
		}
		return adapters.ContractFragment{}, fmt.Errorf("failed to receive from Gemini stream: %w", err)
	}
	return gad.ConvertMsgBackward(resp), nil
}

func (s *geminiStream) Close() error {
	s.done = true
	s.stop()
	return nil
}
