package ollama

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	oad "github.com/xpanvictor/convoinfer/pkg/assistant/adapters/ollama"
)

// OllamaProvider spreads requests over a farm of ollama servers and always
// picks the first one online.
type OllamaProvider struct {
	farm *ollamafarm.Farm
}

func New(cfg config.OllamaConfig, logger *Logger.Logger) (*OllamaProvider, error) {
	farm := ollamafarm.New()

	registered := 0
	for _, host := range cfg.Hosts {
		if err := farm.RegisterURL(host, nil); err != nil {
			logger.Warnw("failed to register ollama host", "host", host, "error", err)
			continue
		}
		registered++
	}
	if registered == 0 {
		return nil, fmt.Errorf("%w: no usable ollama hosts", types.ErrConfiguration)
	}

	return &OllamaProvider{farm: farm}, nil
}

func (o *OllamaProvider) Name() string {
	return config.ProviderOllama
}

func (o *OllamaProvider) chat(req adapters.ContractRequest, stream bool) (chatFunc, error) {
	node := o.farm.First(&ollamafarm.Where{Offline: false})
	if node == nil {
		return nil, fmt.Errorf("no ollama server online for model %v", req.Model)
	}
	chatReq := api.ChatRequest{
		Model:    req.Model,
		Messages: oad.ConvertMsgs(req.Msgs, req.Params.SystemInstruction),
		Stream:   &stream,
		Options:  oad.ConvertOptions(req.Params),
	}
	client := node.Client()
	return func(ctx context.Context, fn api.ChatResponseFunc) error {
		return client.Chat(ctx, &chatReq, fn)
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, req adapters.ContractRequest) (string, error) {
	chat, err := o.chat(req, false)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	err = chat(ctx, func(cr api.ChatResponse) error {
		sb.WriteString(oad.ConvertMsgBackward(cr).Text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (o *OllamaProvider) GenerateStream(ctx context.Context, req adapters.ContractRequest) (adapters.FragmentStream, error) {
	chat, err := o.chat(req, true)
	if err != nil {
		return nil, err
	}
	return newOllamaStream(ctx, chat), nil
}

type chatFunc func(ctx context.Context, fn api.ChatResponseFunc) error

// ollamaStream turns the callback API into a pull stream. The chat call runs
// on its own goroutine and hands chunks over an unbuffered channel.
type ollamaStream struct {
	chunks chan adapters.ContractFragment
	errc   chan error
	cancel context.CancelFunc
	err    error
}

func newOllamaStream(ctx context.Context, chat chatFunc) *ollamaStream {
	sctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		chunks: make(chan adapters.ContractFragment),
		errc:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		defer close(s.chunks)
		err := chat(sctx, func(cr api.ChatResponse) error {
			select {
			case s.chunks <- oad.ConvertMsgBackward(cr):
				return nil
			case <-sctx.Done():
				return sctx.Err()
			}
		})
		if err != nil {
			s.errc <- err
		}
	}()
	return s
}

func (s *ollamaStream) Next(ctx context.Context) (adapters.ContractFragment, error) {
	if s.err != nil {
		return adapters.ContractFragment{}, s.err
	}
	select {
	case frag, ok := <-s.chunks:
		if ok {
			return frag, nil
		}
		select {
		case err := <-s.errc:
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.err = err
		default:
			s.err = io.EOF
		}
		return adapters.ContractFragment{}, s.err
	case <-ctx.Done():
		return adapters.ContractFragment{}, ctx.Err()
	}
}

func (s *ollamaStream) Close() error {
	s.cancel()
	return nil
}
