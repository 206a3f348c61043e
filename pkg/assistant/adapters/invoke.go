package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/tracer"
)

// Invoker issues requests against a Backend with the adapter's fixed
// generation settings. It never retries.
type Invoker struct {
	backend Backend
	model   string
	cfg     types.GenerationConfig
}

func NewInvoker(backend Backend, model string, cfg types.GenerationConfig) *Invoker {
	return &Invoker{backend: backend, model: model, cfg: cfg}
}

// Params builds the request parameters; the thinking budget is only sent on
// streaming calls.
func (i *Invoker) Params(stream bool) ContractParams {
	p := ContractParams{
		Temperature:       i.cfg.Temperature,
		TopP:              i.cfg.TopP,
		Seed:              i.cfg.Seed,
		MaxOutputTokens:   i.cfg.MaxOutputTokens,
		SystemInstruction: i.cfg.SystemPrompt,
	}
	if stream {
		budget := i.cfg.ThinkingBudget
		p.ThinkingBudget = &budget
	}
	return p
}

func (i *Invoker) request(msgs []ContractMessage, stream bool) ContractRequest {
	return ContractRequest{Model: i.model, Msgs: msgs, Params: i.Params(stream)}
}

func (i *Invoker) Generate(ctx context.Context, msgs []ContractMessage) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "backend.invoke")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("backend", i.backend.Name()), tracer.BoolAttr("stream", false))

	text, err := i.backend.Generate(ctx, i.request(msgs, false))
	if err != nil {
		tracer.RecordError(span, err)
		return "", fmt.Errorf("%w: %s: %w", types.ErrInvocation, i.backend.Name(), err)
	}
	return text, nil
}

func (i *Invoker) GenerateStream(ctx context.Context, msgs []ContractMessage) (FragmentStream, error) {
	ctx, span := tracer.StartSpan(ctx, "backend.invoke")
	defer span.End()
	span.SetAttributes(tracer.StringAttr("backend", i.backend.Name()), tracer.BoolAttr("stream", true))

	stream, err := i.backend.GenerateStream(ctx, i.request(msgs, true))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("%w: %s: %w", types.ErrInvocation, i.backend.Name(), err)
	}
	return &invocationStream{inner: stream, backend: i.backend.Name()}, nil
}

// invocationStream tags mid-stream backend failures as invocation errors.
// Cancellation of the caller's context passes through untouched.
type invocationStream struct {
	inner   FragmentStream
	backend string
}

func (s *invocationStream) Next(ctx context.Context) (ContractFragment, error) {
	frag, err := s.inner.Next(ctx)
	if err == nil || errors.Is(err, io.EOF) {
		return frag, err
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return frag, err
	}
	return frag, fmt.Errorf("%w: %s stream: %w", types.ErrInvocation, s.backend, err)
}

func (s *invocationStream) Close() error {
	return s.inner.Close()
}
