package adapters

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/tracer"
)

// Pipeline runs translate, invoke and aggregate for one conversation item.
// It holds no per-item state, so one Pipeline may serve many items at once.
type Pipeline struct {
	invoker   *Invoker
	publisher TurnPublisher
	cfg       types.GenerationConfig
	model     types.ModelInfo
	logger    *Logger.Logger
	now       func() time.Time
}

func NewPipeline(
	invoker *Invoker,
	publisher TurnPublisher,
	cfg types.GenerationConfig,
	model types.ModelInfo,
	logger *Logger.Logger,
) *Pipeline {
	return &Pipeline{
		invoker:   invoker,
		publisher: publisher,
		cfg:       cfg,
		model:     model,
		logger:    logger,
		now:       time.Now,
	}
}

// Process implements ContractAdapter.
func (p *Pipeline) Process(ctx context.Context, input ContractInput) ContractResponse {
	genID := uuid.New()
	resp := ContractResponse{ID: genID, ItemID: input.ItemID, StartedAt: time.Now()}

	ctx, span := tracer.StartSpan(ctx, "pipeline.process_item")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("item", input.ItemID.String()),
		tracer.StringAttr("invocation", genID.String()),
	)

	msgs, err := ConvertMsgs(input.History)
	if err != nil {
		tracer.RecordError(span, err)
		resp.Error = err
		return resp
	}

	agg := NewAggregator(AggregatorOpts{
		ItemID:       input.ItemID,
		InvocationID: genID,
		Model:        p.model,
		Interval:     p.cfg.DebounceInterval,
		Publisher:    p.publisher,
		Logger:       p.logger,
		Now:          p.now,
	})

	if p.cfg.Stream {
		stream, err := p.invoker.GenerateStream(ctx, msgs)
		if err != nil {
			resp.Error = err
		} else {
			resp.Error = agg.Consume(ctx, stream)
		}
	} else {
		text, err := p.invoker.Generate(ctx, msgs)
		if err != nil {
			resp.Error = err
		} else {
			resp.Error = agg.Complete(ctx, text)
		}
	}

	if resp.Error != nil {
		tracer.RecordError(span, resp.Error)
		return resp
	}
	tracer.SetOK(span)
	resp.Done = true
	return resp
}
