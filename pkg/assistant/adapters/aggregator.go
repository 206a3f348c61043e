package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/tracer"
)

// Aggregator states.
const (
	StateIdle         = "idle"
	StateAccumulating = "accumulating"
	StatePublished    = "published"
)

const (
	evBegin  = "begin"
	evFinish = "finish"
)

type AggregatorOpts struct {
	ItemID       uuid.UUID
	InvocationID uuid.UUID
	Model        types.ModelInfo
	Interval     time.Duration
	Publisher    TurnPublisher
	Logger       *Logger.Logger
	Now          func() time.Time // defaults to time.Now
}

// Aggregator folds one invocation's output into publications of a single
// generated turn. It is owned by one item and must not be shared.
type Aggregator struct {
	opts        AggregatorOpts
	turnID      uuid.UUID
	state       *fsm.FSM
	accumulated string
	publishes   int
}

func NewAggregator(opts AggregatorOpts) *Aggregator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = Logger.NewNop()
	}
	a := &Aggregator{opts: opts, turnID: uuid.New()}
	a.state = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: evBegin, Src: []string{StateIdle}, Dst: StateAccumulating},
			{Name: evFinish, Src: []string{StateIdle, StateAccumulating}, Dst: StatePublished},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				opts.Logger.Debugw("aggregator transition",
					"item", opts.ItemID, "invocation", opts.InvocationID, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return a
}

func (a *Aggregator) State() string { return a.state.Current() }

// Text is the text accumulated so far.
func (a *Aggregator) Text() string { return a.accumulated }

// Publishes counts the store writes actually issued.
func (a *Aggregator) Publishes() int { return a.publishes }

// Complete handles a single-shot result: one publication, or none when the
// text is empty.
func (a *Aggregator) Complete(ctx context.Context, text string) error {
	a.accumulated = text
	if err := a.publish(ctx, text, true); err != nil {
		return err
	}
	return a.transition(ctx, evFinish)
}

// Consume drains the stream in arrival order. Intermediate publications carry
// the full accumulated text and are issued only once the debounce interval
// has elapsed since the previous one. A final publication always follows
// exhaustion. Cancellation is treated as exhaustion; other stream errors end
// consumption without the final flush.
func (a *Aggregator) Consume(ctx context.Context, stream FragmentStream) error {
	defer stream.Close()
	if err := a.transition(ctx, evBegin); err != nil {
		return err
	}

	lastPublish := a.opts.Now()
	var cancelled error
	for {
		frag, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				cancelled = err
				break
			}
			return err
		}
		if frag.Text == "" {
			continue
		}
		a.accumulated += frag.Text

		now := a.opts.Now()
		if now.Sub(lastPublish) >= a.opts.Interval {
			if err := a.publish(ctx, a.accumulated, false); err != nil {
				return err
			}
			lastPublish = now
		}
	}

	flushCtx := ctx
	if cancelled != nil {
		flushCtx = context.WithoutCancel(ctx)
	}
	if err := a.publish(flushCtx, a.accumulated, true); err != nil {
		return err
	}
	if err := a.transition(flushCtx, evFinish); err != nil {
		return err
	}
	return cancelled
}

func (a *Aggregator) publish(ctx context.Context, text string, final bool) error {
	if text == "" {
		a.opts.Logger.Warnw("attempted to publish an empty response, skipping",
			"item", a.opts.ItemID, "invocation", a.opts.InvocationID, "final", final)
		return nil
	}

	ctx, span := tracer.StartSpan(ctx, "aggregator.publish")
	defer span.End()
	span.SetAttributes(tracer.BoolAttr("final", final), tracer.IntAttr("length", len(text)))

	turn := types.PublishedTurn{
		ID:           a.turnID,
		ItemID:       a.opts.ItemID,
		InvocationID: a.opts.InvocationID,
		Text:         text,
		Confidence:   types.PublishedConfidence,
		Model:        a.opts.Model,
		Final:        final,
		CreatedAt:    time.Now(),
	}
	if err := a.opts.Publisher.AppendTurn(ctx, turn); err != nil {
		tracer.RecordError(span, err)
		return fmt.Errorf("%w: %w", types.ErrPublish, err)
	}
	a.publishes++
	a.opts.Logger.Debugw("published response",
		"item", a.opts.ItemID, "invocation", a.opts.InvocationID, "final", final, "length", len(text))
	return nil
}

func (a *Aggregator) transition(ctx context.Context, event string) error {
	// the machine is driven synchronously; a cancelled caller must not abort it
	if err := a.state.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("aggregator %s in state %s: %w", event, a.state.Current(), err)
	}
	return nil
}
