package conversation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	"github.com/xpanvictor/convoinfer/pkg/io/device"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
)

// ItemResult is the outcome of one item in a batch. Err is nil on success and
// otherwise wraps types.ErrItemProcessing.
type ItemResult struct {
	ItemID       uuid.UUID
	InvocationID uuid.UUID
	Err          error
}

func (r ItemResult) OK() bool { return r.Err == nil }

type BatchResult struct {
	Results []ItemResult
}

func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if !r.OK() {
			n++
		}
	}
	return n
}

type ConversationService interface {
	CreateItem(ctx context.Context, req types.CreateItem) (*types.PromptItem, error)
	AppendMessages(ctx context.Context, itemID uuid.UUID, req types.AppendMessages) (*types.PromptItem, error)
	RetrieveItem(ctx context.Context, itemID uuid.UUID) (*types.PromptItem, error)
	// Predict runs one invocation per item. A failing item never stops its
	// siblings; results keep the order of itemIDs.
	Predict(ctx context.Context, itemIDs []uuid.UUID) BatchResult
	// Watch attaches ep to the item's publications until detach is called.
	Watch(ctx context.Context, itemID uuid.UUID, ep device.Endpoint) (detach func(), err error)
}

type conversationService struct {
	adapter     adapters.ContractAdapter
	repository  ConversationRepository
	watchers    registry.Registry
	concurrency int
	logger      *Logger.Logger
}

func New(
	adapter adapters.ContractAdapter,
	repository ConversationRepository,
	watchers registry.Registry,
	concurrency int,
	logger *Logger.Logger,
) ConversationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &conversationService{
		adapter:     adapter,
		repository:  repository,
		watchers:    watchers,
		concurrency: concurrency,
		logger:      logger,
	}
}

// CreateItem implements ConversationService.
func (c *conversationService) CreateItem(ctx context.Context, req types.CreateItem) (*types.PromptItem, error) {
	history, err := types.DecodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	item, err := c.repository.SaveItem(ctx, types.NewPromptItem(id, history))
	if err != nil {
		return nil, fmt.Errorf("couldn't save item: %w", err)
	}
	return item, nil
}

// AppendMessages implements ConversationService.
func (c *conversationService) AppendMessages(ctx context.Context, itemID uuid.UUID, req types.AppendMessages) (*types.PromptItem, error) {
	history, err := types.DecodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	return c.repository.AppendMessages(ctx, itemID, history)
}

// RetrieveItem implements ConversationService.
func (c *conversationService) RetrieveItem(ctx context.Context, itemID uuid.UUID) (*types.PromptItem, error) {
	return c.repository.FetchItem(ctx, itemID)
}

// Predict implements ConversationService.
func (c *conversationService) Predict(ctx context.Context, itemIDs []uuid.UUID) BatchResult {
	results := make([]ItemResult, len(itemIDs))
	p := pool.New().WithMaxGoroutines(c.concurrency)
	for i, id := range itemIDs {
		p.Go(func() {
			results[i] = c.processItem(ctx, id)
		})
	}
	p.Wait()

	batch := BatchResult{Results: results}
	c.logger.Infow("batch processed", "items", len(itemIDs), "failed", batch.Failed())
	return batch
}

func (c *conversationService) processItem(ctx context.Context, itemID uuid.UUID) ItemResult {
	res := ItemResult{ItemID: itemID}
	fail := func(err error) ItemResult {
		res.Err = fmt.Errorf("%w %s: %w", types.ErrItemProcessing, itemID, err)
		c.logger.Errorw("item failed", "item", itemID, "invocation", res.InvocationID, "error", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	item, err := c.repository.FetchItem(ctx, itemID)
	if err != nil {
		return fail(err)
	}

	resp := c.adapter.Process(ctx, adapters.ContractInput{ItemID: itemID, History: item.History()})
	res.InvocationID = resp.ID
	if resp.Error != nil {
		return fail(resp.Error)
	}
	return res
}

// Watch implements ConversationService.
func (c *conversationService) Watch(ctx context.Context, itemID uuid.UUID, ep device.Endpoint) (func(), error) {
	if _, err := c.repository.FetchItem(ctx, itemID); err != nil {
		return nil, err
	}
	if err := c.watchers.AttachEndpoint(itemID, ep); err != nil {
		return nil, err
	}
	return func() {
		c.watchers.DetachEndpoint(itemID, ep.ID())
	}, nil
}
