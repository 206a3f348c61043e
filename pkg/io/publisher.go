package io

import (
	"context"

	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
)

// Publisher fans published turns out to the endpoints watching their item.
type Publisher struct {
	reg    registry.Registry
	logger *Logger.Logger
}

func New(reg registry.Registry, logger *Logger.Logger) *Publisher {
	return &Publisher{reg: reg, logger: logger}
}

func (p *Publisher) Registry() registry.Registry {
	return p.reg
}

// SendTurn delivers turn to every watcher of its item. Endpoints that fail
// the write are detached and closed. Having no watchers is not an error.
func (p *Publisher) SendTurn(ctx context.Context, turn types.PublishedTurn) int {
	delivered := 0
	for _, ep := range p.reg.ListItemEndpoints(turn.ItemID) {
		if ctx.Err() != nil {
			break
		}
		if err := ep.SendTurn(turn); err != nil {
			p.logger.Warnw("dropping watcher after failed send",
				"item", turn.ItemID, "endpoint", ep.ID().String(), "error", err)
			if detached, ok := p.reg.DetachEndpoint(turn.ItemID, ep.ID()); ok {
				_ = detached.Close()
			}
			continue
		}
		delivered++
	}
	return delivered
}
