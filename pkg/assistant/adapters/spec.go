package adapters

import (
	"context"

	"github.com/xpanvictor/convoinfer/internal/types"
)

// FragmentStream is a finite, single-consumer sequence of fragments.
// Next returns io.EOF once exhausted and keeps returning it afterwards.
type FragmentStream interface {
	Next(ctx context.Context) (ContractFragment, error)
	Close() error
}

// Backend is the generative-text service. The two call shapes are distinct
// operations; callers pick one from the generation config.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req ContractRequest) (string, error)
	GenerateStream(ctx context.Context, req ContractRequest) (FragmentStream, error)
}

// TurnPublisher writes a generated turn to the conversation store.
type TurnPublisher interface {
	AppendTurn(ctx context.Context, turn types.PublishedTurn) error
}

type ContractAdapter interface {
	Process(ctx context.Context, input ContractInput) ContractResponse
}
