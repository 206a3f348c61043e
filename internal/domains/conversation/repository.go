package conversation

import (
	"context"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
)

// ConversationRepository is the conversation store. Every method is safe for
// concurrent use across distinct items.
type ConversationRepository interface {
	// SaveItem creates the item or replaces its turns wholesale.
	SaveItem(ctx context.Context, item types.PromptItem) (*types.PromptItem, error)
	AppendMessages(ctx context.Context, itemID uuid.UUID, history types.ConversationHistory) (*types.PromptItem, error)
	FetchItem(ctx context.Context, itemID uuid.UUID) (*types.PromptItem, error)
	// AppendTurn upserts the generated turn keyed by (ItemID, InvocationID).
	AppendTurn(ctx context.Context, turn types.PublishedTurn) error
}
