package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
)

// MemoryItemRepo keeps items in process memory. Items are copied on the way
// in and out, so callers never share state with the store.
type MemoryItemRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*types.PromptItem
}

func NewMemoryItemRepo() *MemoryItemRepo {
	return &MemoryItemRepo{items: make(map[uuid.UUID]*types.PromptItem)}
}

// SaveItem implements conversation.ConversationRepository.
func (m *MemoryItemRepo) SaveItem(_ context.Context, item types.PromptItem) (*types.PromptItem, error) {
	stored := item.Clone()
	m.mu.Lock()
	if prev, ok := m.items[item.ID]; ok && !prev.CreatedAt.IsZero() {
		stored.CreatedAt = prev.CreatedAt
	}
	m.items[item.ID] = &stored
	m.mu.Unlock()

	out := stored.Clone()
	return &out, nil
}

// AppendMessages implements conversation.ConversationRepository.
func (m *MemoryItemRepo) AppendMessages(_ context.Context, itemID uuid.UUID, history types.ConversationHistory) (*types.PromptItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, itemID)
	}
	item.AppendHistory(history, time.Now())
	out := item.Clone()
	return &out, nil
}

// FetchItem implements conversation.ConversationRepository.
func (m *MemoryItemRepo) FetchItem(_ context.Context, itemID uuid.UUID) (*types.PromptItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrItemNotFound, itemID)
	}
	out := item.Clone()
	return &out, nil
}

// AppendTurn implements conversation.ConversationRepository.
func (m *MemoryItemRepo) AppendTurn(_ context.Context, turn types.PublishedTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[turn.ItemID]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrItemNotFound, turn.ItemID)
	}
	item.ApplyPublished(turn)
	return nil
}
