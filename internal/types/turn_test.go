package types

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseRole(t *testing.T) {
	assert.Equal(t, USER, CollapseRole("user"))
	assert.Equal(t, MODEL, CollapseRole("assistant"))
	assert.Equal(t, MODEL, CollapseRole("system"))
	assert.Equal(t, MODEL, CollapseRole(""))
}

func TestApplyPublishedUpsertsByInvocation(t *testing.T) {
	item := NewPromptItem(uuid.New(), ConversationHistory{{Role: USER, Parts: []Part{TextPart("q")}}})
	invocation := uuid.New()
	at := time.Now()

	item.ApplyPublished(PublishedTurn{ID: uuid.New(), ItemID: item.ID, InvocationID: invocation, Text: "par", CreatedAt: at})
	item.ApplyPublished(PublishedTurn{ID: uuid.New(), ItemID: item.ID, InvocationID: invocation, Text: "partial answer", Final: true, CreatedAt: at.Add(time.Second)})

	require.Len(t, item.Turns, 2)
	got := item.Turns[1]
	assert.Equal(t, MODEL, got.Role)
	assert.Equal(t, "partial answer", got.Text())
	assert.True(t, got.Final)
	assert.Equal(t, at, got.CreatedAt)
	assert.Equal(t, at.Add(time.Second), got.UpdatedAt)

	item.ApplyPublished(PublishedTurn{ID: uuid.New(), ItemID: item.ID, InvocationID: uuid.New(), Text: "again", CreatedAt: at})
	assert.Len(t, item.Turns, 3)
}

func TestHistoryAndClone(t *testing.T) {
	item := NewPromptItem(uuid.New(), ConversationHistory{{Role: USER, Parts: []Part{TextPart("a")}}})
	item.ApplyPublished(PublishedTurn{InvocationID: uuid.New(), Text: "b", Model: ModelInfo{Name: "m"}})

	clone := item.Clone()
	clone.Turns[0].Parts[0].Text = "changed"
	clone.Turns[1].Model.Name = "other"

	history := item.History()
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].Text())
	assert.Equal(t, "b", history[1].Text())
	assert.Equal(t, "m", item.Turns[1].Model.Name)
}
