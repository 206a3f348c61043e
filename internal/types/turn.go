package types

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	USER  Role = "user"
	MODEL Role = "model"
)

// CollapseRole maps any non-user role onto MODEL.
func CollapseRole(raw string) Role {
	if Role(raw) == USER {
		return USER
	}
	return MODEL
}

type PartKind string

const (
	TEXT  PartKind = "text"
	IMAGE PartKind = "image"
)

// Part is one content unit of a turn. Text parts carry Text, image parts carry
// the raw Data and its MIMEType.
type Part struct {
	Kind     PartKind `json:"kind"`
	Text     string   `json:"text,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	MIMEType string   `json:"mime_type,omitempty"`
}

func TextPart(text string) Part {
	return Part{Kind: TEXT, Text: text}
}

func ImagePart(data []byte, mimeType string) Part {
	return Part{Kind: IMAGE, Data: data, MIMEType: mimeType}
}

type ConversationTurn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Text concatenates the text parts of the turn in order.
func (t ConversationTurn) Text() string {
	var out string
	for _, p := range t.Parts {
		if p.Kind == TEXT {
			out += p.Text
		}
	}
	return out
}

// ConversationHistory is chronological.
type ConversationHistory []ConversationTurn

type ModelInfo struct {
	Name        string `json:"name"`
	ID          string `json:"model_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// PublishedConfidence is attached to every generated turn.
const PublishedConfidence = 1.0

// PublishedTurn is one publication of generated text for an invocation.
// Publications sharing an InvocationID describe the same turn; later ones
// carry a longer prefix of the final text.
type PublishedTurn struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	InvocationID uuid.UUID `json:"invocation_id"`
	Text         string    `json:"text"`
	Confidence   float64   `json:"confidence"`
	Model        ModelInfo `json:"model"`
	Final        bool      `json:"final"`
	CreatedAt    time.Time `json:"created_at"`
}

func (pt PublishedTurn) ToConversationTurn() ConversationTurn {
	return ConversationTurn{Role: MODEL, Parts: []Part{TextPart(pt.Text)}}
}

// ItemTurn is a turn as held by the conversation store. Generated turns keep
// the metadata of the invocation that produced them.
type ItemTurn struct {
	ID uuid.UUID `json:"id"`
	ConversationTurn
	InvocationID *uuid.UUID `json:"invocation_id,omitempty"`
	Model        *ModelInfo `json:"model,omitempty"`
	Confidence   float64    `json:"confidence,omitempty"`
	Final        bool       `json:"final,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PromptItem is one conversation item submitted for inference.
type PromptItem struct {
	ID        uuid.UUID  `json:"id"`
	Turns     []ItemTurn `json:"turns"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewPromptItem(id uuid.UUID, history ConversationHistory) PromptItem {
	now := time.Now()
	item := PromptItem{ID: id, CreatedAt: now, UpdatedAt: now}
	item.AppendHistory(history, now)
	return item
}

func (pi *PromptItem) History() ConversationHistory {
	history := make(ConversationHistory, 0, len(pi.Turns))
	for _, t := range pi.Turns {
		history = append(history, t.ConversationTurn)
	}
	return history
}

func (pi *PromptItem) AppendHistory(history ConversationHistory, at time.Time) {
	for _, turn := range history {
		pi.Turns = append(pi.Turns, ItemTurn{
			ID:               uuid.New(),
			ConversationTurn: turn,
			CreatedAt:        at,
			UpdatedAt:        at,
		})
	}
	pi.UpdatedAt = at
}

// ApplyPublished upserts the generated turn of pt.InvocationID: the first
// publication appends a turn, later ones replace its content in place.
func (pi *PromptItem) ApplyPublished(pt PublishedTurn) {
	model := pt.Model
	invocationID := pt.InvocationID
	for i := range pi.Turns {
		t := &pi.Turns[i]
		if t.InvocationID != nil && *t.InvocationID == pt.InvocationID {
			t.ConversationTurn = pt.ToConversationTurn()
			t.Model = &model
			t.Confidence = pt.Confidence
			t.Final = pt.Final
			t.UpdatedAt = pt.CreatedAt
			pi.UpdatedAt = pt.CreatedAt
			return
		}
	}
	pi.Turns = append(pi.Turns, ItemTurn{
		ID:               pt.ID,
		ConversationTurn: pt.ToConversationTurn(),
		InvocationID:     &invocationID,
		Model:            &model,
		Confidence:       pt.Confidence,
		Final:            pt.Final,
		CreatedAt:        pt.CreatedAt,
		UpdatedAt:        pt.CreatedAt,
	})
	pi.UpdatedAt = pt.CreatedAt
}

// Clone returns a copy that shares no slices with pi.
func (pi PromptItem) Clone() PromptItem {
	out := pi
	out.Turns = make([]ItemTurn, len(pi.Turns))
	for i, t := range pi.Turns {
		t.Parts = append([]Part(nil), t.Parts...)
		if t.InvocationID != nil {
			id := *t.InvocationID
			t.InvocationID = &id
		}
		if t.Model != nil {
			m := *t.Model
			t.Model = &m
		}
		out.Turns[i] = t
	}
	return out
}

// GenerationConfig is fixed for the lifetime of an adapter.
type GenerationConfig struct {
	Temperature      float32
	TopP             float32
	MaxOutputTokens  int32
	Seed             *int32
	SystemPrompt     string // empty means none
	ThinkingBudget   int32
	Stream           bool
	DebounceInterval time.Duration
}
