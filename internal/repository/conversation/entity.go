package conversation

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
	"gorm.io/gorm"
)

type PromptItemEntity struct {
	ID        uuid.UUID      `gorm:"primaryKey;type:char(36);not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime(3)"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime(3)"`
	DeletedAt gorm.DeletedAt `gorm:"index"` // For soft delete

	Turns []TurnEntity `gorm:"foreignKey:ItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (PromptItemEntity) TableName() string { return "prompt_items" }

// TurnEntity is one turn of an item. Generated turns carry the invocation
// that produced them; (item_id, invocation_id) is unique.
type TurnEntity struct {
	ID           uuid.UUID  `gorm:"primaryKey;type:char(36);not null"`
	ItemID       uuid.UUID  `gorm:"column:item_id;type:char(36);not null;uniqueIndex:idx_item_invocation;uniqueIndex:idx_item_position"`
	Position     int        `gorm:"column:position;not null;uniqueIndex:idx_item_position"`
	Role         string     `gorm:"type:varchar(10);not null"`
	Parts        string     `gorm:"type:longtext"` // JSON encoded []types.Part
	InvocationID *uuid.UUID `gorm:"column:invocation_id;type:char(36);uniqueIndex:idx_item_invocation"`

	ModelName        string  `gorm:"column:model_name;type:varchar(128)"`
	ModelID          string  `gorm:"column:model_id;type:varchar(128)"`
	ModelDisplayName string  `gorm:"column:model_display_name;type:varchar(255)"`
	Confidence       float64 `gorm:"column:confidence"`
	Final            bool    `gorm:"column:final"`

	CreatedAt time.Time `gorm:"autoCreateTime(3)"`
	UpdatedAt time.Time `gorm:"autoUpdateTime(3)"`
}

func (TurnEntity) TableName() string { return "prompt_turns" }

func (ie *PromptItemEntity) FromDomain(item types.PromptItem) error {
	ie.ID = item.ID
	ie.CreatedAt = item.CreatedAt
	ie.UpdatedAt = item.UpdatedAt
	ie.Turns = make([]TurnEntity, 0, len(item.Turns))
	for i, t := range item.Turns {
		var te TurnEntity
		if err := te.FromDomain(item.ID, i, t); err != nil {
			return err
		}
		ie.Turns = append(ie.Turns, te)
	}
	return nil
}

func (ie *PromptItemEntity) ToDomain() (*types.PromptItem, error) {
	item := &types.PromptItem{
		ID:        ie.ID,
		CreatedAt: ie.CreatedAt,
		UpdatedAt: ie.UpdatedAt,
		Turns:     make([]types.ItemTurn, 0, len(ie.Turns)),
	}
	for _, te := range ie.Turns {
		t, err := te.ToDomain()
		if err != nil {
			return nil, err
		}
		item.Turns = append(item.Turns, t)
	}
	return item, nil
}

func (te *TurnEntity) FromDomain(itemID uuid.UUID, position int, t types.ItemTurn) error {
	parts, err := json.Marshal(t.Parts)
	if err != nil {
		return fmt.Errorf("can't marshal turn parts: %w", err)
	}
	te.ID = t.ID
	te.ItemID = itemID
	te.Position = position
	te.Role = string(t.Role)
	te.Parts = string(parts)
	te.InvocationID = t.InvocationID
	te.Confidence = t.Confidence
	te.Final = t.Final
	te.CreatedAt = t.CreatedAt
	te.UpdatedAt = t.UpdatedAt
	if t.Model != nil {
		te.ModelName = t.Model.Name
		te.ModelID = t.Model.ID
		te.ModelDisplayName = t.Model.DisplayName
	}
	return nil
}

func (te *TurnEntity) FromPublished(position int, pt types.PublishedTurn) {
	invocationID := pt.InvocationID
	parts, _ := json.Marshal(pt.ToConversationTurn().Parts) // text parts always marshal
	te.ID = pt.ID
	te.ItemID = pt.ItemID
	te.Position = position
	te.Role = string(types.MODEL)
	te.Parts = string(parts)
	te.InvocationID = &invocationID
	te.ModelName = pt.Model.Name
	te.ModelID = pt.Model.ID
	te.ModelDisplayName = pt.Model.DisplayName
	te.Confidence = pt.Confidence
	te.Final = pt.Final
	te.CreatedAt = pt.CreatedAt
	te.UpdatedAt = pt.CreatedAt
}

func (te *TurnEntity) ToDomain() (types.ItemTurn, error) {
	var parts []types.Part
	if te.Parts != "" {
		if err := json.Unmarshal([]byte(te.Parts), &parts); err != nil {
			return types.ItemTurn{}, fmt.Errorf("can't unmarshal parts of turn %s: %w", te.ID, err)
		}
	}
	t := types.ItemTurn{
		ID:               te.ID,
		ConversationTurn: types.ConversationTurn{Role: types.Role(te.Role), Parts: parts},
		InvocationID:     te.InvocationID,
		Confidence:       te.Confidence,
		Final:            te.Final,
		CreatedAt:        te.CreatedAt,
		UpdatedAt:        te.UpdatedAt,
	}
	if te.InvocationID != nil {
		t.Model = &types.ModelInfo{Name: te.ModelName, ID: te.ModelID, DisplayName: te.ModelDisplayName}
	}
	return t, nil
}

func ItemKey(itemID uuid.UUID) string {
	return fmt.Sprintf("item:%s", itemID.String())
}

func VersionKey(itemID uuid.UUID) string {
	return fmt.Sprintf("item:%s:version", itemID.String())
}
