package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errStaleRead = errors.New("item changed since read")

// GormItemRepo keeps items in MySQL. Redis, when present, holds a read
// cache of whole items. Every write bumps the item's version key and evicts;
// a reader only fills the cache if the version it saw before loading the
// item is still current.
type GormItemRepo struct {
	db      *gorm.DB
	rc      *redis.Client
	itemTTL time.Duration
	logger  *Logger.Logger
}

func NewGormItemRepo(db *gorm.DB, rc *redis.Client, itemTTL time.Duration, logger *Logger.Logger) *GormItemRepo {
	return &GormItemRepo{db: db, rc: rc, itemTTL: itemTTL, logger: logger}
}

func notFound(itemID uuid.UUID) error {
	return fmt.Errorf("%w: %s", types.ErrItemNotFound, itemID)
}

func storeError(reason string, itemID uuid.UUID, err error) error {
	if errors.Is(err, types.ErrItemNotFound) {
		return notFound(itemID)
	}
	return utils.XError{Reason: reason, Meta: err}.ToError()
}

// SaveItem implements conversation.ConversationRepository.
func (g *GormItemRepo) SaveItem(ctx context.Context, item types.PromptItem) (*types.PromptItem, error) {
	var ie PromptItemEntity
	if err := ie.FromDomain(item); err != nil {
		return nil, err
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", item.ID).Delete(&TurnEntity{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Omit("Turns").Save(&ie).Error; err != nil {
			return err
		}
		if len(ie.Turns) > 0 {
			return tx.Create(&ie.Turns).Error
		}
		return nil
	})
	if err != nil {
		return nil, storeError("saving prompt item", item.ID, err)
	}

	g.invalidate(item.ID)
	out := item.Clone()
	return &out, nil
}

// AppendMessages implements conversation.ConversationRepository.
func (g *GormItemRepo) AppendMessages(ctx context.Context, itemID uuid.UUID, history types.ConversationHistory) (*types.PromptItem, error) {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ie, err := lockItem(tx, itemID)
		if err != nil {
			return err
		}
		next, err := nextPosition(tx, itemID)
		if err != nil {
			return err
		}

		now := time.Now()
		turns := make([]TurnEntity, 0, len(history))
		for i, t := range history {
			var te TurnEntity
			it := types.ItemTurn{ID: uuid.New(), ConversationTurn: t, CreatedAt: now, UpdatedAt: now}
			if err := te.FromDomain(itemID, next+i, it); err != nil {
				return err
			}
			turns = append(turns, te)
		}
		if len(turns) > 0 {
			if err := tx.Create(&turns).Error; err != nil {
				return err
			}
		}
		return tx.Model(ie).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, storeError("appending messages", itemID, err)
	}

	g.invalidate(itemID)
	return g.FetchItem(ctx, itemID)
}

// FetchItem implements conversation.ConversationRepository.
func (g *GormItemRepo) FetchItem(ctx context.Context, itemID uuid.UUID) (*types.PromptItem, error) {
	if item, ok := g.cached(itemID); ok {
		return item, nil
	}
	version, versioned := g.version(itemID)

	var ie PromptItemEntity
	err := g.db.WithContext(ctx).
		Preload("Turns", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&ie, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(itemID)
		}
		return nil, storeError("fetching prompt item", itemID, err)
	}

	item, err := ie.ToDomain()
	if err != nil {
		return nil, err
	}
	if versioned {
		g.cache(item, version)
	}
	return item, nil
}

// AppendTurn implements conversation.ConversationRepository.
func (g *GormItemRepo) AppendTurn(ctx context.Context, pt types.PublishedTurn) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockItem(tx, pt.ItemID); err != nil {
			return err
		}

		var existing TurnEntity
		res := tx.Where("item_id = ? AND invocation_id = ?", pt.ItemID, pt.InvocationID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			var te TurnEntity
			te.FromPublished(existing.Position, pt)
			return tx.Model(&existing).Updates(map[string]interface{}{
				"parts":              te.Parts,
				"model_name":         te.ModelName,
				"model_id":           te.ModelID,
				"model_display_name": te.ModelDisplayName,
				"confidence":         te.Confidence,
				"final":              te.Final,
			}).Error
		}

		next, err := nextPosition(tx, pt.ItemID)
		if err != nil {
			return err
		}
		var te TurnEntity
		te.FromPublished(next, pt)
		return tx.Create(&te).Error
	})
	if err != nil {
		return storeError("storing generated turn", pt.ItemID, err)
	}

	g.invalidate(pt.ItemID)
	return nil
}

// lockItem holds the item row for the rest of tx so writers to one item
// take turns.
func lockItem(tx *gorm.DB, itemID uuid.UUID) (*PromptItemEntity, error) {
	var ie PromptItemEntity
	res := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", itemID).Limit(1).Find(&ie)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, types.ErrItemNotFound
	}
	return &ie, nil
}

func nextPosition(tx *gorm.DB, itemID uuid.UUID) (int, error) {
	var last int64
	err := tx.Model(&TurnEntity{}).Where("item_id = ?", itemID).
		Select("COALESCE(MAX(position), -1)").Scan(&last).Error
	return int(last) + 1, err
}

func (g *GormItemRepo) cached(itemID uuid.UUID) (*types.PromptItem, bool) {
	if g.rc == nil {
		return nil, false
	}
	raw, err := g.rc.Get(ItemKey(itemID)).Result()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warnw("item cache read failed", "item", itemID, "error", err)
		}
		return nil, false
	}
	var item types.PromptItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		g.logger.Warnw("dropping corrupt cached item", "item", itemID, "error", err)
		g.evict(itemID)
		return nil, false
	}
	return &item, true
}

// version reports the item's current cache version. A missing key is
// version zero.
func (g *GormItemRepo) version(itemID uuid.UUID) (int64, bool) {
	if g.rc == nil {
		return 0, false
	}
	v, err := g.rc.Get(VersionKey(itemID)).Int64()
	if err != nil && err != redis.Nil {
		g.logger.Warnw("item version read failed", "item", itemID, "error", err)
		return 0, false
	}
	return v, true
}

// cache stores item only if no write happened since version was read.
func (g *GormItemRepo) cache(item *types.PromptItem, version int64) {
	data, err := json.Marshal(item)
	if err != nil {
		return
	}
	vk := VersionKey(item.ID)
	err = g.rc.Watch(func(tx *redis.Tx) error {
		current, err := tx.Get(vk).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return errStaleRead
		}
		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(ItemKey(item.ID), data, g.itemTTL)
			return nil
		})
		return err
	}, vk)
	switch {
	case err == nil:
	case errors.Is(err, errStaleRead), err == redis.TxFailedErr:
		g.logger.Debugw("skipping cache fill of changed item", "item", item.ID)
	default:
		g.logger.Warnw("item cache write failed", "item", item.ID,
			"error", utils.XError{Reason: "caching prompt item", Meta: err}.ToError())
	}
}

// invalidate bumps the item version and drops the cached copy in one
// transaction.
func (g *GormItemRepo) invalidate(itemID uuid.UUID) {
	if g.rc == nil {
		return
	}
	vk := VersionKey(itemID)
	_, err := g.rc.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Incr(vk)
		if g.itemTTL > 0 {
			pipe.Expire(vk, 2*g.itemTTL)
		}
		pipe.Del(ItemKey(itemID))
		return nil
	})
	if err != nil {
		g.logger.Warnw("item cache invalidation failed", "item", itemID, "error", err)
	}
}

func (g *GormItemRepo) evict(itemID uuid.UUID) {
	if err := g.rc.Del(ItemKey(itemID)).Err(); err != nil {
		g.logger.Warnw("item cache eviction failed", "item", itemID, "error", err)
	}
}
