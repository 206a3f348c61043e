package database

import (
	"github.com/xpanvictor/convoinfer/internal/repository/conversation"
	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&conversation.PromptItemEntity{},
		&conversation.TurnEntity{},
	)
}
