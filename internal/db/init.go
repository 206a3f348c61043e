package db

import (
	"fmt"
	"time"

	"github.com/xpanvictor/convoinfer/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg config.DBConfig, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// configure db
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	sqlDB.SetMaxIdleConns(min(10, poolSize))
	sqlDB.SetMaxOpenConns(poolSize)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
