package database

import (
	"fmt"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/convoinfer/internal/config"
)

// NewRedis returns nil without error when no address is configured; the
// store then runs without its item cache.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Pass,
		DB:       0,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
