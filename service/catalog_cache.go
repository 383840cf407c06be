package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kevinaaaquil/shelfmates/models"
	"github.com/redis/go-redis/v9"
)

// RedisCatalogCache keeps catalog results in Redis for a fixed TTL.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCatalogCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCatalogCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCatalogCache{client: rdb, ttl: ttl, logger: slog.Default()}, nil
}

func catalogKey(key string) string {
	return "catalog:" + key
}

func (c *RedisCatalogCache) Get(ctx context.Context, key string) ([]models.CatalogBook, bool) {
	raw, err := c.client.Get(ctx, catalogKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("catalog_cache_get_failed", "key", key, "error", err)
		return nil, false
	}
	var books []models.CatalogBook
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, false
	}
	return books, true
}

func (c *RedisCatalogCache) Set(ctx context.Context, key string, books []models.CatalogBook) {
	raw, err := json.Marshal(books)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, catalogKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog_cache_set_failed", "key", key, "error", err)
	}
}

func (c *RedisCatalogCache) Close() error {
	return c.client.Close()
}
