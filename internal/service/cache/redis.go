package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/constants"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/internal/domain"
	"github.com/yuan-yh/cport-credit-union-translator-sub000/pkg/errors"
)

// HotLayer sits in front of the Store for exact-hash hits.
type HotLayer interface {
	GetEntry(ctx context.Context, hash string) (*domain.CacheEntry, error)
	SetEntry(ctx context.Context, entry *domain.CacheEntry) error
	Delete(ctx context.Context, hash string) error
}

// RedisHotCache keeps recently used entries in Redis as JSON with a TTL.
type RedisHotCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewRedisHotCache(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisHotCache, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, constants.RedisConfig.ReadyTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", addr),
		zap.Int("db", cfg.DB),
	)

	return &RedisHotCache{
		client: client,
		prefix: constants.CacheConfig.HotKeyPrefix,
		ttl:    constants.CacheConfig.HotTTL,
		logger: logger,
	}, nil
}

func (c *RedisHotCache) key(hash string) string {
	return c.prefix + hash
}

// GetEntry returns nil, nil on a miss.
func (c *RedisHotCache) GetEntry(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	key := c.key(hash)
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("Hot cache get failed", zap.String("key", key), zap.Error(err))
		return nil, errors.NewCacheError("get failed", "get", key, err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return nil, errors.NewCacheError("unmarshal failed", "get", key, err)
	}
	return &entry, nil
}

func (c *RedisHotCache) SetEntry(ctx context.Context, entry *domain.CacheEntry) error {
	key := c.key(entry.Hash)
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Hot cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}
	return nil
}

func (c *RedisHotCache) Delete(ctx context.Context, hash string) error {
	key := c.key(hash)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("Hot cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func (c *RedisHotCache) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *RedisHotCache) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}
