// Package cache 提供统一的键值缓存接口，以及内存（LRU）、文件和 Redis 三种实现。
package cache

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrClosed 在缓存被关闭后调用时返回。
var ErrClosed = errors.New("cache is closed")

// Cache 是所有缓存实现的公共接口。值以字节形式存储，序列化由调用方负责。
type Cache interface {
	// Get 返回未过期的条目。
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set 写入条目，ttl 为 0 时使用缓存自身的默认 TTL。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Has(ctx context.Context, key string) (bool, error)
	Evict(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// StaleReader 由能在条目过期后继续返回旧值的缓存实现。
type StaleReader interface {
	GetStale(ctx context.Context, key string) ([]byte, bool, error)
}

// New 根据配置创建缓存。redis 后端需要传入已建立的客户端。
func New(cfg config.CacheConfig, rdb *redis.Client) (Cache, error) {
	ttl := config.Duration(cfg.TTL, 24*time.Hour)
	switch cfg.Backend {
	case "", "memory":
		capacity := cfg.Capacity
		if capacity <= 0 {
			capacity = 1024
		}
		return NewMemoryCache(capacity, ttl)
	case "file":
		return NewFileCache(cfg.Dir, ttl)
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis cache backend requires a redis client")
		}
		return NewRedisCache(rdb, cfg.Prefix, ttl), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
