// Package redis 负责创建 Redis 连接。每次 Open 都会新建客户端，连接失败后调用方可以直接重试，
// 不会留下一个初始化失败的全局实例。
package redis

import (
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// dialTimeout 限制启动时 Ping 的等待时间。
const dialTimeout = 5 * time.Second

// ErrNoClient 表示没有可用的 Redis 客户端。
var ErrNoClient = errors.New("redis 客户端未初始化")

// Open 创建客户端并用 Ping 确认连通。失败时客户端会被关闭。
func Open(ctx context.Context, cfg *config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("redis 地址未配置")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis %s: %w", cfg.Address, err)
	}

	if log != nil {
		log.WithFields(map[string]interface{}{"address": cfg.Address, "db": cfg.DB}).Info("connected to redis")
	}
	return rdb, nil
}

// HealthCheck 返回针对 rdb 的健康检查，供 /healthz 使用。
func HealthCheck(rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return ErrNoClient
		}
		return rdb.Ping(ctx).Err()
	}
}
