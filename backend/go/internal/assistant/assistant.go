// Package assistant 把配置装配成可用的客户端：传输层、编排器、缓存、归档、事件发布
// 以及三个业务客户端。网关和命令行工具共用这一套装配逻辑。
package assistant

import (
	"MultiAI_Assistant/backend/go/internal/archive"
	"MultiAI_Assistant/backend/go/internal/career"
	"MultiAI_Assistant/backend/go/internal/chat"
	"MultiAI_Assistant/backend/go/internal/config"
	"MultiAI_Assistant/backend/go/internal/database/kafka"
	"MultiAI_Assistant/backend/go/internal/database/minio"
	"MultiAI_Assistant/backend/go/internal/database/redis"
	"MultiAI_Assistant/backend/go/internal/events"
	"MultiAI_Assistant/backend/go/internal/fallback"
	"MultiAI_Assistant/backend/go/internal/gateway/api"
	"MultiAI_Assistant/backend/go/internal/pdfqa"
	"MultiAI_Assistant/backend/go/pkg/cache"
	httpclient "MultiAI_Assistant/backend/go/pkg/http"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// Clients 是装配好的业务客户端。
type Clients struct {
	PDF    *pdfqa.Client
	Chat   *chat.Client
	Career *career.Client
	Checks []api.HealthCheck

	closers []func() error
}

// Build 根据配置创建所有客户端。启用的基础设施连接失败时返回错误。
func Build(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*Clients, error) {
	out := &Clients{}

	transport, err := httpclient.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	orchOpts := []orchestrator.Option{orchestrator.WithLogger(log)}

	var rdb *goredis.Client
	if cfg.Cache.Backend == "redis" {
		rdb, err = redis.Open(ctx, &cfg.Databases.Redis, log)
		if err != nil {
			return nil, err
		}
		out.closers = append(out.closers, rdb.Close)
		out.Checks = append(out.Checks, api.HealthCheck{Name: "redis", Check: redis.HealthCheck(rdb)})
	}
	store, err := cache.New(cfg.Cache, rdb)
	if err != nil {
		out.Close()
		return nil, err
	}
	ttl := config.Duration(cfg.Cache.TTL, 24*time.Hour)

	var docArchive archive.Archive = archive.Nop{}
	if cfg.Databases.MinIO.Enabled {
		mc, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			out.Close()
			return nil, err
		}
		ma, err := archive.NewMinioArchive(ctx, mc, cfg.Databases.MinIO.Bucket)
		if err != nil {
			out.Close()
			return nil, err
		}
		docArchive = ma
		out.Checks = append(out.Checks, api.HealthCheck{Name: "minio", Check: minio.HealthCheck})
	}

	if cfg.Databases.Kafka.Enabled {
		kc, err := kafka.GetClient(&cfg.Databases.Kafka)
		if err != nil {
			out.Close()
			return nil, err
		}
		orchOpts = append(orchOpts, orchestrator.WithObserver(events.NewKafkaPublisher(kc.Writer, log)))
		out.closers = append(out.closers, kc.Close)
		out.Checks = append(out.Checks, api.HealthCheck{Name: "kafka", Check: kc.HealthCheck})
	}

	orch := orchestrator.New(transport, orchOpts...)

	var sim chat.Simulator
	if cfg.Chat.SimulateOnFailure {
		sim = fallback.Default()
	}

	out.PDF = pdfqa.New(orch, cfg.Backend,
		pdfqa.WithSessionStore(pdfqa.NewSessionStore(store, ttl)),
		pdfqa.WithArchive(docArchive),
		pdfqa.WithLogger(log))
	out.Chat = chat.New(orch, cfg.Backend, sim, log)
	out.Career = career.New(orch, cfg.Backend, store, ttl, log)
	return out, nil
}

// Close 释放基础设施连接，按创建的逆序关闭。
func (c *Clients) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("closing clients: %w", errors.Join(errs...))
	}
	return nil
}
