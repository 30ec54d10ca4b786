package worker

import (
	"context"
	"errors"
	"time"

	"github.com/lingqian-next/internal/config"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/queue"

	"github.com/hibiken/asynq"
)

const minCatalogWarmInterval = 5 * time.Second

// Service 异步队列服务
type Service struct {
	name         string
	server       *asynq.Server
	mux          *asynq.ServeMux
	consumer     *Consumer
	warmInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:         "worker",
		server:       server,
		mux:          mux,
		consumer:     consumer,
		warmInterval: catalogWarmInterval(cfg.Coupon.CatalogCacheTTL()),
	}, nil
}

// catalogWarmInterval 在快照过期前预热，缓存关闭时返回 0
func catalogWarmInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	interval := ttl / 2
	if interval < minCatalogWarmInterval {
		interval = minCatalogWarmInterval
	}
	return interval
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务并阻塞到 ctx 结束，信号由上层统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.warmInterval > 0 && s.consumer != nil && s.consumer.CouponCatalog != nil {
		go s.runCatalogWarmLoop(ctx)
	}
	<-ctx.Done()
	return nil
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runCatalogWarmLoop(ctx context.Context) {
	runOnce := func() {
		if err := s.consumer.CouponCatalog.Refresh(ctx); err != nil {
			logger.Warnw("worker_coupon_catalog_warm_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.warmInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
