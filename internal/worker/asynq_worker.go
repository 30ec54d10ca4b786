package worker

import (
	"context"

	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/provider"
	"github.com/lingqian-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponCatalogRefresh, c.handleCouponCatalogRefresh)
}

// handleCouponCatalogRefresh 领取成功后重建可领取目录快照
func (c *Consumer) handleCouponCatalogRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || c.CouponCatalog == nil {
		logger.Debugw("worker_coupon_catalog_refresh_skip_nil")
		return nil
	}
	payload, err := queue.ParseCouponCatalogRefreshPayload(task)
	if err != nil {
		// 载荷只用于日志，解析失败不影响刷新
		logger.Warnw("worker_coupon_catalog_refresh_unmarshal_failed", "error", err)
	}
	if err := c.CouponCatalog.Refresh(ctx); err != nil {
		logger.Warnw("worker_coupon_catalog_refresh_failed", "coupon_id", payload.CouponID, "error", err)
		return err
	}
	logger.Debugw("worker_coupon_catalog_refreshed", "coupon_id", payload.CouponID)
	return nil
}
