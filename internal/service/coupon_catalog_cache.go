package service

import (
	"context"
	"time"

	"github.com/lingqian-next/internal/cache"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/metrics"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"

	"golang.org/x/sync/singleflight"
)

const catalogLoadKey = "coupon_catalog_open"

// CouponCatalogStore 目录快照存储。
// Invalidate 必须推进 Generation，SetIfGeneration 在版本变化后拒绝写入，
// 保证失效前开始的读库结果不会覆盖失效。
type CouponCatalogStore interface {
	Get(ctx context.Context) (*cache.CouponCatalogSnapshot, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetIfGeneration(ctx context.Context, snapshot *cache.CouponCatalogSnapshot, ttl time.Duration, generation int64) (bool, error)
	Invalidate(ctx context.Context) error
}

// CouponCatalogCache 可领取目录读缓存。
// 快照只用于列表展示，领取始终以数据库条件更新为准。
type CouponCatalogCache struct {
	couponRepo repository.CouponRepository
	store      CouponCatalogStore
	ttl        time.Duration
	metrics    *metrics.CouponMetrics
	group      singleflight.Group
}

// NewCouponCatalogCache 创建目录缓存，store 为 nil 或 ttl <= 0 时直接读库
func NewCouponCatalogCache(couponRepo repository.CouponRepository, store CouponCatalogStore, ttl time.Duration, m *metrics.CouponMetrics) *CouponCatalogCache {
	return &CouponCatalogCache{
		couponRepo: couponRepo,
		store:      store,
		ttl:        ttl,
		metrics:    m,
	}
}

func (c *CouponCatalogCache) cacheable() bool {
	return c.store != nil && c.ttl > 0
}

// Open 返回未结束且仍有余量的启用优惠券（包含尚未开始的）
func (c *CouponCatalogCache) Open(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	if !c.cacheable() {
		c.metrics.ObserveCatalogLoad("store")
		return c.couponRepo.WithContext(ctx).ListOpen(now)
	}

	snapshot, hit, err := c.store.Get(ctx)
	if err != nil {
		logger.Warnw("coupon_catalog_cache_get_failed", "error", err)
	}
	if hit && snapshot != nil {
		c.metrics.ObserveCatalogLoad("cache")
		return snapshot.Coupons, nil
	}

	value, err, _ := c.group.Do(catalogLoadKey, func() (interface{}, error) {
		return c.load(ctx, now)
	})
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveCatalogLoad("store")
	return value.([]models.Coupon), nil
}

// Refresh 重新加载并写入快照，不合并进已在进行的加载
func (c *CouponCatalogCache) Refresh(ctx context.Context) error {
	if !c.cacheable() {
		return nil
	}
	c.group.Forget(catalogLoadKey)
	_, err, _ := c.group.Do(catalogLoadKey, func() (interface{}, error) {
		return c.load(ctx, time.Now())
	})
	return err
}

// Invalidate 删除快照并推进版本，失败只记录日志
func (c *CouponCatalogCache) Invalidate(ctx context.Context) {
	if !c.cacheable() {
		return
	}
	// 之后的读取不再合并进失效前开始的加载
	c.group.Forget(catalogLoadKey)
	if err := c.store.Invalidate(ctx); err != nil {
		logger.Warnw("coupon_catalog_cache_invalidate_failed", "error", err)
	}
}

func (c *CouponCatalogCache) load(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	// 版本须在读库之前取得
	generation, genErr := c.store.Generation(ctx)
	if genErr != nil {
		logger.Warnw("coupon_catalog_cache_generation_failed", "error", genErr)
	}
	coupons, err := c.couponRepo.WithContext(ctx).ListOpen(now)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return coupons, nil
	}
	snapshot := &cache.CouponCatalogSnapshot{Coupons: coupons, LoadedAt: now.UTC()}
	stored, err := c.store.SetIfGeneration(ctx, snapshot, c.ttl, generation)
	if err != nil {
		logger.Warnw("coupon_catalog_cache_set_failed", "error", err, "count", len(coupons))
		return coupons, nil
	}
	if !stored {
		logger.Debugw("coupon_catalog_cache_set_skipped", "generation", generation)
	}
	return coupons, nil
}
