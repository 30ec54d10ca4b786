package provider

import (
	"time"

	"github.com/lingqian-next/internal/cache"
	"github.com/lingqian-next/internal/config"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/metrics"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/queue"
	"github.com/lingqian-next/internal/repository"
	"github.com/lingqian-next/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Registry    *prometheus.Registry
	Metrics     *metrics.CouponMetrics

	// Clock 当前时间来源，为空时使用 time.Now
	Clock func() time.Time

	// Repositories
	CouponRepo     repository.CouponRepository
	UserCouponRepo repository.UserCouponRepository

	// Services
	CouponCatalog            *service.CouponCatalogCache
	CouponEligibilityService *service.CouponEligibilityService
	CouponRedemptionService  *service.CouponRedemptionService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端（未启用时为空操作客户端）
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := Dependencies{
		QueueClient: queueClient,
		Registry:    registry,
	}
	// Redis 不可用时目录直接读库
	if cache.Enabled() {
		deps.CatalogStore = cache.NewRedisCouponCatalog()
	}
	return Build(cfg, models.DB, deps)
}

// Dependencies 容器的外部依赖，测试中可替换
type Dependencies struct {
	QueueClient  *queue.Client
	Registry     *prometheus.Registry
	CatalogStore service.CouponCatalogStore
	Clock        func() time.Time
}

// Build 基于给定数据库连接装配仓库与服务
func Build(cfg *config.Config, db *gorm.DB, deps Dependencies) *Container {
	c := &Container{
		Config:      cfg,
		QueueClient: deps.QueueClient,
		Registry:    deps.Registry,
		Clock:       deps.Clock,
	}
	if c.Registry != nil {
		c.Metrics = metrics.NewCouponMetrics(c.Registry)
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices(deps.CatalogStore)

	return c
}

// Now 当前时间
func (c *Container) Now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.CouponRepo = repository.NewCouponRepository(db)
	c.UserCouponRepo = repository.NewUserCouponRepository(db)
}

func (c *Container) initServices(store service.CouponCatalogStore) {
	c.CouponCatalog = service.NewCouponCatalogCache(c.CouponRepo, store, c.Config.Coupon.CatalogCacheTTL(), c.Metrics)
	c.CouponEligibilityService = service.NewCouponEligibilityService(c.CouponRepo, c.UserCouponRepo, c.CouponCatalog)

	opts := service.CouponRedemptionOptions{
		Catalog:              c.CouponCatalog,
		Metrics:              c.Metrics,
		RetryOnSerialization: c.Config.Coupon.ClaimRetryOnSerialization,
	}
	if c.QueueClient != nil {
		opts.Refresher = c.QueueClient
	}
	c.CouponRedemptionService = service.NewCouponRedemptionService(c.CouponRepo, c.UserCouponRepo, opts)
}
