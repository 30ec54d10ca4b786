package router

import (
	"fmt"
	"strings"

	"github.com/lingqian-next/internal/cache"
	"github.com/lingqian-next/internal/config"
	publichandlers "github.com/lingqian-next/internal/http/handlers/public"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	return setupRouter(cfg, c, cache.Client())
}

func setupRouter(cfg *config.Config, c *provider.Container, redisClient *redis.Client) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lq"
	}
	claimRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:coupon_claim", redisPrefix),
		WindowSeconds: cfg.Security.ClaimRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ClaimRateLimit.MaxRequests,
		BlockSeconds:  cfg.Security.ClaimRateLimit.BlockSeconds,
		MessageKey:    "error.claim_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（登录可选）
		public := apiV1.Group("/public")
		public.Use(OptionalUserJWTMiddleware(cfg.UserJWT))
		{
			public.GET("/coupons", publicHandler.GetPublicCoupons)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT))
		{
			user.GET("/coupons/claimable", publicHandler.GetClaimableCoupons)
			user.POST("/coupons/:id/claim", RateLimitMiddleware(redisClient, claimRule, KeyByUserID), publicHandler.ClaimCoupon)
			user.GET("/me/coupons", publicHandler.GetMyCoupons)
			user.GET("/me/coupons/usable", publicHandler.GetMyUsableCoupons)
			user.GET("/me/coupons/:id/quote", publicHandler.QuoteMyCoupon)
			user.POST("/me/coupons/:id/consume", publicHandler.ConsumeMyCoupon)
		}
	}

	if c.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})))
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
