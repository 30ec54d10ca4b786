package main

import (
	"context"
	"flag"
	"time"

	"github.com/lingqian-next/internal/config"
	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"
	"github.com/lingqian-next/internal/service"
)

// seedCoupons 开发环境的咨询优惠券
func seedCoupons(now time.Time) []service.CouponDefinitionInput {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return []service.CouponDefinitionInput{
		{
			Code:                 "TAROT-NEW-20",
			Name:                 "塔罗新客 8 折",
			Description:          "首次塔罗占卜享 8 折，最高减 50",
			Type:                 constants.DiscountTypePercentage,
			Value:                models.MustMoney("20"),
			MaxDiscountAmount:    models.MoneyPtr(models.MustMoney("50")),
			TotalSupply:          500,
			ValidFrom:            start,
			ValidUntil:           start.AddDate(0, 1, 0),
			ApplicableCategories: []string{constants.CategoryTarot},
		},
		{
			Code:                 "BAZI-30-OFF",
			Name:                 "八字精批满 199 减 30",
			Type:                 constants.DiscountTypeFixed,
			Value:                models.MustMoney("30"),
			MinOrderAmount:       models.MoneyPtr(models.MustMoney("199")),
			TotalSupply:          200,
			ValidFrom:            start,
			ValidUntil:           start.AddDate(0, 0, 14),
			ApplicableCategories: []string{constants.CategoryBazi},
		},
		{
			Code:                 "STAR-FENGSHUI-10",
			Name:                 "星盘与风水通用 9 折",
			Type:                 constants.DiscountTypePercentage,
			Value:                models.MustMoney("10"),
			TotalSupply:          300,
			ValidFrom:            start,
			ValidUntil:           start.AddDate(0, 2, 0),
			ApplicableCategories: []string{constants.CategoryAstrology, constants.CategoryFengShui},
		},
		{
			Code:        "ALL-10-OFF",
			Name:        "全场立减 10",
			Type:        constants.DiscountTypeFixed,
			Value:       models.MustMoney("10"),
			TotalSupply: 1000,
			ValidFrom:   start,
			ValidUntil:  start.AddDate(0, 1, 0),
		},
		{
			Code:        "FLASH-ONE",
			Name:        "限量 1 张 5 折",
			Type:        constants.DiscountTypePercentage,
			Value:       models.MustMoney("50"),
			TotalSupply: 1,
			ValidFrom:   start,
			ValidUntil:  start.AddDate(0, 0, 1),
		},
		{
			Code:        "SPRING-PREVIEW",
			Name:        "下月预告券",
			Type:        constants.DiscountTypeFixed,
			Value:       models.MustMoney("20"),
			TotalSupply: 100,
			ValidFrom:   start.AddDate(0, 1, 0),
			ValidUntil:  start.AddDate(0, 2, 0),
		},
	}
}

func main() {
	var devUserID uint
	flag.UintVar(&devUserID, "dev-token-user", 0, "为指定用户签发开发用 JWT（0 表示不签发）")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	definitions := service.NewCouponDefinitionService(repository.NewCouponRepository(models.DB))
	for _, input := range seedCoupons(now) {
		coupon, created, err := definitions.Ensure(ctx, input)
		if err != nil {
			stdLog.Printf("Failed to seed coupon %s: %v", input.Code, err)
			continue
		}
		if created {
			stdLog.Printf("Created coupon: %s (id=%d)", coupon.Code, coupon.ID)
		} else {
			stdLog.Printf("Coupon already exists: %s (id=%d)", coupon.Code, coupon.ID)
		}
	}

	if devUserID > 0 {
		token, expiresAt, err := service.IssueUserToken(cfg.UserJWT.SecretKey, cfg.UserJWT.Issuer, devUserID, 24*time.Hour, now)
		if err != nil {
			stdLog.Fatalf("Failed to issue dev token: %v", err)
		}
		stdLog.Printf("Dev token for user %d (expires %s):\n%s", devUserID, expiresAt.Format(time.RFC3339), token)
	}

	stdLog.Println("Seed completed")
}
