package service

import (
	"context"
	"errors"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/metrics"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"

	"gorm.io/gorm"
)

// CouponCatalogRefresher 领取成功后异步刷新目录快照
type CouponCatalogRefresher interface {
	EnqueueCouponCatalogRefresh(ctx context.Context, couponID uint) error
}

// CouponRedemptionOptions 领取/核销服务可选依赖
type CouponRedemptionOptions struct {
	Catalog              *CouponCatalogCache
	Refresher            CouponCatalogRefresher
	Metrics              *metrics.CouponMetrics
	RetryOnSerialization bool
}

// CouponRedemptionService 唯一允许修改已领取数量与领取记录状态的服务
type CouponRedemptionService struct {
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	opts           CouponRedemptionOptions
}

// NewCouponRedemptionService 创建领取/核销服务
func NewCouponRedemptionService(couponRepo repository.CouponRepository, userCouponRepo repository.UserCouponRepository, opts CouponRedemptionOptions) *CouponRedemptionService {
	return &CouponRedemptionService{
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		opts:           opts,
	}
}

// Claim 领取优惠券。
// 余量扣减与领取记录写入在同一事务内完成，任一步失败整体回滚。
func (s *CouponRedemptionService) Claim(ctx context.Context, userID, couponID uint, now time.Time) (*models.UserCoupon, error) {
	if userID == 0 || couponID == 0 {
		return nil, ErrInvalidArgument
	}
	started := time.Now()

	grant, err := s.claimOnce(ctx, userID, couponID, now)
	if err != nil && s.opts.RetryOnSerialization && repository.IsSerializationFailure(err) {
		logger.Warnw("coupon_claim_retry_serialization",
			"user_id", userID,
			"coupon_id", couponID,
			"error", err,
		)
		grant, err = s.claimOnce(ctx, userID, couponID, now)
	}
	if err != nil {
		err = classifyCouponError(err)
		s.opts.Metrics.ObserveClaim(couponResultLabel(err), time.Since(started))
		if errors.Is(err, ErrStoreUnavailable) {
			logger.Errorw("coupon_claim_store_failed", "user_id", userID, "coupon_id", couponID, "error", err)
		} else {
			logger.Debugw("coupon_claim_rejected", "user_id", userID, "coupon_id", couponID, "reason", err)
		}
		return nil, err
	}

	s.opts.Metrics.ObserveClaim(constants.MetricResultSuccess, time.Since(started))
	logger.Infow("coupon_claim_succeeded",
		"user_id", userID,
		"coupon_id", couponID,
		"grant_id", grant.ID,
	)
	s.afterClaim(ctx, couponID)
	return grant, nil
}

func (s *CouponRedemptionService) claimOnce(ctx context.Context, userID, couponID uint, now time.Time) (*models.UserCoupon, error) {
	var grant *models.UserCoupon
	err := s.couponRepo.Transaction(ctx, func(tx *gorm.DB) error {
		coupons := s.couponRepo.WithTx(tx)
		grants := s.userCouponRepo.WithTx(tx)

		coupon, err := coupons.GetByID(couponID)
		if err != nil {
			return err
		}
		if coupon == nil {
			return ErrCouponNotFound
		}
		if !coupon.IsActive() {
			return ErrCouponInactive
		}
		if now.Before(coupon.ValidFrom) {
			return ErrCouponNotStarted
		}
		if now.After(coupon.ValidUntil) {
			return ErrCouponExpired
		}

		// 余量只以条件更新的结果为准
		ok, err := coupons.IncrementClaimedCount(coupon.ID)
		if err != nil {
			return err
		}
		if !ok {
			// 已领完时，持有记录的用户得到更具体的 AlreadyClaimed
			held, err := grants.GetByUserAndCoupon(userID, coupon.ID)
			if err != nil {
				return err
			}
			if held != nil {
				return ErrCouponAlreadyClaimed
			}
			return ErrCouponExhausted
		}

		existing, err := grants.GetByUserAndCoupon(userID, coupon.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrCouponAlreadyClaimed
		}

		record := &models.UserCoupon{
			UserID:    userID,
			CouponID:  coupon.ID,
			Status:    constants.UserCouponStatusUnused,
			GrantedAt: now,
			ExpiresAt: coupon.ValidUntil,
		}
		if err := grants.Create(record); err != nil {
			// 并发领取越过了上面的检查，由唯一索引兜底
			if repository.IsDuplicateKeyError(err) {
				return ErrCouponAlreadyClaimed
			}
			return err
		}
		coupon.ClaimedCount++
		record.Coupon = coupon
		grant = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (s *CouponRedemptionService) afterClaim(ctx context.Context, couponID uint) {
	if s.opts.Catalog != nil {
		s.opts.Catalog.Invalidate(ctx)
	}
	if s.opts.Refresher != nil {
		if err := s.opts.Refresher.EnqueueCouponCatalogRefresh(ctx, couponID); err != nil {
			logger.Warnw("coupon_catalog_refresh_enqueue_failed", "coupon_id", couponID, "error", err)
		}
	}
}

// Consume 核销领取记录。
// 发现已过期时会将记录置为 expired 并提交，但本次调用仍返回 ErrUserCouponExpired。
func (s *CouponRedemptionService) Consume(ctx context.Context, userID, grantID, orderID uint, now time.Time) error {
	if userID == 0 || grantID == 0 || orderID == 0 {
		return ErrInvalidArgument
	}

	var resultError error
	err := s.couponRepo.Transaction(ctx, func(tx *gorm.DB) error {
		grants := s.userCouponRepo.WithTx(tx)
		grant, err := grants.GetByID(grantID)
		if err != nil {
			return err
		}
		if grant == nil || grant.UserID != userID {
			return ErrUserCouponNotFound
		}
		if grant.Status != constants.UserCouponStatusUnused {
			return ErrCouponNotUsable
		}
		if now.After(grant.ExpiresAt) {
			if _, err := grants.MarkExpired(grant.ID, now); err != nil {
				return err
			}
			resultError = ErrUserCouponExpired
			return nil
		}

		ok, err := grants.MarkUsed(grant.ID, userID, orderID, now)
		if err != nil {
			return err
		}
		if !ok {
			// 并发核销已抢先改变状态
			return ErrCouponNotUsable
		}
		return nil
	})
	if err == nil {
		err = resultError
	}
	if err != nil {
		err = classifyCouponError(err)
		s.opts.Metrics.ObserveConsume(couponResultLabel(err))
		if errors.Is(err, ErrStoreUnavailable) {
			logger.Errorw("coupon_consume_store_failed", "user_id", userID, "grant_id", grantID, "error", err)
		}
		return err
	}

	s.opts.Metrics.ObserveConsume(constants.MetricResultSuccess)
	logger.Infow("coupon_consume_succeeded",
		"user_id", userID,
		"grant_id", grantID,
		"order_id", orderID,
	)
	return nil
}

// couponDomainErrors 业务错误与指标标签
var couponDomainErrors = []struct {
	err   error
	label string
}{
	{ErrCouponNotFound, "not_found"},
	{ErrUserCouponNotFound, "not_found"},
	{ErrCouponInactive, "inactive"},
	{ErrCouponNotStarted, "not_yet_valid"},
	{ErrCouponExpired, "expired"},
	{ErrUserCouponExpired, "expired"},
	{ErrCouponExhausted, "exhausted"},
	{ErrCouponAlreadyClaimed, "already_claimed"},
	{ErrCouponNotUsable, "not_usable"},
	{ErrInvalidArgument, "invalid_argument"},
}

// classifyCouponError 业务错误原样返回，其余归为 ErrStoreUnavailable
func classifyCouponError(err error) error {
	if err == nil {
		return nil
	}
	for _, item := range couponDomainErrors {
		if errors.Is(err, item.err) {
			return err
		}
	}
	return wrapStoreError(err)
}

func couponResultLabel(err error) string {
	for _, item := range couponDomainErrors {
		if errors.Is(err, item.err) {
			return item.label
		}
	}
	return "store_unavailable"
}
