package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/logger"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"
)

// ClaimableCoupon 可领取的优惠券
type ClaimableCoupon struct {
	Coupon          models.Coupon `json:"coupon"`
	RemainingSupply int           `json:"remaining_supply"`
	AlreadyClaimed  bool          `json:"already_claimed"`
}

// UsableQuery 可用券查询条件
type UsableQuery struct {
	UserID      uint
	OrderAmount models.Money
	Category    string // 为空时不按品类过滤
	Now         time.Time
}

// UsableCoupon 可用于当前订单的领取记录及预估优惠
type UsableCoupon struct {
	Grant    models.UserCoupon `json:"grant"`
	Discount models.Money      `json:"discount"`
}

// UserCouponQuery 用户优惠券列表查询条件
type UserCouponQuery struct {
	UserID   uint
	Status   string
	Page     int
	PageSize int
	Now      time.Time
}

// CouponEligibilityService 只读：回答用户当前可领取、可使用哪些优惠券
type CouponEligibilityService struct {
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
	catalog        *CouponCatalogCache
}

// NewCouponEligibilityService 创建可用性查询服务，catalog 可为 nil
func NewCouponEligibilityService(couponRepo repository.CouponRepository, userCouponRepo repository.UserCouponRepository, catalog *CouponCatalogCache) *CouponEligibilityService {
	return &CouponEligibilityService{
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
		catalog:        catalog,
	}
}

// ListClaimable 列出当前可领取的优惠券；userID 非 0 时标注该用户是否已领取
func (s *CouponEligibilityService) ListClaimable(ctx context.Context, now time.Time, userID uint) ([]ClaimableCoupon, error) {
	coupons, err := s.loadClaimable(ctx, now)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	claimed := map[uint]struct{}{}
	if userID != 0 && len(coupons) > 0 {
		ids := make([]uint, 0, len(coupons))
		for _, coupon := range coupons {
			ids = append(ids, coupon.ID)
		}
		claimed, err = s.userCouponRepo.WithContext(ctx).ListClaimedCouponIDs(userID, ids)
		if err != nil {
			return nil, wrapStoreError(err)
		}
	}

	result := make([]ClaimableCoupon, 0, len(coupons))
	for _, coupon := range coupons {
		_, ok := claimed[coupon.ID]
		result = append(result, ClaimableCoupon{
			Coupon:          coupon,
			RemainingSupply: coupon.RemainingSupply(),
			AlreadyClaimed:  ok,
		})
	}
	return result, nil
}

func (s *CouponEligibilityService) loadClaimable(ctx context.Context, now time.Time) ([]models.Coupon, error) {
	if s.catalog == nil {
		return s.couponRepo.WithContext(ctx).ListClaimable(now)
	}
	open, err := s.catalog.Open(ctx, now)
	if err != nil {
		return nil, err
	}
	coupons := make([]models.Coupon, 0, len(open))
	for _, coupon := range open {
		if isClaimableAt(&coupon, now) {
			coupons = append(coupons, coupon)
		}
	}
	return coupons, nil
}

// isClaimableAt 启用、在有效期内且仍有余量
func isClaimableAt(coupon *models.Coupon, now time.Time) bool {
	if coupon == nil || !coupon.IsActive() {
		return false
	}
	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return false
	}
	return coupon.ClaimedCount < coupon.TotalSupply
}

// ListUsable 列出可用于该订单的领取记录。
// 排序键是按本订单金额算出的实际优惠额（已应用百分比、封顶与订单金额上限），
// 不是 DiscountValue 面值；优惠额相同时保持领取记录 ID 升序。
func (s *CouponEligibilityService) ListUsable(ctx context.Context, query UsableQuery) ([]UsableCoupon, error) {
	if query.UserID == 0 || !query.OrderAmount.IsPositive() {
		return nil, ErrInvalidArgument
	}
	category := normalizeCategory(query.Category)

	grants, err := s.userCouponRepo.WithContext(ctx).ListUsableByUser(query.UserID, query.Now)
	if err != nil {
		return nil, wrapStoreError(err)
	}

	result := make([]UsableCoupon, 0, len(grants))
	for _, grant := range grants {
		discount, ok := evaluateGrant(&grant, query.OrderAmount, category)
		if !ok {
			continue
		}
		result = append(result, UsableCoupon{Grant: grant, Discount: discount})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Discount.Decimal.GreaterThan(result[j].Discount.Decimal)
	})
	return result, nil
}

// QuoteGrant 校验指定领取记录能否用于该订单并返回优惠额，供结算前锁定优惠
func (s *CouponEligibilityService) QuoteGrant(ctx context.Context, grantID uint, query UsableQuery) (*UsableCoupon, error) {
	if grantID == 0 || query.UserID == 0 || !query.OrderAmount.IsPositive() {
		return nil, ErrInvalidArgument
	}
	grant, err := s.userCouponRepo.WithContext(ctx).GetByID(grantID)
	if err != nil {
		return nil, wrapStoreError(err)
	}
	if grant == nil || grant.UserID != query.UserID {
		return nil, ErrUserCouponNotFound
	}
	if grant.Status != constants.UserCouponStatusUnused {
		return nil, ErrCouponNotUsable
	}
	if grant.IsExpiredAt(query.Now) {
		return nil, ErrUserCouponExpired
	}
	discount, ok := evaluateGrant(grant, query.OrderAmount, normalizeCategory(query.Category))
	if !ok {
		return nil, ErrCouponNotUsable
	}
	return &UsableCoupon{Grant: *grant, Discount: discount}, nil
}

// ListUserCoupons 用户优惠券列表，未使用但已过期的记录按 expired 展示
func (s *CouponEligibilityService) ListUserCoupons(ctx context.Context, query UserCouponQuery) ([]models.UserCoupon, int64, error) {
	if query.UserID == 0 {
		return nil, 0, ErrInvalidArgument
	}
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}
	grants, total, err := s.userCouponRepo.WithContext(ctx).List(repository.UserCouponListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		UserID:   query.UserID,
		Status:   query.Status,
		Now:      now,
	})
	if err != nil {
		return nil, 0, wrapStoreError(err)
	}
	for i := range grants {
		grants[i].Status = grants[i].EffectiveStatus(now)
	}
	return grants, total, nil
}

// evaluateGrant 判断领取记录对订单是否可用，可用时返回优惠额
func evaluateGrant(grant *models.UserCoupon, orderAmount models.Money, category string) (models.Money, bool) {
	coupon := grant.Coupon
	if coupon == nil {
		logger.Warnw("coupon_grant_definition_missing", "grant_id", grant.ID, "coupon_id", grant.CouponID)
		return models.Money{}, false
	}
	if !meetsMinOrderAmount(coupon, orderAmount) {
		return models.Money{}, false
	}
	applies, err := appliesToCategory(coupon, category)
	if err != nil {
		logger.Warnw("coupon_categories_invalid", "coupon_id", coupon.ID, "error", err)
		return models.Money{}, false
	}
	if !applies {
		return models.Money{}, false
	}
	discount, err := ComputeDiscount(coupon, orderAmount)
	if err != nil {
		logger.Warnw("coupon_discount_compute_failed", "coupon_id", coupon.ID, "error", err)
		return models.Money{}, false
	}
	return discount, true
}

func normalizeCategory(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
