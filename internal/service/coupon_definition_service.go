package service

import (
	"context"
	"strings"
	"time"

	"github.com/lingqian-next/internal/constants"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/repository"
)

// CouponDefinitionService 优惠券定义写入（种子数据与运营脚本使用）
type CouponDefinitionService struct {
	repo repository.CouponRepository
}

// NewCouponDefinitionService 创建优惠券定义服务
func NewCouponDefinitionService(repo repository.CouponRepository) *CouponDefinitionService {
	return &CouponDefinitionService{repo: repo}
}

// CouponDefinitionInput 优惠券定义输入
type CouponDefinitionInput struct {
	Code                 string
	Name                 string
	Description          string
	Type                 string
	Value                models.Money
	MinOrderAmount       *models.Money
	MaxDiscountAmount    *models.Money
	TotalSupply          int
	ValidFrom            time.Time
	ValidUntil           time.Time
	Inactive             bool
	ApplicableCategories []string
}

// BuildCouponDefinition 校验输入并生成优惠券定义
func BuildCouponDefinition(input CouponDefinitionInput) (*models.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrInvalidArgument
	}
	discountType, err := models.ParseDiscountType(input.Type)
	if err != nil {
		return nil, ErrInvalidArgument
	}
	if !input.Value.IsPositive() {
		return nil, ErrInvalidArgument
	}
	if discountType == models.DiscountTypePercentage && input.Value.Decimal.GreaterThan(hundred) {
		return nil, ErrInvalidArgument
	}
	if input.MinOrderAmount != nil && input.MinOrderAmount.Decimal.IsNegative() {
		return nil, ErrInvalidArgument
	}
	if input.MaxDiscountAmount != nil && !input.MaxDiscountAmount.IsPositive() {
		return nil, ErrInvalidArgument
	}
	if input.TotalSupply <= 0 {
		return nil, ErrInvalidArgument
	}
	if input.ValidFrom.IsZero() || input.ValidUntil.IsZero() || input.ValidUntil.Before(input.ValidFrom) {
		return nil, ErrInvalidArgument
	}

	status := constants.CouponStatusActive
	if input.Inactive {
		status = constants.CouponStatusInactive
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = code
	}
	coupon := &models.Coupon{
		Code:              code,
		Name:              name,
		Description:       strings.TrimSpace(input.Description),
		DiscountType:      discountType,
		DiscountValue:     input.Value,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		TotalSupply:       input.TotalSupply,
		ValidFrom:         input.ValidFrom,
		ValidUntil:        input.ValidUntil,
		Status:            status,
	}
	if err := coupon.SetCategories(input.ApplicableCategories); err != nil {
		return nil, ErrInvalidArgument
	}
	return coupon, nil
}

// Ensure 按优惠码幂等创建，已存在时原样返回且不修改发放进度
func (s *CouponDefinitionService) Ensure(ctx context.Context, input CouponDefinitionInput) (*models.Coupon, bool, error) {
	coupon, err := BuildCouponDefinition(input)
	if err != nil {
		return nil, false, err
	}
	repo := s.repo.WithContext(ctx)
	existing, err := repo.GetByCode(coupon.Code)
	if err != nil {
		return nil, false, wrapStoreError(err)
	}
	if existing != nil {
		return existing, false, nil
	}
	if err := repo.Create(coupon); err != nil {
		if repository.IsDuplicateKeyError(err) {
			existing, getErr := repo.GetByCode(coupon.Code)
			if getErr != nil {
				return nil, false, wrapStoreError(getErr)
			}
			return existing, false, nil
		}
		return nil, false, wrapStoreError(err)
	}
	return coupon, true, nil
}
