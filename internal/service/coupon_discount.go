package service

import (
	"github.com/lingqian-next/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount 计算优惠券对订单金额的优惠额。
// 结果满足 0 <= 优惠 <= 订单金额，设置了封顶时不超过封顶金额；只在最后四舍五入到分。
func ComputeDiscount(coupon *models.Coupon, orderAmount models.Money) (models.Money, error) {
	if coupon == nil {
		return models.Money{}, ErrInvalidArgument
	}
	if !orderAmount.IsPositive() {
		return models.Money{}, ErrInvalidArgument
	}

	var amount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountTypeFixed:
		amount = coupon.DiscountValue.Decimal
	case models.DiscountTypePercentage:
		amount = orderAmount.Decimal.Mul(coupon.DiscountValue.Decimal).Div(hundred)
	default:
		return models.Money{}, ErrInvalidArgument
	}

	if coupon.MaxDiscountAmount != nil {
		amount = decimal.Min(amount, coupon.MaxDiscountAmount.Decimal)
	}
	amount = decimal.Min(amount, orderAmount.Decimal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	// 非负数上 Round 即四舍五入（half-up）
	return models.NewMoneyFromDecimal(amount), nil
}

// meetsMinOrderAmount 订单金额是否达到使用门槛（未设置门槛视为满足）
func meetsMinOrderAmount(coupon *models.Coupon, orderAmount models.Money) bool {
	if coupon == nil || coupon.MinOrderAmount == nil {
		return true
	}
	return orderAmount.Decimal.GreaterThanOrEqual(coupon.MinOrderAmount.Decimal)
}

// appliesToCategory 品类是否在适用范围内；未指定品类或优惠券不限品类时视为适用
func appliesToCategory(coupon *models.Coupon, category string) (bool, error) {
	if coupon == nil {
		return false, nil
	}
	if category == "" {
		return true, nil
	}
	categories, err := coupon.Categories()
	if err != nil {
		return false, err
	}
	if len(categories) == 0 {
		return true, nil
	}
	for _, allowed := range categories {
		if allowed == category {
			return true, nil
		}
	}
	return false, nil
}
