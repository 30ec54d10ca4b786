package service

import (
	"errors"
	"fmt"
)

// 优惠券领取与核销错误，每种失败原因对应唯一的哨兵错误
var (
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrUserCouponNotFound   = errors.New("user coupon not found")
	ErrCouponInactive       = errors.New("coupon inactive")
	ErrCouponNotStarted     = errors.New("coupon not started")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrUserCouponExpired    = errors.New("user coupon expired")
	ErrCouponExhausted      = errors.New("coupon exhausted")
	ErrCouponAlreadyClaimed = errors.New("coupon already claimed")
	ErrCouponNotUsable      = errors.New("coupon not usable")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrStoreUnavailable     = errors.New("coupon store unavailable")
)

// wrapStoreError 将底层存储错误归类为 ErrStoreUnavailable，同时保留原始错误链
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
