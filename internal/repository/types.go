package repository

import "time"

// UserCouponListFilter 查询用户优惠券列表的过滤条件
type UserCouponListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	CouponID uint
	// Status 支持 unused/used/expired，其中 unused 与 expired 按 Now 派生
	Status string
	Now    time.Time
}
