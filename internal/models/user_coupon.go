package models

import (
	"time"

	"github.com/lingqian-next/internal/constants"

	"gorm.io/gorm"
)

// UserCoupon 用户领取的优惠券（每个用户对同一优惠券最多一条）
type UserCoupon struct {
	ID        uint       `gorm:"primarykey" json:"id"`                                                  // 主键
	UserID    uint       `gorm:"not null;uniqueIndex:idx_user_coupons_user_coupon,priority:1;index:idx_user_coupons_user_status,priority:1" json:"user_id"` // 用户ID
	CouponID  uint       `gorm:"not null;uniqueIndex:idx_user_coupons_user_coupon,priority:2;index" json:"coupon_id"`                                        // 优惠券ID
	Status    string     `gorm:"type:varchar(16);not null;default:'unused';index:idx_user_coupons_user_status,priority:2" json:"status"`                  // 状态（unused/used/expired）
	OrderID   *uint      `gorm:"index" json:"order_id,omitempty"`                                       // 核销订单ID
	GrantedAt time.Time  `gorm:"not null" json:"granted_at"`                                            // 领取时间
	UsedAt    *time.Time `json:"used_at,omitempty"`                                                     // 核销时间
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`                                      // 过期时间（领取时从优惠券复制）
	CreatedAt time.Time  `json:"created_at"`                                                            // 创建时间
	UpdatedAt time.Time  `json:"updated_at"`                                                            // 更新时间
	Coupon    *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`                           // 优惠券定义
}

// TableName 指定表名
func (UserCoupon) TableName() string {
	return "user_coupons"
}

// BeforeSave 统一以 UTC 存储时间字段
func (u *UserCoupon) BeforeSave(_ *gorm.DB) error {
	u.GrantedAt = u.GrantedAt.UTC()
	u.ExpiresAt = u.ExpiresAt.UTC()
	if u.UsedAt != nil {
		usedAt := u.UsedAt.UTC()
		u.UsedAt = &usedAt
	}
	return nil
}

// IsExpiredAt 未使用且已过期（派生状态，不依赖定时任务）
func (u *UserCoupon) IsExpiredAt(now time.Time) bool {
	if u.Status == constants.UserCouponStatusExpired {
		return true
	}
	return u.Status == constants.UserCouponStatusUnused && now.After(u.ExpiresAt)
}

// EffectiveStatus 展示用状态：已过期的未使用券显示为 expired
func (u *UserCoupon) EffectiveStatus(now time.Time) string {
	if u.IsExpiredAt(now) {
		return constants.UserCouponStatusExpired
	}
	return u.Status
}
