package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lingqian-next/internal/constants"

	"gorm.io/gorm"
)

// Coupon 优惠券定义（有限发放量的共享优惠）
type Coupon struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                              // 主键
	Code                 string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`                 // 优惠码
	Name                 string         `gorm:"type:varchar(120);not null;default:''" json:"name"`                 // 展示名称
	Description          string         `gorm:"type:text" json:"description"`                                      // 说明
	DiscountType         DiscountType   `gorm:"type:varchar(16);not null" json:"discount_type"`                    // 类型（fixed/percentage）
	DiscountValue        Money          `gorm:"type:decimal(20,2);not null" json:"discount_value"`                 // 数值（固定金额或 0-100 百分比）
	MinOrderAmount       *Money         `gorm:"type:decimal(20,2)" json:"min_order_amount"`                        // 使用门槛（空表示无门槛）
	MaxDiscountAmount    *Money         `gorm:"type:decimal(20,2)" json:"max_discount_amount"`                     // 最大优惠金额（空表示不封顶）
	TotalSupply          int            `gorm:"not null;default:0" json:"total_supply"`                            // 发放总量
	ClaimedCount         int            `gorm:"not null;default:0" json:"claimed_count"`                           // 已领取数量
	ValidFrom            time.Time      `gorm:"index;not null" json:"valid_from"`                                  // 生效时间
	ValidUntil           time.Time      `gorm:"index;not null" json:"valid_until"`                                 // 失效时间
	Status               string         `gorm:"type:varchar(16);index;not null;default:'active'" json:"status"`    // 状态（active/inactive）
	ApplicableCategories string         `gorm:"type:text" json:"-"`                                                // 适用品类（JSON 数组，空表示全部）
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                           // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                    // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// BeforeSave 统一以 UTC 存储有效期，保证跨时区比较一致
func (c *Coupon) BeforeSave(_ *gorm.DB) error {
	c.ValidFrom = c.ValidFrom.UTC()
	c.ValidUntil = c.ValidUntil.UTC()
	return nil
}

// IsActive 是否启用
func (c *Coupon) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(c.Status), constants.CouponStatusActive)
}

// RemainingSupply 剩余可领取数量
func (c *Coupon) RemainingSupply() int {
	remaining := c.TotalSupply - c.ClaimedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Categories 解析适用品类，nil 表示不限品类
func (c *Coupon) Categories() ([]string, error) {
	raw := strings.TrimSpace(c.ApplicableCategories)
	if raw == "" {
		return nil, nil
	}
	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, err
	}
	normalized := make([]string, 0, len(categories))
	for _, category := range categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		normalized = append(normalized, category)
	}
	if len(normalized) == 0 {
		return nil, nil
	}
	return normalized, nil
}

// SetCategories 写入适用品类，空列表表示不限品类
func (c *Coupon) SetCategories(categories []string) error {
	normalized := make([]string, 0, len(categories))
	for _, category := range categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		normalized = append(normalized, category)
	}
	if len(normalized) == 0 {
		c.ApplicableCategories = ""
		return nil
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	c.ApplicableCategories = string(payload)
	return nil
}

// MarshalJSON 输出时展开适用品类
func (c Coupon) MarshalJSON() ([]byte, error) {
	type couponAlias Coupon
	categories, _ := c.Categories()
	return json.Marshal(struct {
		couponAlias
		ApplicableCategories []string `json:"applicable_categories"`
	}{
		couponAlias:          couponAlias(c),
		ApplicableCategories: categories,
	})
}

// UnmarshalJSON 解析时回填适用品类（缓存回读使用）
func (c *Coupon) UnmarshalJSON(b []byte) error {
	type couponAlias Coupon
	var payload struct {
		couponAlias
		ApplicableCategories []string `json:"applicable_categories"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return err
	}
	*c = Coupon(payload.couponAlias)
	return c.SetCategories(payload.ApplicableCategories)
}
