package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lingqian-next/internal/constants"
)

// DiscountType 优惠类型（封闭枚举，新增类型需同步修改折扣计算）
type DiscountType uint8

const (
	// DiscountTypeUnknown 零值，不可用于持久化
	DiscountTypeUnknown DiscountType = iota
	// DiscountTypeFixed 固定金额立减
	DiscountTypeFixed
	// DiscountTypePercentage 按订单金额百分比折扣
	DiscountTypePercentage
)

// ParseDiscountType 解析类型标签，兼容历史别名
func ParseDiscountType(raw string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case constants.DiscountTypeFixed:
		return DiscountTypeFixed, nil
	case constants.DiscountTypePercentage, constants.DiscountTypeLegacyPercent, constants.DiscountTypeLegacyDiscount:
		return DiscountTypePercentage, nil
	default:
		return DiscountTypeUnknown, fmt.Errorf("unknown discount type: %q", raw)
	}
}

// String 返回持久化标签
func (t DiscountType) String() string {
	switch t {
	case DiscountTypeFixed:
		return constants.DiscountTypeFixed
	case DiscountTypePercentage:
		return constants.DiscountTypePercentage
	default:
		return ""
	}
}

// Valid 是否为已知类型
func (t DiscountType) Valid() bool {
	return t == DiscountTypeFixed || t == DiscountTypePercentage
}

// Value 用于数据库写入
func (t DiscountType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid discount type: %d", t)
	}
	return t.String(), nil
}

// Scan 用于数据库读取
func (t *DiscountType) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*t = DiscountTypeUnknown
		return nil
	default:
		return fmt.Errorf("unsupported discount type source: %T", value)
	}
	parsed, err := ParseDiscountType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON 输出类型标签
func (t DiscountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON 解析类型标签
func (t *DiscountType) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseDiscountType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
