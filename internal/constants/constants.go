package constants

// 优惠券定义状态常量
const (
	CouponStatusActive   = "active"
	CouponStatusInactive = "inactive"
)

// 用户优惠券（领取记录）状态常量
const (
	UserCouponStatusUnused  = "unused"
	UserCouponStatusUsed    = "used"
	UserCouponStatusExpired = "expired"
)

// 优惠类型标签（持久化值）
const (
	DiscountTypeFixed      = "fixed"
	DiscountTypePercentage = "percentage"
)

// 历史数据中出现过的百分比类型别名
const (
	DiscountTypeLegacyPercent  = "percent"
	DiscountTypeLegacyDiscount = "discount"
)

// 咨询服务品类（优惠券适用范围示例值）
const (
	CategoryTarot     = "tarot"
	CategoryBazi      = "bazi"
	CategoryAstrology = "astrology"
	CategoryFengShui  = "fengshui"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskCouponCatalogRefresh = "coupon:catalog_refresh"
)

// 指标结果标签
const (
	MetricResultSuccess = "success"
)
