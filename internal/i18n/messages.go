package i18n

var messages = map[string]map[string]string{
	LocaleZhCN: {
		"error.jwt_secret_missing":     "鉴权未配置",
		"error.auth_header_missing":    "缺少 Authorization 请求头",
		"error.auth_header_invalid":    "Authorization 格式错误",
		"error.token_invalid":          "登录令牌无效或已过期",
		"error.rate_limit_unavailable": "限流服务不可用",
		"error.claim_too_many":         "领取过于频繁，请 %d 秒后再试",
		"error.bad_request":            "请求参数错误",
		"error.unauthorized":           "未登录或登录已失效",
		"error.forbidden":              "无权访问",
		"error.too_many_requests":      "请求过于频繁，请稍后再试",
		"error.internal":               "服务器内部错误",
		"error.user_id_invalid":        "用户ID无效",
		"error.user_id_type_invalid":   "用户ID类型错误",
		"error.coupon_id_invalid":      "优惠券ID无效",
		"error.order_amount_invalid":   "订单金额无效",
		"error.order_id_invalid":       "订单ID无效",
		"error.coupon_not_found":       "优惠券不存在",
		"error.user_coupon_not_found":  "未找到该领取记录",
		"error.coupon_inactive":        "优惠券已停用",
		"error.coupon_not_started":     "优惠券尚未开始领取",
		"error.coupon_expired":         "优惠券已过期",
		"error.user_coupon_expired":    "已领取的优惠券已过期",
		"error.coupon_exhausted":       "优惠券已领完",
		"error.coupon_already_claimed": "您已领取过该优惠券",
		"error.coupon_not_usable":      "优惠券不可用于当前订单",
		"error.invalid_argument":       "参数不合法",
		"error.store_unavailable":      "服务繁忙，请稍后重试",
		"error.coupon_list_failed":     "获取优惠券列表失败",
		"error.coupon_claim_failed":    "领取优惠券失败",
		"error.coupon_consume_failed":  "核销优惠券失败",
	},
	LocaleZhTW: {
		"error.jwt_secret_missing":     "驗證未設定",
		"error.auth_header_missing":    "缺少 Authorization 標頭",
		"error.auth_header_invalid":    "Authorization 格式錯誤",
		"error.token_invalid":          "登入權杖無效或已過期",
		"error.rate_limit_unavailable": "限流服務不可用",
		"error.claim_too_many":         "領取過於頻繁，請 %d 秒後再試",
		"error.bad_request":            "請求參數錯誤",
		"error.unauthorized":           "未登入或登入已失效",
		"error.forbidden":              "無權存取",
		"error.too_many_requests":      "請求過於頻繁，請稍後再試",
		"error.internal":               "伺服器內部錯誤",
		"error.user_id_invalid":        "使用者ID無效",
		"error.user_id_type_invalid":   "使用者ID類型錯誤",
		"error.coupon_id_invalid":      "優惠券ID無效",
		"error.order_amount_invalid":   "訂單金額無效",
		"error.order_id_invalid":       "訂單ID無效",
		"error.coupon_not_found":       "優惠券不存在",
		"error.user_coupon_not_found":  "找不到該領取紀錄",
		"error.coupon_inactive":        "優惠券已停用",
		"error.coupon_not_started":     "優惠券尚未開始領取",
		"error.coupon_expired":         "優惠券已過期",
		"error.user_coupon_expired":    "已領取的優惠券已過期",
		"error.coupon_exhausted":       "優惠券已領完",
		"error.coupon_already_claimed": "您已領取過該優惠券",
		"error.coupon_not_usable":      "優惠券不適用於目前訂單",
		"error.invalid_argument":       "參數不合法",
		"error.store_unavailable":      "服務繁忙，請稍後重試",
		"error.coupon_list_failed":     "取得優惠券列表失敗",
		"error.coupon_claim_failed":    "領取優惠券失敗",
		"error.coupon_consume_failed":  "核銷優惠券失敗",
	},
	LocaleEnUS: {
		"error.jwt_secret_missing":     "Authentication is not configured",
		"error.auth_header_missing":    "Missing Authorization header",
		"error.auth_header_invalid":    "Malformed Authorization header",
		"error.token_invalid":          "Token is invalid or expired",
		"error.rate_limit_unavailable": "Rate limiter unavailable",
		"error.claim_too_many":         "Too many claim attempts, retry in %d seconds",
		"error.bad_request":            "Invalid request parameters",
		"error.unauthorized":           "Not logged in or session expired",
		"error.forbidden":              "Access denied",
		"error.too_many_requests":      "Too many requests, please try again later",
		"error.internal":               "Internal server error",
		"error.user_id_invalid":        "Invalid user id",
		"error.user_id_type_invalid":   "Invalid user id type",
		"error.coupon_id_invalid":      "Invalid coupon id",
		"error.order_amount_invalid":   "Invalid order amount",
		"error.order_id_invalid":       "Invalid order id",
		"error.coupon_not_found":       "Coupon not found",
		"error.user_coupon_not_found":  "Claimed coupon not found",
		"error.coupon_inactive":        "Coupon is inactive",
		"error.coupon_not_started":     "Coupon is not yet claimable",
		"error.coupon_expired":         "Coupon has expired",
		"error.user_coupon_expired":    "Your coupon has expired",
		"error.coupon_exhausted":       "Coupon is fully claimed",
		"error.coupon_already_claimed": "You have already claimed this coupon",
		"error.coupon_not_usable":      "Coupon cannot be used for this order",
		"error.invalid_argument":       "Invalid argument",
		"error.store_unavailable":      "Service busy, please retry",
		"error.coupon_list_failed":     "Failed to list coupons",
		"error.coupon_claim_failed":    "Failed to claim coupon",
		"error.coupon_consume_failed":  "Failed to consume coupon",
	},
}
