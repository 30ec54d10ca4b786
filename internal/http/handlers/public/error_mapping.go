package public

import (
	"errors"

	"github.com/lingqian-next/internal/http/response"
	"github.com/lingqian-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, err)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// 每种失败原因对应独立的文案 key，客户端可据此区分展示
var couponErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidArgument, code: response.CodeBadRequest, key: "error.invalid_argument"},
	{target: service.ErrCouponNotFound, code: response.CodeNotFound, key: "error.coupon_not_found"},
	{target: service.ErrUserCouponNotFound, code: response.CodeNotFound, key: "error.user_coupon_not_found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, key: "error.coupon_inactive"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, key: "error.coupon_not_started"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, key: "error.coupon_expired"},
	{target: service.ErrUserCouponExpired, code: response.CodeBadRequest, key: "error.user_coupon_expired"},
	{target: service.ErrCouponExhausted, code: response.CodeConflict, key: "error.coupon_exhausted"},
	{target: service.ErrCouponAlreadyClaimed, code: response.CodeConflict, key: "error.coupon_already_claimed"},
	{target: service.ErrCouponNotUsable, code: response.CodeBadRequest, key: "error.coupon_not_usable"},
	{target: service.ErrStoreUnavailable, code: response.CodeServiceUnavailable, key: "error.store_unavailable"},
}

func respondCouponListError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "error.coupon_list_failed")
}

func respondCouponClaimError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "error.coupon_claim_failed")
}

func respondCouponConsumeError(c *gin.Context, err error) {
	respondWithMappedError(c, err, couponErrorRules, response.CodeInternal, "error.coupon_consume_failed")
}
