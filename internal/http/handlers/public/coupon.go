package public

import (
	"strings"
	"time"

	handlershared "github.com/lingqian-next/internal/http/handlers/shared"
	"github.com/lingqian-next/internal/http/response"
	"github.com/lingqian-next/internal/models"
	"github.com/lingqian-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ClaimCouponResponse 领取结果
type ClaimCouponResponse struct {
	Grant *models.UserCoupon `json:"grant"`
}

// ConsumeCouponRequest 核销请求
type ConsumeCouponRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// GetPublicCoupons 匿名浏览当前可领取的优惠券
func (h *Handler) GetPublicCoupons(c *gin.Context) {
	items, err := h.CouponEligibilityService.ListClaimable(c.Request.Context(), h.Now(), optionalUserID(c))
	if err != nil {
		respondCouponListError(c, err)
		return
	}
	response.Success(c, items)
}

// GetClaimableCoupons 当前用户可领取的优惠券（标记是否已领取）
func (h *Handler) GetClaimableCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	items, err := h.CouponEligibilityService.ListClaimable(c.Request.Context(), h.Now(), userID)
	if err != nil {
		respondCouponListError(c, err)
		return
	}
	response.Success(c, items)
}

// ClaimCoupon 领取优惠券
func (h *Handler) ClaimCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	couponID, ok := handlershared.ParseUintParam(c, "id", "error.coupon_id_invalid")
	if !ok {
		return
	}
	grant, err := h.CouponRedemptionService.Claim(c.Request.Context(), userID, couponID, h.Now())
	if err != nil {
		respondCouponClaimError(c, err)
		return
	}
	response.Success(c, ClaimCouponResponse{Grant: grant})
}

// GetMyCoupons 我的优惠券（分页，可按状态筛选）
func (h *Handler) GetMyCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	grants, total, err := h.CouponEligibilityService.ListUserCoupons(c.Request.Context(), service.UserCouponQuery{
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
		Now:      h.Now(),
	})
	if err != nil {
		respondCouponListError(c, err)
		return
	}
	response.SuccessWithPage(c, grants, response.NewPagination(page, pageSize, total))
}

// GetMyUsableCoupons 指定订单金额（及品类）下可用的优惠券，按优惠额降序
func (h *Handler) GetMyUsableCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	query, ok := bindUsableQuery(c, userID, h.Now())
	if !ok {
		return
	}
	items, err := h.CouponEligibilityService.ListUsable(c.Request.Context(), query)
	if err != nil {
		respondCouponListError(c, err)
		return
	}
	response.Success(c, items)
}

// QuoteMyCoupon 结算前校验单张券并返回优惠额
func (h *Handler) QuoteMyCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	grantID, ok := handlershared.ParseUintParam(c, "id", "error.coupon_id_invalid")
	if !ok {
		return
	}
	query, ok := bindUsableQuery(c, userID, h.Now())
	if !ok {
		return
	}
	quote, err := h.CouponEligibilityService.QuoteGrant(c.Request.Context(), grantID, query)
	if err != nil {
		respondCouponListError(c, err)
		return
	}
	response.Success(c, quote)
}

// ConsumeMyCoupon 订单使用优惠券
func (h *Handler) ConsumeMyCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	grantID, ok := handlershared.ParseUintParam(c, "id", "error.coupon_id_invalid")
	if !ok {
		return
	}
	var req ConsumeCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.order_id_invalid", nil)
		return
	}
	if err := h.CouponRedemptionService.Consume(c.Request.Context(), userID, grantID, req.OrderID, h.Now()); err != nil {
		respondCouponConsumeError(c, err)
		return
	}
	response.Success(c, gin.H{"id": grantID, "order_id": req.OrderID})
}

func bindUsableQuery(c *gin.Context, userID uint, now time.Time) (service.UsableQuery, bool) {
	amount, err := models.NewMoney(strings.TrimSpace(c.Query("order_amount")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.order_amount_invalid", nil)
		return service.UsableQuery{}, false
	}
	return service.UsableQuery{
		UserID:      userID,
		OrderAmount: amount,
		Category:    c.Query("category"),
		Now:         now,
	}, true
}
