package queue

import (
	"encoding/json"

	"github.com/lingqian-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponCatalogRefresh 可领取目录快照刷新任务
	TaskCouponCatalogRefresh = constants.TaskCouponCatalogRefresh
)

// CouponCatalogRefreshPayload 目录刷新任务载荷
type CouponCatalogRefreshPayload struct {
	// CouponID 触发刷新的优惠券，仅用于日志
	CouponID uint `json:"coupon_id"`
}

// NewCouponCatalogRefreshTask 创建目录刷新任务
func NewCouponCatalogRefreshTask(payload CouponCatalogRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponCatalogRefresh, body), nil
}

// ParseCouponCatalogRefreshPayload 解析目录刷新任务载荷
func ParseCouponCatalogRefreshPayload(task *asynq.Task) (CouponCatalogRefreshPayload, error) {
	var payload CouponCatalogRefreshPayload
	if task == nil || len(task.Payload()) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
