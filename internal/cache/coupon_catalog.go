package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lingqian-next/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	couponCatalogKey           = "coupon:catalog:open"
	couponCatalogGenerationKey = "coupon:catalog:generation"
)

// KEYS[1] 版本 key，KEYS[2] 快照 key
// ARGV[1] 读库前记录的版本，ARGV[2] 快照，ARGV[3] 过期毫秒
// 版本已变化时放弃写入，返回 0
var catalogSetScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current ~= tonumber(ARGV[1]) then
	return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// CouponCatalogSnapshot 可领取目录快照（仅作展示加速，领取以数据库为准）
type CouponCatalogSnapshot struct {
	Coupons    []models.Coupon `json:"coupons"`
	LoadedAt   time.Time       `json:"loaded_at"`
	Generation int64           `json:"generation"`
}

// RedisCouponCatalog 基于 Redis 的优惠券目录缓存。
// 每次失效递增版本号，读库前记录的版本与写入时不一致的快照会被丢弃。
type RedisCouponCatalog struct{}

// NewRedisCouponCatalog 创建目录缓存
func NewRedisCouponCatalog() *RedisCouponCatalog {
	return &RedisCouponCatalog{}
}

// Enabled 缓存是否可用
func (RedisCouponCatalog) Enabled() bool {
	return Enabled()
}

// Get 读取目录快照
func (RedisCouponCatalog) Get(ctx context.Context) (*CouponCatalogSnapshot, bool, error) {
	var snapshot CouponCatalogSnapshot
	hit, err := GetJSON(ctx, couponCatalogKey, &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// Generation 当前目录版本，从未失效过时为 0
func (RedisCouponCatalog) Generation(ctx context.Context) (int64, error) {
	if !Enabled() {
		return 0, nil
	}
	gen, err := redisClient.Get(ctx, BuildKey(couponCatalogGenerationKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfGeneration 版本未变化时写入快照，返回是否写入
func (RedisCouponCatalog) SetIfGeneration(ctx context.Context, snapshot *CouponCatalogSnapshot, ttl time.Duration, generation int64) (bool, error) {
	if !Enabled() || snapshot == nil || ttl <= 0 {
		return false, nil
	}
	snapshot.Generation = generation
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return false, err
	}
	stored, err := catalogSetScript.Run(ctx, redisClient,
		[]string{BuildKey(couponCatalogGenerationKey), BuildKey(couponCatalogKey)},
		generation, payload, ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate 递增版本并删除快照
func (RedisCouponCatalog) Invalidate(ctx context.Context) error {
	if !Enabled() {
		return nil
	}
	pipe := redisClient.TxPipeline()
	pipe.Incr(ctx, BuildKey(couponCatalogGenerationKey))
	pipe.Del(ctx, BuildKey(couponCatalogKey))
	_, err := pipe.Exec(ctx)
	return err
}
