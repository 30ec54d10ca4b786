package router

import (
	"fmt"
	"strings"

	"github.com/lingqian-next/internal/http/response"
	"github.com/lingqian-next/internal/i18n"
	"github.com/lingqian-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则，超限后封禁 BlockSeconds 秒
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	BlockSeconds  int
	MessageKey    string
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// KEYS[1] 计数 key，KEYS[2] 封禁 key
// ARGV[1] 窗口秒数，ARGV[2] 最大次数，ARGV[3] 封禁秒数
// 返回 {是否放行, 需等待秒数}
var rateLimitScript = redis.NewScript(`
local blocked = redis.call("TTL", KEYS[2])
if blocked > 0 then
	return {0, blocked}
end
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
	local block = tonumber(ARGV[3])
	if block > 0 then
		redis.call("SET", KEYS[2], 1, "EX", block)
		return {0, block}
	end
	return {0, redis.call("TTL", KEYS[1])}
end
return {1, 0}
`)

// RateLimitMiddleware Redis 频率限制中间件。
// Redis 不可用时放行：限流只保护热点，领取的正确性由数据库保证。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if rule.Prefix != "" {
			key = fmt.Sprintf("%s:%s", rule.Prefix, key)
		}

		result, err := rateLimitScript.Run(c.Request.Context(), client,
			[]string{key, key + ":blocked"},
			rule.WindowSeconds, rule.MaxRequests, rule.BlockSeconds,
		).Result()
		if err != nil {
			logger.Warnw("rate_limit_check_failed", "key", key, "error", err)
			c.Next()
			return
		}

		allowed, waitSeconds, ok := parseRateLimitResult(result)
		if !ok {
			logger.Warnw("rate_limit_result_invalid", "key", key, "result", result)
			c.Next()
			return
		}
		if !allowed {
			if waitSeconds < 1 {
				waitSeconds = int64(rule.WindowSeconds)
			}
			msgKey := strings.TrimSpace(rule.MessageKey)
			if msgKey == "" {
				msgKey = "error.too_many_requests"
			}
			msg := i18n.Sprintf(i18n.ResolveLocale(c), msgKey, waitSeconds)
			response.Error(c, response.CodeTooManyRequests, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByUserID 已登录用户按用户限流，未登录回退到 IP
func KeyByUserID(c *gin.Context) string {
	if value, ok := c.Get(userIDKey); ok {
		if userID, ok := value.(uint); ok && userID > 0 {
			return fmt.Sprintf("user:%d", userID)
		}
	}
	return KeyByIP(c)
}

func parseRateLimitResult(result interface{}) (bool, int64, bool) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, false
	}
	allowed, ok := toInt64(values[0])
	if !ok {
		return false, 0, false
	}
	wait, _ := toInt64(values[1])
	return allowed == 1, wait, true
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
