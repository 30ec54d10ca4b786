package shared

import (
	"github.com/lingqian-next/internal/http/response"
	"github.com/lingqian-next/internal/i18n"
	"github.com/lingqian-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应。
// 仅 5xx 记录 error 级日志，业务拒绝（已领完、已领取等）属于正常结果只记 debug。
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	appErr := response.WrapError(code, key, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", "code", appErr.Code, "message_key", appErr.MessageKey, "error", err)
		} else {
			log.Debugw("handler_rejected", "code", appErr.Code, "message_key", appErr.MessageKey, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
