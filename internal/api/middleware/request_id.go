package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestIDMaxLen 限制外部传入的 Request-ID 长度，超长一律重新生成，防止日志注入
const requestIDMaxLen = 64

// RequestID 请求追踪中间件
// 沿用调用方传入的 X-Request-ID，缺失或超长时生成 UUID，
// 注入 gin.Context 供日志关联并回写响应头

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}
