package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextRequestID 请求追踪 ID 上下文键
const ContextRequestID = "request_id"

// requestIDMaxLen 外部传入 X-Request-ID 的最大长度
const requestIDMaxLen = 64

// RequestID 请求追踪 ID 中间件
// 沿用合法的 X-Request-ID 请求头，否则生成 UUID，并回写到响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.NewString()
		}

		c.Set(ContextRequestID, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}
