package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/redis"
	"github.com/DeadshotOMEGA/sentinel-sub002/pkg/response"
)

// RateLimit 基于 Redis 固定窗口计数的速率限制中间件
// 已认证请求按用户计数，否则按客户端 IP；rdb 为 nil 时不限流
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := c.GetString(ContextUserID)
		if subject == "" {
			subject = c.ClientIP()
		}

		key := fmt.Sprintf("rate_limit:%s:%s", subject, c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
