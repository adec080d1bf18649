package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/limiter"
)

// IPBlock 返回一个 Gin 中间件，按 (客户端 IP, 路由) 维度限流。
// 取不到客户端 IP 时放行并记告警，这是唯一的 fail-open 路径；
// 计数存储故障按服务端错误处理。
func IPBlock(blocker *limiter.IPBlocker) gin.HandlerFunc {
	if blocker == nil {
		panic("IPBlocker cannot be nil for IPBlock middleware")
	}

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			logrus.WithField("path", c.FullPath()).Warn("IPBlock middleware: client IP unavailable, skipping")
			c.Next()
			return
		}

		err := blocker.Allow(c.Request.Context(), ip, c.FullPath())
		if err != nil {
			if errors.Is(err, limiter.ErrBlocked) {
				logrus.WithFields(logrus.Fields{"ip": ip, "path": c.FullPath()}).
					Warn("IPBlock middleware: request blocked")
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
				c.Abort()
				return
			}
			logrus.WithError(err).Error("IPBlock middleware: counter store failure")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}

		c.Next()
	}
}
