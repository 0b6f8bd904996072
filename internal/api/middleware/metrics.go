package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/metrics"
)

// Metrics 记录请求数与耗时，未匹配路由统一记为 unmatched 以控制标签基数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
