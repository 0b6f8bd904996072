package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TheLakshitha/LayoutIndex-Assessment/config"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/api/handler"
	"github.com/TheLakshitha/LayoutIndex-Assessment/internal/api/middleware"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/metrics"
	"github.com/TheLakshitha/LayoutIndex-Assessment/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时写接口不限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store.Driver})
	})

	// ── Prometheus ──
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	// 写接口限流
	var limited []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limited = append(limited, middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
	}
	write := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, limited...), fn)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 地点模块
		locations := v1.Group("/locations")
		{
			locations.GET("", h.Location.ListLocations)
			locations.GET("/:id", h.Location.GetLocation)
			locations.POST("", write(h.Location.CreateLocation)...)
			locations.PATCH("/:id", write(h.Location.UpdateLocation)...)
			locations.DELETE("/:id", write(h.Location.DeleteLocation)...)
		}

		// 导出模块
		exports := v1.Group("/exports")
		{
			exports.GET("/inventory", h.Export.ExportInventory)
		}
	}

	return r
}
