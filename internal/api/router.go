package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/taxi-analytics-go/internal/config"
	"github.com/jengzang/taxi-analytics-go/internal/handler"
	"github.com/jengzang/taxi-analytics-go/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, dashboard *handler.DashboardHandler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.RequestIDHeader+", Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", dashboard.Health)

	// API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/filters/options", dashboard.GetFilterOptions)
		api.GET("/dashboard", dashboard.GetDashboard)
		api.GET("/charts/:name", dashboard.GetChart)

		trips := api.Group("/trips")
		{
			trips.GET("/export", middleware.RateLimit(cfg.Server.ExportLimit, cfg.Server.ExportWindow), dashboard.ExportTrips)
		}
	}

	return r
}
