package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterHealthCheckRoute 注册健康检查路由.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Health)

	healthRoutes := g.Group("/health")
	{
		healthRoutes.GET("/db", handle.HealthDB)
		healthRoutes.GET("/primary", handle.HealthPrimary)
		healthRoutes.GET("/secondary", handle.HealthSecondary)
		healthRoutes.GET("/scanner", handle.HealthScanner)
		healthRoutes.GET("/mq", handle.HealthMQ)
	}
}
