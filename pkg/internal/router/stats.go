package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterStatsRoutes 注册统计相关路由. cacheMW 非 nil 时对统计接口启用响应缓存.
func RegisterStatsRoutes(g *gin.RouterGroup, cacheMW gin.HandlerFunc) {
	statsRoutes := g.Group("/user/analytics")

	if cacheMW != nil {
		statsRoutes.Use(cacheMW)
	}

	{
		statsRoutes.GET("/storage", handle.GetStorageAnalytics)   // 存储占用统计
		statsRoutes.GET("/uploads", handle.GetUploadsAnalytics)   // 上传趋势统计
		statsRoutes.GET("/tags", handle.GetTagsAnalytics)         // AI关键词统计
		statsRoutes.GET("/activity", handle.GetActivityAnalytics) // 活动事件统计
	}
}
