// Package router 管理路由配置，用于设置HTTP服务的路由规则.
package router

import (
	"github.com/gin-gonic/gin"
)

// Options 由应用层注入的路由选项.
type Options struct {
	// AnalyticsCache 统计类接口的响应缓存中间件，nil 时不启用缓存.
	AnalyticsCache gin.HandlerFunc
}

// Register 将全部业务路由绑定到 gin 引擎.
// 绑定的路径：
//
//	POST   /user/upload                     -> 上传文件
//	GET    /user/files                      -> 文件列表
//	GET    /user/search                     -> 搜索
//	DELETE /user/delete/:filename           -> 删除文件
//	POST   /user/refresh-urls/:filename     -> 刷新预签名URL
//	GET    /user/analytics/*                -> 统计
//	POST   /analyze/:filename               -> 触发AI分析
//	GET    /health[/...]                    -> 健康检查
func Register(e *gin.Engine, opts Options) {
	root := e.Group("")

	RegisterFileRoutes(root)
	RegisterAnalysisRoutes(root)
	RegisterStatsRoutes(root, opts.AnalyticsCache)
	RegisterHealthCheckRoute(root)
	RegisterSchedulerRoutes(root)
	RegisterSwaggerRoute(e)
}
