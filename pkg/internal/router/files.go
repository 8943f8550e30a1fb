package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterFileRoutes 注册文件操作相关路由.
func RegisterFileRoutes(g *gin.RouterGroup) {
	userRoutes := g.Group("/user")
	{
		// 上传文件（multipart 表单）
		userRoutes.POST("/upload", handle.UploadFile)
		// 文件列表，支持 filename/query 过滤
		userRoutes.GET("/files", handle.ListFiles)
		// 搜索文件名与AI分析内容
		userRoutes.GET("/search", handle.SearchFiles)
		// 删除文件
		userRoutes.DELETE("/delete/:filename", handle.DeleteFile)
		// 强制重签预签名 URL
		userRoutes.POST("/refresh-urls/:filename", handle.RefreshFileURLs)
	}
}

// RegisterAnalysisRoutes 注册AI分析相关路由.
func RegisterAnalysisRoutes(g *gin.RouterGroup) {
	g.POST("/analyze/:filename", handle.AnalyzeFile)
}
