package handle

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
)

// ListFiles 列出用户的文件，支持 filename/keyword 过滤.
//
//	@Summary		列出用户文件
//	@Description	返回用户全部文件的元数据与预签名URL，支持 filename 子串过滤与 keyword（AI关键词）过滤
//	@Tags			文件查询
//	@Produce		json
//	@Param			filename	query		string				false	"按文件名过滤"
//	@Param			keyword		query		string				false	"按AI分析关键词过滤"
//	@Success		200			{array}		types.FileInfo		"文件列表"
//	@Failure		400			{object}	map[string]string	"请求参数错误"
//	@Failure		500			{object}	map[string]string	"服务器内部错误"
//	@Router			/user/files [get]
func ListFiles(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	filenameFilter := strings.TrimSpace(c.Query("filename"))
	keywordFilter := strings.TrimSpace(c.Query("keyword"))

	svc := service.NewFileService(c.Request.Context())

	items, err := svc.ListFiles(c.Request.Context(), user, filenameFilter, keywordFilter)
	if err != nil {
		l.Error().Err(err).Msg("list files failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, items)
}

// SearchFiles 搜索文件：匹配文件名与AI分析的摘要、描述、关键词.
//
//	@Summary		搜索文件
//	@Tags			文件查询
//	@Produce		json
//	@Param			q	query		string						true	"搜索关键字"
//	@Success		200		{object}	types.SearchFilesResponse	"搜索结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Failure		500		{object}	map[string]string			"服务器内部错误"
//	@Router			/user/search [get]
func SearchFiles(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	svc := service.NewFileService(c.Request.Context())

	res, err := svc.SearchFiles(c.Request.Context(), user, query)
	if err != nil {
		l.Error().Err(err).Msg("search files failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, res)
}
