package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
)

// AnalyzeFile 手动触发（或重新触发）文件的AI分析.
//
//	@Summary		触发AI分析
//	@Description	将文件重新排入AI分析队列；若已有分析在途则直接返回当前状态
//	@Tags			AI分析
//	@Produce		json
//	@Param			filename	path		string						true	"文件名"
//	@Success		202			{object}	types.AnalyzeFileResponse	"已排队"
//	@Failure		404			{object}	map[string]string			"文件不存在"
//	@Failure		500			{object}	map[string]string			"服务器内部错误"
//	@Router			/analyze/{filename} [post]
func AnalyzeFile(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	filename := c.Param("filename")

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.RequestAnalysis(c.Request.Context(), user, filename)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		l.Error().Err(err).Str("filename", filename).Msg("request analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusAccepted, resp)
}
