package handle

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/scanner"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
)

// UploadFile 接收 multipart 文件，同步扫描后写入主存储并排队后台任务.
//
//	@Summary		上传文件
//	@Description	接收 multipart 表单文件，做在线病毒扫描后写入主存储；干净文件异步同步到备存储并排队AI分析
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file						true	"待上传文件"
//	@Success		200		{object}	types.UploadFileResponse	"上传结果"
//	@Failure		400		{object}	map[string]string			"请求参数错误"
//	@Failure		409		{object}	map[string]string			"同名文件已存在"
//	@Failure		503		{object}	map[string]string			"扫描器或存储不可用"
//	@Router			/user/upload [post]
func UploadFile(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		l.Warn().Err(err).Msg("missing or invalid user")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})

		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn().Err(err).Msg("no file part in request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})

		return
	}

	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}

	maxBytes := configs.GetConfig().Server.GetMaxUploadBytes()
	if fh.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		l.Error().Err(err).Msg("open uploaded file failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})

		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		l.Error().Err(err).Msg("read uploaded file failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})

		return
	}

	if int64(len(data)) > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.Upload(c.Request.Context(), user, fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "file with this name already exists"})
		case errors.Is(err, scanner.ErrUnavailable):
			l.Error().Err(err).Msg("virus scanner unavailable, upload rejected")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "virus scanning unavailable, upload rejected"})
		case errors.Is(err, service.ErrStoreUnavailable):
			l.Error().Err(err).Msg("primary store unavailable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		default:
			l.Error().Err(err).Str("filename", fh.Filename).Msg("upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}

		return
	}

	metrics.UploadCounter.WithLabelValues(resp.ScanStatus).Inc()

	c.JSON(http.StatusOK, resp)
}

// DeleteFile 删除文件：先删主存储，再删数据库与备存储.
//
//	@Summary		删除文件
//	@Tags			文件
//	@Produce		json
//	@Param			filename	path		string					true	"文件名"
//	@Success		200			{object}	types.DeleteFileResponse	"删除结果"
//	@Failure		404			{object}	map[string]string		"文件不存在"
//	@Failure		503			{object}	map[string]string		"主存储不可用"
//	@Router			/user/delete/{filename} [delete]
func DeleteFile(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	filename := c.Param("filename")

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.DeleteFile(c.Request.Context(), user, filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case errors.Is(err, service.ErrStoreUnavailable):
			l.Error().Err(err).Str("filename", filename).Msg("primary delete failed, aborting")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable, file not deleted"})
		default:
			l.Error().Err(err).Str("filename", filename).Msg("delete failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}

		return
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshFileURLs 强制重签文件的全部预签名 URL.
//
//	@Summary		刷新预签名URL
//	@Tags			文件
//	@Produce		json
//	@Param			filename	path		string						true	"文件名"
//	@Success		200			{object}	types.RefreshURLsResponse	"刷新后的URL"
//	@Failure		404			{object}	map[string]string			"文件不存在"
//	@Router			/user/refresh-urls/{filename} [post]
func RefreshFileURLs(c *gin.Context) {
	l := log.Logger()

	user, err := checkUser(c)
	if user == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	filename := c.Param("filename")

	svc := service.NewFileService(c.Request.Context())

	resp, err := svc.RefreshURLs(c.Request.Context(), user, filename)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}

		l.Error().Err(err).Str("filename", filename).Msg("refresh urls failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	c.JSON(http.StatusOK, resp)
}
