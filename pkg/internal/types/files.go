// Package types 定义 HTTP 层请求/响应结构，字段名即 UI 依赖的线上契约，不可随意更名.
package types

import (
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// FileInfo 文件元数据的对外视图.
type FileInfo struct {
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Status      string `json:"status"`
	UserID      string `json:"user_id"`

	MinioPreviewURL  string `json:"minio_preview_url"`
	MinioDownloadURL string `json:"minio_download_url"`
	S3PreviewURL     string `json:"s3_preview_url,omitempty"`
	S3DownloadURL    string `json:"s3_download_url,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	MinioUploadedAt time.Time  `json:"minio_uploaded_at"`
	S3SyncedAt      *time.Time `json:"s3_synced_at,omitempty"`
	LastUpdated     time.Time  `json:"last_updated"`

	ScanStatus string `json:"scan_status"`
	VirusName  string `json:"virus_name,omitempty"`

	AIAnalysisStatus      string                `json:"ai_analysis_status"`
	AIAnalysis            *model.AnalysisResult `json:"ai_analysis,omitempty"`
	AIAnalysisCompletedAt *time.Time            `json:"ai_analysis_completed_at,omitempty"`
	AIError               string                `json:"ai_error,omitempty"`
}

// NewFileInfo 从存储模型构造对外视图.
func NewFileInfo(r *model.FileRecord) FileInfo {
	info := FileInfo{
		Filename:    r.Filename,
		Size:        r.Size,
		ContentType: r.ContentType,
		Status:      string(r.Status),
		UserID:      r.OwnerID,

		MinioPreviewURL:  r.MinioPreviewURL,
		MinioDownloadURL: r.MinioDownloadURL,
		S3PreviewURL:     r.S3PreviewURL,
		S3DownloadURL:    r.S3DownloadURL,

		CreatedAt:       r.CreatedAt,
		MinioUploadedAt: r.CreatedAt,
		S3SyncedAt:      r.S3SyncedAt,
		LastUpdated:     r.UpdatedAt,

		ScanStatus: string(r.ScanStatus),
		VirusName:  r.VirusName,

		AIAnalysisStatus:      string(r.AnalysisStatus),
		AIAnalysisCompletedAt: r.AnalysisCompletedAt,
		AIError:               r.AIError,
	}

	// 解析失败时保持 ai_analysis 为空，不中断列表渲染
	if analysis, err := r.Analysis(); err == nil {
		info.AIAnalysis = analysis
	}

	return info
}

// NewFileInfoList 批量转换.
func NewFileInfoList(records []model.FileRecord) []FileInfo {
	out := make([]FileInfo, 0, len(records))
	for i := range records {
		out = append(out, NewFileInfo(&records[i]))
	}

	return out
}

// UploadFileResponse 上传结果.
type UploadFileResponse struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"`
	ScanStatus       string `json:"scan_status"`
	VirusName        string `json:"virus_name,omitempty"`
	AIAnalysisQueued bool   `json:"ai_analysis_queued"`
	Message          string `json:"message,omitempty"`
}

// RefreshURLsResponse 刷新预签名 URL 的结果.
type RefreshURLsResponse struct {
	Message          string `json:"message"`
	MinioPreviewURL  string `json:"minio_preview_url"`
	MinioDownloadURL string `json:"minio_download_url"`
	S3PreviewURL     string `json:"s3_preview_url,omitempty"`
	S3DownloadURL    string `json:"s3_download_url,omitempty"`
}

// DeleteFileResponse 删除结果.
type DeleteFileResponse struct {
	Message string `json:"message"`
}

// SearchFilesResponse 搜索结果.
type SearchFilesResponse struct {
	Results []FileInfo `json:"results"`
	Count   int        `json:"count"`
	Query   string     `json:"query"`
}
