package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileStatus 文件生命周期状态.
// 干净文件单调推进 minio → uploaded-to-s3；感染状态为终态，永不签发备存储URL.
type FileStatus string

const (
	// StatusMinio 仅主存储持有.
	StatusMinio FileStatus = "minio"
	// StatusUploadedToS3 已复制到备存储.
	StatusUploadedToS3 FileStatus = "uploaded-to-s3"
	// StatusInfected 复制前重扫发现感染，终态.
	StatusInfected FileStatus = "infected"
	// StatusInfectedSkip 摄取时即发现感染，复制从未开始，终态.
	StatusInfectedSkip FileStatus = "infected-skip"
)

// IsInfected 判断是否为感染终态.
func (s FileStatus) IsInfected() bool {
	return s == StatusInfected || s == StatusInfectedSkip
}

// ScanStatus 病毒扫描结果.
type ScanStatus string

const (
	ScanPending  ScanStatus = "pending"
	ScanClean    ScanStatus = "clean"
	ScanInfected ScanStatus = "infected"
	ScanError    ScanStatus = "error"
)

// AnalysisStatus AI 分析状态.
type AnalysisStatus string

const (
	AnalysisNone      AnalysisStatus = "none"
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// FileRecord 文件元数据模型，owner + filename 唯一.
type FileRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// 用户标识，和文件名一起唯一
	OwnerID string `gorm:"size:255;index:idx_owner_file,unique;index" json:"owner_id"`
	// 文件名，owner 命名空间内唯一，也是 analyze/delete/refresh 的路由键
	Filename    string     `gorm:"size:512;index:idx_owner_file,unique;index" json:"filename"`
	Size        int64      `json:"size"`
	ContentType string     `gorm:"size:255"          json:"content_type"`
	Status      FileStatus `gorm:"size:32;index"     json:"status"`
	ScanStatus  ScanStatus `gorm:"size:16"           json:"scan_status"`
	VirusName   string     `gorm:"size:255"          json:"virus_name,omitempty"`

	// 预签名URL及其签发时间，年龄超过阈值视为过期
	MinioPreviewURL  string    `gorm:"type:text" json:"minio_preview_url"`
	MinioDownloadURL string    `gorm:"type:text" json:"minio_download_url"`
	S3PreviewURL     string    `gorm:"type:text" json:"s3_preview_url"`
	S3DownloadURL    string    `gorm:"type:text" json:"s3_download_url"`
	URLsIssuedAt     time.Time `gorm:"index"     json:"urls_issued_at"`

	// AI 分析结果以 JSON 文本存储，结构见 AnalysisResult
	AnalysisStatus      AnalysisStatus `gorm:"size:16;index" json:"ai_analysis_status"`
	AnalysisJSON        string         `gorm:"type:text"     json:"-"`
	AnalysisCompletedAt *time.Time     `json:"ai_analysis_completed_at,omitempty"`
	AIError             string         `gorm:"type:text"     json:"ai_error,omitempty"`

	// 备存储同步诊断信息，仅用于排障与指标，从不返回给客户端
	SyncError    string `gorm:"type:text" json:"-"`
	SyncAttempts int    `json:"-"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"-"`
	S3SyncedAt *time.Time `json:"s3_synced_at,omitempty"`
}

// AnalysisResult AI 分析的结构化结果.
type AnalysisResult struct {
	Summary      string   `json:"summary"`
	Caption      string   `json:"caption"`
	Keywords     []string `json:"keywords"`
	AnalysisDate string   `json:"analysis_date"`
	ModelUsed    string   `json:"model_used,omitempty"`
}

// Analysis 反序列化分析结果，未分析时返回 nil.
func (f *FileRecord) Analysis() (*AnalysisResult, error) {
	if f.AnalysisJSON == "" {
		return nil, nil
	}

	var r AnalysisResult
	if err := json.Unmarshal([]byte(f.AnalysisJSON), &r); err != nil {
		return nil, fmt.Errorf("unmarshal analysis: %w", err)
	}

	return &r, nil
}

// SetAnalysis 序列化分析结果写入记录.
func (f *FileRecord) SetAnalysis(r *AnalysisResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	f.AnalysisJSON = string(b)

	return nil
}
