package types

import "github.com/yeisme/filevault/pkg/internal/model"

// AnalyzeFileResponse 触发分析的结果.
// 已入队时返回 202 风格响应，已完成时直接带出现有结果.
type AnalyzeFileResponse struct {
	Message          string                `json:"message"`
	Filename         string                `json:"filename"`
	AIAnalysisStatus string                `json:"ai_analysis_status"`
	Analysis         *model.AnalysisResult `json:"analysis,omitempty"`
}
