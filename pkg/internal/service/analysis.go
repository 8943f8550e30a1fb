package service

import (
	"context"
	"fmt"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// RequestAnalysis 触发（或重新触发）AI 分析，异步执行.
// 并发触发去重：已处于 pending 的记录不会再次入队.
// 感染文件允许分析，取证场景下了解文件内容同样有价值.
func (fs *FileService) RequestAnalysis(ctx context.Context, owner, filename string) (*types.AnalyzeFileResponse, error) {
	record, err := fs.getRecord(ctx, owner, filename)
	if err != nil {
		return nil, err
	}

	analysis, _ := record.Analysis()

	if record.AnalysisStatus == model.AnalysisPending {
		return &types.AnalyzeFileResponse{
			Message:          fmt.Sprintf("AI analysis already pending for %s", filename),
			Filename:         filename,
			AIAnalysisStatus: string(model.AnalysisPending),
			Analysis:         analysis,
		}, nil
	}

	// compare-and-set 防止并发触发重复入队，输掉竞争说明别人刚刚入队
	hit, err := fs.casAnalysisStatus(ctx, owner, filename, record.AnalysisStatus, map[string]any{
		"ai_analysis_status": model.AnalysisPending,
		"ai_error":           "",
	})
	if err != nil {
		return nil, err
	}

	if hit {
		fs.publishAnalysisRequested(record)
	}

	return &types.AnalyzeFileResponse{
		Message:          fmt.Sprintf("AI analysis queued for %s", filename),
		Filename:         filename,
		AIAnalysisStatus: string(model.AnalysisPending),
		Analysis:         analysis,
	}, nil
}
