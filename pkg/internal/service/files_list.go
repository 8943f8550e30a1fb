package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// ListFiles 返回用户全部文件，可选按文件名/关键词过滤.
// 读路径保证 URL 新鲜（见 EnsureFreshURLs）.
func (fs *FileService) ListFiles(ctx context.Context, owner, filenameFilter, keywordFilter string) ([]types.FileInfo, error) {
	records, err := fs.listRecords(ctx, owner)
	if err != nil {
		return nil, err
	}

	filenameFilter = strings.ToLower(strings.TrimSpace(filenameFilter))
	keywordFilter = strings.ToLower(strings.TrimSpace(keywordFilter))

	out := make([]types.FileInfo, 0, len(records))

	for i := range records {
		r := &records[i]

		if filenameFilter != "" && !strings.Contains(strings.ToLower(r.Filename), filenameFilter) {
			continue
		}

		if keywordFilter != "" && !matchKeyword(r, keywordFilter) {
			continue
		}

		fs.freshen(ctx, r)
		out = append(out, types.NewFileInfo(r))
	}

	return out, nil
}

// SearchFiles 按文件名、关键词、摘要或标题匹配.
func (fs *FileService) SearchFiles(ctx context.Context, owner, query string) (*types.SearchFilesResponse, error) {
	records, err := fs.listRecords(ctx, owner)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))

	results := make([]types.FileInfo, 0, len(records))

	for i := range records {
		r := &records[i]

		if q != "" && !matchQuery(r, q) {
			continue
		}

		fs.freshen(ctx, r)
		results = append(results, types.NewFileInfo(r))
	}

	return &types.SearchFilesResponse{
		Results: results,
		Count:   len(results),
		Query:   query,
	}, nil
}

func (fs *FileService) listRecords(ctx context.Context, owner string) ([]model.FileRecord, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}

	records := make([]model.FileRecord, 0, DefaultSliceCapacity)

	err := fs.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}

	return records, nil
}

// freshen 尽力刷新陈旧 URL，失败返回现有值，不中断列表.
func (fs *FileService) freshen(ctx context.Context, record *model.FileRecord) {
	if err := fs.EnsureFreshURLs(ctx, record); err != nil {
		nlog.Logger().Warn().Err(err).
			Str("filename", record.Filename).
			Msg("ensure fresh urls failed, returning stale urls")
	}
}

// matchKeyword 匹配 AI 关键词.
func matchKeyword(r *model.FileRecord, keyword string) bool {
	analysis, err := r.Analysis()
	if err != nil || analysis == nil {
		return false
	}

	for _, kw := range analysis.Keywords {
		if strings.Contains(strings.ToLower(kw), keyword) {
			return true
		}
	}

	return false
}

// matchQuery 匹配文件名、关键词、摘要与标题.
func matchQuery(r *model.FileRecord, q string) bool {
	if strings.Contains(strings.ToLower(r.Filename), q) {
		return true
	}

	analysis, err := r.Analysis()
	if err != nil || analysis == nil {
		return false
	}

	if strings.Contains(strings.ToLower(analysis.Summary), q) ||
		strings.Contains(strings.ToLower(analysis.Caption), q) {
		return true
	}

	for _, kw := range analysis.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}

	return false
}
