package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// StatsService 提供分析端聚合（基于文件记录与活动事件表）。
type StatsService struct{ *FileService }

// NewStatsService 从 context 获取依赖实例.
func NewStatsService(c context.Context) *StatsService { return &StatsService{NewFileService(c)} }

const (
	defaultUploadDays   = 30
	maxUploadDays       = 365
	defaultTagLimit     = 10
	maxTagLimit         = 100
	defaultActivityHrs  = 24
	maxActivityHrs      = 24 * 30
	hoursPerDay         = 24
	maxActivityListSize = 500
)

// StorageAnalytics 统计当前用户的存储用量与状态分布.
func (s *StatsService) StorageAnalytics(ctx context.Context, owner string) (*types.StorageAnalyticsResponse, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}

	dbx := s.dbClient.GetDB().WithContext(ctx)

	var agg struct {
		Total    int64 `gorm:"column:total"`
		Size     int64 `gorm:"column:total_size"`
		Analyzed int64 `gorm:"column:analyzed"`
	}

	// COALESCE 避免空表时返回 NULL
	selectExpr := "COUNT(*) AS total, COALESCE(SUM(size),0) AS total_size, " +
		"COALESCE(SUM(CASE WHEN ai_analysis_status = 'completed' THEN 1 ELSE 0 END),0) AS analyzed"

	if err := dbx.Model(&model.FileRecord{}).
		Select(selectExpr).
		Where("owner_id = ?", owner).
		Scan(&agg).Error; err != nil {
		return nil, err
	}

	statusRows := []struct {
		Status string
		Cnt    int64
	}{}

	if err := dbx.Model(&model.FileRecord{}).
		Select("status, COUNT(*) as cnt").
		Where("owner_id = ?", owner).
		Group("status").
		Scan(&statusRows).Error; err != nil {
		return nil, err
	}

	dist := make(map[string]int, len(statusRows))
	for _, r := range statusRows {
		dist[r.Status] = int(r.Cnt)
	}

	avg := float64(0)
	if agg.Total > 0 {
		avg = float64(agg.Size) / float64(agg.Total)
	}

	return &types.StorageAnalyticsResponse{
		Storage: types.StorageAnalytics{
			TotalFiles:         int(agg.Total),
			TotalSize:          agg.Size,
			AvgFileSize:        avg,
			FilesAnalyzed:      int(agg.Analyzed),
			StatusDistribution: dist,
		},
	}, nil
}

// UploadsAnalytics 最近 N 日的每日上传数，按天补齐空缺.
func (s *StatsService) UploadsAnalytics(ctx context.Context, owner string, days int) (*types.UploadsAnalyticsResponse, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}

	if days <= 0 || days > maxUploadDays {
		days = defaultUploadDays
	}

	start := time.Now().UTC().AddDate(0, 0, -days+1).Truncate(hoursPerDay * time.Hour)

	rows := []struct {
		D   string
		Cnt int64
	}{}
	// 兼容 SQLite/MySQL：按 DATE(created_at) 分组，返回 "YYYY-MM-DD"
	err := s.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Select("DATE(created_at) as d, COUNT(*) as cnt").
		Where("owner_id = ? AND created_at >= ?", owner, start).
		Group("DATE(created_at)").
		Order("d").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.D] = r.Cnt
	}

	daily := make([]types.DailyUploadPoint, 0, days)
	for i := range days {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		daily = append(daily, types.DailyUploadPoint{Date: d, Count: int(counts[d])})
	}

	return &types.UploadsAnalyticsResponse{DailyUploads: daily}, nil
}

// TagsAnalytics 统计 AI 关键词出现次数，取 Top N.
// 关键词嵌在 analysis_json 内，聚合在应用层完成.
func (s *StatsService) TagsAnalytics(ctx context.Context, owner string, limit int) (*types.TagsAnalyticsResponse, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}

	if limit <= 0 || limit > maxTagLimit {
		limit = defaultTagLimit
	}

	var records []model.FileRecord

	err := s.dbClient.GetDB().WithContext(ctx).
		Select("analysis_json").
		Where("owner_id = ? AND ai_analysis_status = ?", owner, model.AnalysisCompleted).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}

	for i := range records {
		analysis, err := records[i].Analysis()
		if err != nil || analysis == nil {
			continue
		}

		for _, kw := range analysis.Keywords {
			if kw != "" {
				counts[kw]++
			}
		}
	}

	top := make([]types.TagCount, 0, len(counts))
	for k, v := range counts {
		top = append(top, types.TagCount{Tag: k, Count: v})
	}

	sortTagCounts(top)

	if len(top) > limit {
		top = top[:limit]
	}

	return &types.TagsAnalyticsResponse{TopTags: top}, nil
}

// ActivityAnalytics 最近 N 小时的活动事件，时间倒序.
func (s *StatsService) ActivityAnalytics(ctx context.Context, owner string, hours int) (*types.ActivityAnalyticsResponse, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner required")
	}

	if hours <= 0 || hours > maxActivityHrs {
		hours = defaultActivityHrs
	}

	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	var events []model.ActivityEvent

	err := s.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ? AND timestamp >= ?", owner, cutoff).
		Order("timestamp DESC").
		Limit(maxActivityListSize).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	items := make([]types.ActivityItem, 0, len(events))
	for i := range events {
		items = append(items, types.ActivityItem{
			EventType: string(events[i].EventType),
			Resource:  events[i].Resource,
			Timestamp: events[i].Timestamp.UTC().Format(time.RFC3339),
			Details:   events[i].Details,
		})
	}

	return &types.ActivityAnalyticsResponse{RecentActivity: items}, nil
}

// sortTagCounts 按次数降序，同次数按标签名排序保证稳定输出.
func sortTagCounts(tags []types.TagCount) {
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}

		return tags[i].Tag < tags[j].Tag
	})
}
