package types

// StorageAnalytics 存储用量统计.
type StorageAnalytics struct {
	TotalFiles         int            `json:"total_files"`
	TotalSize          int64          `json:"total_size"`
	AvgFileSize        float64        `json:"avg_file_size"`
	FilesAnalyzed      int            `json:"files_analyzed"`
	StatusDistribution map[string]int `json:"status_distribution"`
}

// StorageAnalyticsResponse GET /user/analytics/storage 响应.
type StorageAnalyticsResponse struct {
	Storage StorageAnalytics `json:"storage"`
}

// DailyUploadPoint 单日上传计数，_id 为 YYYY-MM-DD.
type DailyUploadPoint struct {
	Date  string `json:"_id"`
	Count int    `json:"count"`
}

// UploadsAnalyticsResponse GET /user/analytics/uploads 响应.
type UploadsAnalyticsResponse struct {
	DailyUploads []DailyUploadPoint `json:"daily_uploads"`
}

// TagCount 关键词及其出现次数.
type TagCount struct {
	Tag   string `json:"_id"`
	Count int    `json:"count"`
}

// TagsAnalyticsResponse GET /user/analytics/tags 响应.
type TagsAnalyticsResponse struct {
	TopTags []TagCount `json:"top_tags"`
}

// ActivityItem 单条活动记录.
type ActivityItem struct {
	EventType string `json:"event_type"`
	Resource  string `json:"resource"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details,omitempty"`
}

// ActivityAnalyticsResponse GET /user/analytics/activity 响应.
type ActivityAnalyticsResponse struct {
	RecentActivity []ActivityItem `json:"recent_activity"`
}
