package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一个文件及其在对象存储中的位置.
// ObjectKey 为 owner 前缀的存储键，Filename 为用户可见文件名.
type FileRef struct {
	OwnerID     string `json:"owner_id"`
	Filename    string `json:"filename"`
	ObjectKey   string `json:"object_key"`
	Bucket      string `json:"bucket,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// -------------------------- 文件生命周期领域 --------------------------

// FileStoredPayload 文件已写入主存储（含扫描结论与基础元数据）.
type FileStoredPayload struct {
	File FileRef `json:"file"`
	// ScanStatus 摄取时的扫描结论（clean/infected）.
	ScanStatus string `json:"scan_status,omitempty"`
	VirusName  string `json:"virus_name,omitempty"`
}

// FileDeletedPayload 文件删除完成.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// SecondaryDeleted 备存储对象是否一并删除成功，false 表示留有墓碑.
	SecondaryDeleted bool `json:"secondary_deleted"`
}

// FileInfectedPayload 扫描判定感染.
type FileInfectedPayload struct {
	File      FileRef `json:"file"`
	VirusName string  `json:"virus_name"`
	// Stage 感染发现阶段：ingest（摄取时）或 sync（复制前重扫）.
	Stage string `json:"stage"`
}

// -------------------------- 备存储同步领域 --------------------------

// SyncRequestedPayload 请求将主存储对象复制到备存储.
type SyncRequestedPayload struct {
	File FileRef `json:"file"`
	// Requeued 标记来自后台补偿任务的重新排队.
	Requeued bool `json:"requeued,omitempty"`
}

// SyncCompletedPayload 备存储复制完成.
type SyncCompletedPayload struct {
	File     FileRef   `json:"file"`
	SyncedAt time.Time `json:"synced_at"`
	Attempts int       `json:"attempts,omitempty"`
}

// SyncFailedPayload 备存储复制失败（诊断用，不影响用户可见状态）.
type SyncFailedPayload struct {
	File     FileRef `json:"file"`
	Error    string  `json:"error"`
	Attempts int     `json:"attempts,omitempty"`
}

// -------------------------- AI 分析领域 --------------------------

// AnalysisRequestedPayload 请求对文件内容做 AI 分析.
type AnalysisRequestedPayload struct {
	File FileRef `json:"file"`
}

// AnalysisCompletedPayload 分析完成.
type AnalysisCompletedPayload struct {
	File      FileRef  `json:"file"`
	Summary   string   `json:"summary,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	ModelUsed string   `json:"model_used,omitempty"`
}

// AnalysisFailedPayload 分析失败.
type AnalysisFailedPayload struct {
	File  FileRef `json:"file"`
	Error string  `json:"error"`
}

// -------------------------- 延迟清理领域 --------------------------

// TombstoneCreatedPayload 备存储删除失败，留下墓碑.
type TombstoneCreatedPayload struct {
	OwnerID   string `json:"owner_id"`
	ObjectKey string `json:"object_key"`
	Error     string `json:"error,omitempty"`
}
