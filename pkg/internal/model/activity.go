package model

import (
	crand "crypto/rand"
	"time"

	"github.com/oklog/ulid"
)

// EventType 活动事件类型.
type EventType string

const (
	EventFileUploaded       EventType = "file_uploaded"
	EventSyncCompleted      EventType = "sync_completed"
	EventAnalysisCompleted  EventType = "ai_analysis_completed"
	EventInfectionDetected  EventType = "infection_detected"
	EventFileDeleted        EventType = "file_deleted"
	EventFileDownloaded     EventType = "file_downloaded"
	EventFilePreviewed      EventType = "file_previewed"
)

var ulidEntropy = ulid.Monotonic(crand.Reader, 0)

// ActivityEvent 追加式活动日志，核心只写不改，分析端只读.
type ActivityEvent struct {
	// ULID，字典序即时间序
	ID        string    `gorm:"primaryKey;size:26" json:"id"`
	EventType EventType `gorm:"size:64;index"      json:"event_type"`
	OwnerID   string    `gorm:"size:255;index"     json:"owner_id"`
	// Resource 即文件名
	Resource  string    `gorm:"size:512;index" json:"resource"`
	Details   string    `gorm:"type:text"      json:"details,omitempty"`
	Timestamp time.Time `gorm:"index"          json:"timestamp"`
}

// NewActivityEvent 构造带 ULID 的活动事件.
func NewActivityEvent(eventType EventType, ownerID, resource, details string) *ActivityEvent {
	now := time.Now().UTC()

	return &ActivityEvent{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulidEntropy).String(),
		EventType: eventType,
		OwnerID:   ownerID,
		Resource:  resource,
		Details:   details,
		Timestamp: now,
	}
}
