package model

import "time"

// Tombstone 备存储延迟清理记录.
// 主存储删除成功后文件记录立即消失，备存储删除失败时留下墓碑，由后台任务补删.
type Tombstone struct {
	ID        uint   `gorm:"primaryKey"                                     json:"id"`
	OwnerID   string `gorm:"size:255;index:idx_tomb_owner_key,unique"       json:"owner_id"`
	ObjectKey string `gorm:"size:1024;index:idx_tomb_owner_key,unique"      json:"object_key"`
	Attempts  int    `json:"attempts"`
	LastError string `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	LastTriedAt *time.Time `json:"last_tried_at,omitempty"`
}
