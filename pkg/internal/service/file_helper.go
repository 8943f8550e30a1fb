package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	nlog "github.com/yeisme/filevault/pkg/log"
)

const (
	// DefaultSliceCapacity 默认 slice 预分配容量.
	DefaultSliceCapacity = 100
	// DefaultOctetStream 无法推断时的兜底内容类型.
	DefaultOctetStream = "application/octet-stream"
)

// ObjectKey 构建对象存储键，按 owner 建立命名空间.
// 放在 service 层便于未来统一策略（如日期分目录、哈希前缀等）.
func ObjectKey(owner, filename string) string {
	return fmt.Sprintf("%s/%s", owner, filename)
}

// inferContentType 推断内容类型，优先使用客户端声明，其次按扩展名推断.
func inferContentType(filename, declared string) string {
	if declared != "" && declared != DefaultOctetStream {
		return declared
	}

	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		// 去掉 charset 等参数，保持与 UI 的简单匹配
		if idx := strings.Index(ct, ";"); idx > 0 {
			ct = ct[:idx]
		}

		return ct
	}

	return DefaultOctetStream
}

// getRecord 按 owner+filename 查找记录.
func (fs *FileService) getRecord(ctx context.Context, owner, filename string) (*model.FileRecord, error) {
	var record model.FileRecord

	err := fs.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ? AND filename = ?", owner, filename).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("query file record: %w", err)
	}

	return &record, nil
}

// casStatus 对 status 做 compare-and-set，防止后台任务覆盖更晚的状态变更.
// 返回是否命中（记录仍处于 from 状态）.
func (fs *FileService) casStatus(ctx context.Context, owner, filename string,
	from model.FileStatus, updates map[string]any,
) (bool, error) {
	res := fs.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("owner_id = ? AND filename = ? AND status = ?", owner, filename, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("cas status: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// casAnalysisStatus 对 ai_analysis_status 做 compare-and-set.
func (fs *FileService) casAnalysisStatus(ctx context.Context, owner, filename string,
	from model.AnalysisStatus, updates map[string]any,
) (bool, error) {
	res := fs.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("owner_id = ? AND filename = ? AND ai_analysis_status = ?", owner, filename, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("cas analysis status: %w", res.Error)
	}

	return res.RowsAffected > 0, nil
}

// recordActivity 写入活动事件，失败只记日志不影响主流程.
func (fs *FileService) recordActivity(ctx context.Context, eventType model.EventType, owner, resource, details string) {
	event := model.NewActivityEvent(eventType, owner, resource, details)
	if err := fs.dbClient.GetDB().WithContext(ctx).Create(event).Error; err != nil {
		nlog.Logger().Warn().Err(err).
			Str("event_type", string(eventType)).
			Str("resource", resource).
			Msg("record activity event failed")
	}
}

// presignExpiry 预签名 URL 有效期.
func presignExpiry() time.Duration {
	return configs.GetConfig().Lifecycle.GetPresignExpiry()
}

// staleThreshold URL 视为陈旧的年龄阈值.
func staleThreshold() time.Duration {
	return configs.GetConfig().Lifecycle.GetStaleThreshold()
}

// urlsStale 判断签发时间是否已超过陈旧阈值.
func urlsStale(issuedAt time.Time, now time.Time) bool {
	return now.Sub(issuedAt) >= staleThreshold()
}

// isDuplicateKeyErr 唯一索引冲突判定，覆盖 gorm 与各方言的报错形态.
func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
