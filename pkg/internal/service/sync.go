package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// GetFile 按 owner+filename 查找记录，供 worker 与 handler 使用.
func (fs *FileService) GetFile(ctx context.Context, owner, filename string) (*model.FileRecord, error) {
	return fs.getRecord(ctx, owner, filename)
}

// CompleteSync 备存储复制完成：minio → uploaded-to-s3，写入备存储 URL 与同步时间.
// CAS 未命中（记录已删除或状态被改）返回 false，调用方应丢弃结果.
func (fs *FileService) CompleteSync(ctx context.Context, owner, filename, s3Preview, s3Download string, attempts int) (bool, error) {
	now := time.Now().UTC()

	hit, err := fs.casStatus(ctx, owner, filename, model.StatusMinio, map[string]any{
		"status":          model.StatusUploadedToS3,
		"s3_preview_url":  s3Preview,
		"s3_download_url": s3Download,
		"s3_synced_at":    now,
		"sync_error":      "",
		"sync_attempts":   attempts,
	})
	if err != nil || !hit {
		return hit, err
	}

	fs.recordActivity(ctx, model.EventSyncCompleted, owner, filename,
		fmt.Sprintf("File %s synced to secondary storage", filename))

	msg, err := queue.NewWatermillMessage(queue.TopicSyncCompleted, queue.SyncCompletedPayload{
		File:     queue.FileRef{OwnerID: owner, Filename: filename, ObjectKey: ObjectKey(owner, filename)},
		SyncedAt: now,
		Attempts: attempts,
	}, queue.WithProducer(configs.AppName))
	if err == nil {
		err = fs.mqClient.Publish(ctx, queue.TopicSyncCompleted, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("filename", filename).Msg("publish sync completed failed")
	}

	return true, nil
}

// MarkInfectedAtSync 复制前重扫发现感染：minio → infected（终态），对象留在主存储取证.
func (fs *FileService) MarkInfectedAtSync(ctx context.Context, owner, filename, virusName string) (bool, error) {
	hit, err := fs.casStatus(ctx, owner, filename, model.StatusMinio, map[string]any{
		"status":      model.StatusInfected,
		"scan_status": model.ScanInfected,
		"virus_name":  virusName,
	})
	if err != nil || !hit {
		return hit, err
	}

	fs.recordActivity(ctx, model.EventInfectionDetected, owner, filename,
		fmt.Sprintf("Virus %s detected in %s before replication", virusName, filename))

	record := &model.FileRecord{OwnerID: owner, Filename: filename}
	fs.publishFileInfected(record, virusName, "sync")

	return true, nil
}

// RecordSyncFailure 记录同步失败诊断信息，仅用于排障，从不返回给客户端.
func (fs *FileService) RecordSyncFailure(ctx context.Context, owner, filename string, attempts int, cause error) {
	err := fs.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("owner_id = ? AND filename = ?", owner, filename).
		Updates(map[string]any{
			"sync_error":    cause.Error(),
			"sync_attempts": attempts,
		}).Error
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("filename", filename).Msg("record sync failure failed")
	}
}

// CompleteAnalysis 分析完成：pending → completed，写入结果.
// CAS 未命中说明记录已删除或状态被改，结果丢弃.
func (fs *FileService) CompleteAnalysis(ctx context.Context, owner, filename string, result *model.AnalysisResult) (bool, error) {
	record := model.FileRecord{}
	if err := record.SetAnalysis(result); err != nil {
		return false, err
	}

	now := time.Now().UTC()

	hit, err := fs.casAnalysisStatus(ctx, owner, filename, model.AnalysisPending, map[string]any{
		"ai_analysis_status":       model.AnalysisCompleted,
		"analysis_json":            record.AnalysisJSON,
		"ai_analysis_completed_at": now,
		"ai_error":                 "",
	})
	if err != nil || !hit {
		return hit, err
	}

	fs.recordActivity(ctx, model.EventAnalysisCompleted, owner, filename,
		fmt.Sprintf("AI analysis completed for %s", filename))

	msg, err := queue.NewWatermillMessage(queue.TopicAnalysisCompleted, queue.AnalysisCompletedPayload{
		File:      queue.FileRef{OwnerID: owner, Filename: filename, ObjectKey: ObjectKey(owner, filename)},
		Summary:   result.Summary,
		Keywords:  result.Keywords,
		ModelUsed: result.ModelUsed,
	}, queue.WithProducer(configs.AppName))
	if err == nil {
		err = fs.mqClient.Publish(ctx, queue.TopicAnalysisCompleted, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("filename", filename).Msg("publish analysis completed failed")
	}

	return true, nil
}

// FailAnalysis 分析失败：pending → failed，落盘 ai_error（单次尝试，不自动重试）.
func (fs *FileService) FailAnalysis(ctx context.Context, owner, filename, reason string) (bool, error) {
	hit, err := fs.casAnalysisStatus(ctx, owner, filename, model.AnalysisPending, map[string]any{
		"ai_analysis_status": model.AnalysisFailed,
		"ai_error":           reason,
	})
	if err != nil || !hit {
		return hit, err
	}

	msg, merr := queue.NewWatermillMessage(queue.TopicAnalysisFailed, queue.AnalysisFailedPayload{
		File:  queue.FileRef{OwnerID: owner, Filename: filename, ObjectKey: ObjectKey(owner, filename)},
		Error: reason,
	}, queue.WithProducer(configs.AppName))
	if merr == nil {
		merr = fs.mqClient.Publish(ctx, queue.TopicAnalysisFailed, msg)
	}

	if merr != nil {
		nlog.Logger().Warn().Err(merr).Str("filename", filename).Msg("publish analysis failed event failed")
	}

	return true, nil
}

// RequeuePendingSyncs 补投清扫：把仍停留在 minio 状态的干净文件重新入队.
// 覆盖进程重启丢失的在途任务与发布失败的事件，返回补投条数.
func (fs *FileService) RequeuePendingSyncs(ctx context.Context, olderThan time.Duration) (int, error) {
	if fs.secondary == nil {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-olderThan)

	var records []model.FileRecord

	err := fs.dbClient.GetDB().WithContext(ctx).
		Where("status = ? AND scan_status = ? AND updated_at <= ?",
			model.StatusMinio, model.ScanClean, cutoff).
		Find(&records).Error
	if err != nil {
		return 0, fmt.Errorf("list pending sync records: %w", err)
	}

	for i := range records {
		fs.publishSyncRequested(&records[i], true)
	}

	return len(records), nil
}

// SweepTombstones 对账清扫：补删备存储残留对象，成功后移除墓碑.
func (fs *FileService) SweepTombstones(ctx context.Context) (int, error) {
	if fs.secondary == nil {
		return 0, nil
	}

	var tombs []model.Tombstone

	err := fs.dbClient.GetDB().WithContext(ctx).Find(&tombs).Error
	if err != nil {
		return 0, fmt.Errorf("list tombstones: %w", err)
	}

	cleaned := 0

	for i := range tombs {
		if fs.ReapTombstone(ctx, &tombs[i]) {
			cleaned++
		}
	}

	return cleaned, nil
}

// ReapTombstone 尝试删除单个墓碑指向的备存储对象.
func (fs *FileService) ReapTombstone(ctx context.Context, tomb *model.Tombstone) bool {
	now := time.Now().UTC()

	if err := fs.secondary.Remove(ctx, tomb.ObjectKey); err != nil {
		fs.dbClient.GetDB().WithContext(ctx).
			Model(&model.Tombstone{}).
			Where("id = ?", tomb.ID).
			Updates(map[string]any{
				"attempts":      tomb.Attempts + 1,
				"last_error":    err.Error(),
				"last_tried_at": now,
			})

		nlog.Logger().Warn().Err(err).
			Str("object_key", tomb.ObjectKey).
			Int("attempts", tomb.Attempts+1).
			Msg("tombstone reap failed")

		return false
	}

	if err := fs.dbClient.GetDB().WithContext(ctx).Delete(&model.Tombstone{}, tomb.ID).Error; err != nil {
		nlog.Logger().Warn().Err(err).Str("object_key", tomb.ObjectKey).Msg("delete tombstone failed")
		return false
	}

	nlog.Logger().Info().Str("object_key", tomb.ObjectKey).Msg("tombstone reaped")

	return true
}

// FindTombstone 按 owner+objectKey 查找墓碑.
func (fs *FileService) FindTombstone(ctx context.Context, owner, objectKey string) (*model.Tombstone, error) {
	var tomb model.Tombstone

	err := fs.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ? AND object_key = ?", owner, objectKey).
		First(&tomb).Error
	if err != nil {
		return nil, err
	}

	return &tomb, nil
}
