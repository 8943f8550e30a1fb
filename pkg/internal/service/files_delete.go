package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// DeleteFile 删除文件：先删主存储，再删记录，最后尽力删备存储.
// 备存储删除失败不阻塞响应，留下墓碑由后台任务补删；记录删除即视为用户侧删除完成.
func (fs *FileService) DeleteFile(ctx context.Context, owner, filename string) (*types.DeleteFileResponse, error) {
	record, err := fs.getRecord(ctx, owner, filename)
	if err != nil {
		return nil, err
	}

	objectKey := ObjectKey(owner, filename)

	if err := fs.primary.Remove(ctx, objectKey); err != nil {
		return nil, fmt.Errorf("%w: remove %s from primary: %s", ErrStoreUnavailable, objectKey, err.Error())
	}

	err = fs.dbClient.GetDB().WithContext(ctx).
		Where("owner_id = ? AND filename = ?", owner, filename).
		Delete(&model.FileRecord{}).Error
	if err != nil {
		return nil, fmt.Errorf("delete file record: %w", err)
	}

	secondaryDeleted := fs.deleteSecondary(ctx, owner, objectKey, record)

	fs.recordActivity(ctx, model.EventFileDeleted, owner, filename,
		fmt.Sprintf("File %s deleted", filename))

	msg, err := queue.NewWatermillMessage(queue.TopicFileDeleted, queue.FileDeletedPayload{
		File:             fs.fileRef(record),
		SecondaryDeleted: secondaryDeleted,
	}, queue.WithProducer(configs.AppName))
	if err == nil {
		err = fs.mqClient.Publish(ctx, queue.TopicFileDeleted, msg)
	}

	if err != nil {
		nlog.Logger().Warn().Err(err).Str("filename", filename).Msg("publish file deleted failed")
	}

	return &types.DeleteFileResponse{
		Message: fmt.Sprintf("%s deleted successfully", filename),
	}, nil
}

// deleteSecondary 尽力删除备存储对象，失败记墓碑.
// 从未同步过的文件（status=minio 或感染终态）无备存储对象可删.
func (fs *FileService) deleteSecondary(ctx context.Context, owner, objectKey string, record *model.FileRecord) bool {
	if fs.secondary == nil || record.Status != model.StatusUploadedToS3 {
		return true
	}

	if err := fs.secondary.Remove(ctx, objectKey); err != nil {
		fs.leaveTombstone(ctx, owner, objectKey, err)
		return false
	}

	return true
}

// leaveTombstone 记录备存储删除失败的墓碑并通知清理 worker.
func (fs *FileService) leaveTombstone(ctx context.Context, owner, objectKey string, cause error) {
	nlog.Logger().Warn().Err(cause).
		Str("object_key", objectKey).
		Msg("secondary delete failed, leaving tombstone")

	tomb := model.Tombstone{
		OwnerID:   owner,
		ObjectKey: objectKey,
		Attempts:  1,
		LastError: cause.Error(),
		LastTriedAt: func() *time.Time {
			now := time.Now().UTC()
			return &now
		}(),
	}

	if err := fs.dbClient.GetDB().WithContext(ctx).Create(&tomb).Error; err != nil {
		// 同一对象重复删除时墓碑可能已存在，仅更新失败信息
		if isDuplicateKeyErr(err) {
			fs.dbClient.GetDB().WithContext(ctx).
				Model(&model.Tombstone{}).
				Where("owner_id = ? AND object_key = ?", owner, objectKey).
				Updates(map[string]any{"last_error": cause.Error()})
		} else {
			nlog.Logger().Error().Err(err).Str("object_key", objectKey).Msg("create tombstone failed")
		}
	}

	err := queue.PublishTombstoneCreated(fs.mqClient.Publisher(), queue.TombstoneCreatedPayload{
		OwnerID:   owner,
		ObjectKey: objectKey,
		Error:     cause.Error(),
	}, queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Warn().Err(err).Str("object_key", objectKey).Msg("publish tombstone created failed")
	}
}
