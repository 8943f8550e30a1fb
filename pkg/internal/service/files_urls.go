package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/storage/obj"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// issueURLs 为对象签发预览与下载 URL.
func (fs *FileService) issueURLs(ctx context.Context, store obj.Store, objectKey, filename string) (string, string, error) {
	expiry := presignExpiry()

	preview, err := store.PresignPreview(ctx, objectKey, expiry)
	if err != nil {
		return "", "", fmt.Errorf("%w: presign preview %s: %s", ErrStoreUnavailable, objectKey, err.Error())
	}

	download, err := store.PresignDownload(ctx, objectKey, expiry, filename)
	if err != nil {
		return "", "", fmt.Errorf("%w: presign download %s: %s", ErrStoreUnavailable, objectKey, err.Error())
	}

	return preview, download, nil
}

// RefreshURLs 强制重签主存储 URL（备存储已同步时一并重签），写回记录.
func (fs *FileService) RefreshURLs(ctx context.Context, owner, filename string) (*types.RefreshURLsResponse, error) {
	record, err := fs.getRecord(ctx, owner, filename)
	if err != nil {
		return nil, err
	}

	if err := fs.reissueRecordURLs(ctx, record); err != nil {
		return nil, err
	}

	return &types.RefreshURLsResponse{
		Message:          "URLs refreshed successfully",
		MinioPreviewURL:  record.MinioPreviewURL,
		MinioDownloadURL: record.MinioDownloadURL,
		S3PreviewURL:     record.S3PreviewURL,
		S3DownloadURL:    record.S3DownloadURL,
	}, nil
}

// EnsureFreshURLs 读路径的按需刷新：签发时间超过陈旧阈值才重签，否则原样返回.
// 保证任何返回给客户端的 URL 距签发不超过阈值（默认 23h/24h 窗口）.
func (fs *FileService) EnsureFreshURLs(ctx context.Context, record *model.FileRecord) error {
	if !urlsStale(record.URLsIssuedAt, time.Now().UTC()) {
		return nil
	}

	return fs.reissueRecordURLs(ctx, record)
}

// reissueRecordURLs 重签记录的全部 URL 并持久化.
// 感染文件与尚未同步的文件永不签发备存储 URL.
func (fs *FileService) reissueRecordURLs(ctx context.Context, record *model.FileRecord) error {
	objectKey := ObjectKey(record.OwnerID, record.Filename)

	preview, download, err := fs.issueURLs(ctx, fs.primary, objectKey, record.Filename)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record.MinioPreviewURL = preview
	record.MinioDownloadURL = download
	record.URLsIssuedAt = now

	updates := map[string]any{
		"minio_preview_url":  preview,
		"minio_download_url": download,
		"urls_issued_at":     now,
	}

	if record.Status == model.StatusUploadedToS3 && fs.secondary != nil {
		s3Preview, s3Download, err := fs.issueURLs(ctx, fs.secondary, objectKey, record.Filename)
		if err != nil {
			// 备存储签发失败不阻塞主存储 URL 刷新
			nlog.Logger().Warn().Err(err).
				Str("filename", record.Filename).
				Msg("presign secondary urls failed, keeping stale values")
		} else {
			record.S3PreviewURL = s3Preview
			record.S3DownloadURL = s3Download
			updates["s3_preview_url"] = s3Preview
			updates["s3_download_url"] = s3Download
		}
	}

	err = fs.dbClient.GetDB().WithContext(ctx).
		Model(&model.FileRecord{}).
		Where("owner_id = ? AND filename = ?", record.OwnerID, record.Filename).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("persist refreshed urls: %w", err)
	}

	return nil
}

// RefreshStaleURLs 后台清扫：重签全部超过陈旧阈值的记录，返回刷新条数.
func (fs *FileService) RefreshStaleURLs(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-1 * staleThreshold())

	var records []model.FileRecord

	err := fs.dbClient.GetDB().WithContext(ctx).
		Where("urls_issued_at <= ?", cutoff).
		Find(&records).Error
	if err != nil {
		return 0, fmt.Errorf("list stale url records: %w", err)
	}

	refreshed := 0

	for i := range records {
		if err := fs.reissueRecordURLs(ctx, &records[i]); err != nil {
			nlog.Logger().Warn().Err(err).
				Str("filename", records[i].Filename).
				Msg("refresh stale urls failed")

			continue
		}

		refreshed++
	}

	return refreshed, nil
}
