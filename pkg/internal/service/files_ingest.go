package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/types"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// Upload 摄取一个文件：先扫描再入主存储，同步与分析作为后台任务入队.
// 扫描不可用时整体拒绝（fail-closed），感染文件仍写入主存储留作取证但永不进入备存储.
func (fs *FileService) Upload(ctx context.Context, owner, filename, declaredType string, data []byte) (*types.UploadFileResponse, error) {
	if _, err := fs.getRecord(ctx, owner, filename); err == nil {
		return nil, ErrConflict
	} else if err != ErrNotFound {
		return nil, err
	}

	scanResult, err := fs.scanner.ScanStream(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	contentType := inferContentType(filename, declaredType)
	objectKey := ObjectKey(owner, filename)

	// 感染文件也写入主存储，供后续取证；仅干净文件才会进入同步与分析管线
	if err := fs.primary.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("%w: put %s: %s", ErrStoreUnavailable, objectKey, err.Error())
	}

	previewURL, downloadURL, err := fs.issueURLs(ctx, fs.primary, objectKey, filename)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := model.FileRecord{
		OwnerID:          owner,
		Filename:         filename,
		Size:             int64(len(data)),
		ContentType:      contentType,
		MinioPreviewURL:  previewURL,
		MinioDownloadURL: downloadURL,
		URLsIssuedAt:     now,
	}

	if scanResult.Infected {
		return fs.ingestInfected(ctx, &record, scanResult.VirusName)
	}

	return fs.ingestClean(ctx, &record)
}

// ingestInfected 感染路径：终态 infected-skip，永不入队同步或分析.
func (fs *FileService) ingestInfected(ctx context.Context, record *model.FileRecord, virusName string) (*types.UploadFileResponse, error) {
	record.Status = model.StatusInfectedSkip
	record.ScanStatus = model.ScanInfected
	record.VirusName = virusName
	record.AnalysisStatus = model.AnalysisNone

	if err := fs.createRecord(ctx, record); err != nil {
		return nil, err
	}

	fs.recordActivity(ctx, model.EventInfectionDetected, record.OwnerID, record.Filename,
		fmt.Sprintf("Virus %s detected in %s during upload", virusName, record.Filename))
	fs.publishFileInfected(record, virusName, "ingest")

	nlog.Logger().Warn().
		Str("owner", record.OwnerID).
		Str("filename", record.Filename).
		Str("virus", virusName).
		Msg("infected file quarantined in primary store")

	return &types.UploadFileResponse{
		Filename:   record.Filename,
		Status:     string(model.StatusInfectedSkip),
		ScanStatus: string(model.ScanInfected),
		VirusName:  virusName,
		Message:    fmt.Sprintf("%s blocked due to virus: %s", record.Filename, virusName),
	}, nil
}

// ingestClean 干净路径：入队备存储同步，条件满足时入队分析.
func (fs *FileService) ingestClean(ctx context.Context, record *model.FileRecord) (*types.UploadFileResponse, error) {
	analysisQueued := fs.analysisEligible(record.Filename)

	record.Status = model.StatusMinio
	record.ScanStatus = model.ScanClean
	record.AnalysisStatus = model.AnalysisNone

	if analysisQueued {
		record.AnalysisStatus = model.AnalysisPending
	}

	if err := fs.createRecord(ctx, record); err != nil {
		return nil, err
	}

	fs.publishSyncRequested(record, false)

	if analysisQueued {
		fs.publishAnalysisRequested(record)
	}

	fs.recordActivity(ctx, model.EventFileUploaded, record.OwnerID, record.Filename,
		fmt.Sprintf("File %s uploaded", record.Filename))

	return &types.UploadFileResponse{
		Filename:         record.Filename,
		Status:           string(model.StatusMinio),
		ScanStatus:       string(model.ScanClean),
		AIAnalysisQueued: analysisQueued,
		Message:          fmt.Sprintf("%s uploaded successfully and scanned clean.", record.Filename),
	}, nil
}

// analysisEligible 扩展名在白名单内且分析服务可用.
func (fs *FileService) analysisEligible(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	return fs.analyzer.Enabled() && configs.GetConfig().Lifecycle.IsAnalyzable(ext)
}

// createRecord 插入记录，唯一索引冲突转为 ErrConflict（并发上传同名文件）.
func (fs *FileService) createRecord(ctx context.Context, record *model.FileRecord) error {
	if err := fs.dbClient.GetDB().WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return ErrConflict
		}

		return fmt.Errorf("create file record: %w", err)
	}

	return nil
}

// fileRef 构造队列负载中的文件引用.
func (fs *FileService) fileRef(record *model.FileRecord) queue.FileRef {
	return queue.FileRef{
		OwnerID:     record.OwnerID,
		Filename:    record.Filename,
		ObjectKey:   ObjectKey(record.OwnerID, record.Filename),
		Bucket:      fs.primary.Bucket(),
		Size:        record.Size,
		ContentType: record.ContentType,
	}
}

// publishSyncRequested 入队备存储同步；备存储未启用时跳过.
// 发布失败只记日志，由补投清扫任务兜底.
func (fs *FileService) publishSyncRequested(record *model.FileRecord, requeued bool) {
	if fs.secondary == nil {
		return
	}

	err := queue.PublishSyncRequested(fs.mqClient.Publisher(), queue.SyncRequestedPayload{
		File:     fs.fileRef(record),
		Requeued: requeued,
	}, queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Error().Err(err).
			Str("filename", record.Filename).
			Msg("publish sync requested failed, sweep job will requeue")
	}
}

// publishAnalysisRequested 入队 AI 分析.
func (fs *FileService) publishAnalysisRequested(record *model.FileRecord) {
	err := queue.PublishAnalysisRequested(fs.mqClient.Publisher(), queue.AnalysisRequestedPayload{
		File: fs.fileRef(record),
	}, queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Error().Err(err).
			Str("filename", record.Filename).
			Msg("publish analysis requested failed")
	}
}

// publishFileInfected 发布感染事件.
func (fs *FileService) publishFileInfected(record *model.FileRecord, virusName, stage string) {
	msg, err := queue.NewWatermillMessage(queue.TopicFileInfected, queue.FileInfectedPayload{
		File:      fs.fileRef(record),
		VirusName: virusName,
		Stage:     stage,
	}, queue.WithProducer(configs.AppName))
	if err == nil {
		err = fs.mqClient.Publish(context.Background(), queue.TopicFileInfected, msg)
	}

	if err != nil {
		nlog.Logger().Error().Err(err).
			Str("filename", record.Filename).
			Msg("publish file infected failed")
	}
}
