package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yeisme/filevault/pkg/internal/analyzer"
	"github.com/yeisme/filevault/pkg/internal/model"
	nlog "github.com/yeisme/filevault/pkg/log"
)

// ErrSyncDiscarded 同步任务不再需要执行（记录已删除或已进入终态），不应重试.
var ErrSyncDiscarded = errors.New("sync discarded")

// ErrSecondaryDisabled 备存储未配置.
var ErrSecondaryDisabled = errors.New("secondary store disabled")

// ReplicateToSecondary 执行一次主存储到备存储的复制尝试.
// 复制前重扫：病毒库更新后摄取时的干净结论可能翻盘，感染即终止并转入 infected 终态.
// 返回 ErrSyncDiscarded 表示任务作废；其他错误可重试.
func (fs *FileService) ReplicateToSecondary(ctx context.Context, owner, filename string, attempt int) error {
	if fs.secondary == nil {
		return ErrSecondaryDisabled
	}

	record, err := fs.getRecord(ctx, owner, filename)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSyncDiscarded
		}

		return err
	}

	if record.Status != model.StatusMinio {
		// 已同步或已进入感染终态
		return ErrSyncDiscarded
	}

	objectKey := ObjectKey(owner, filename)

	data, err := fs.readPrimary(ctx, objectKey)
	if err != nil {
		return err
	}

	scanResult, err := fs.scanner.ScanStream(ctx, bytes.NewReader(data))
	if err != nil {
		return err
	}

	if scanResult.Infected {
		if _, err := fs.MarkInfectedAtSync(ctx, owner, filename, scanResult.VirusName); err != nil {
			return err
		}

		nlog.Logger().Warn().
			Str("filename", filename).
			Str("virus", scanResult.VirusName).
			Msg("infection caught by pre-replication rescan")

		return ErrSyncDiscarded
	}

	if err := fs.secondary.Put(ctx, objectKey, bytes.NewReader(data), int64(len(data)), record.ContentType); err != nil {
		return fmt.Errorf("put to secondary: %w", err)
	}

	s3Preview, s3Download, err := fs.issueURLs(ctx, fs.secondary, objectKey, filename)
	if err != nil {
		return err
	}

	hit, err := fs.CompleteSync(ctx, owner, filename, s3Preview, s3Download, attempt)
	if err != nil {
		return err
	}

	if !hit {
		// 复制期间记录被删除，回收备存储副本避免孤儿对象
		if rmErr := fs.secondary.Remove(ctx, objectKey); rmErr != nil {
			fs.leaveTombstone(ctx, owner, objectKey, rmErr)
		}

		return ErrSyncDiscarded
	}

	return nil
}

// AnalyzeFile 执行一次 AI 分析尝试并落盘结果（单次尝试语义）.
// 记录已删除时丢弃结果并返回 ErrSyncDiscarded.
func (fs *FileService) AnalyzeFile(ctx context.Context, owner, filename string) error {
	if _, err := fs.getRecord(ctx, owner, filename); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrSyncDiscarded
		}

		return err
	}

	objectKey := ObjectKey(owner, filename)

	data, err := fs.readPrimary(ctx, objectKey)
	if err != nil {
		_, _ = fs.FailAnalysis(ctx, owner, filename, "File missing")
		return err
	}

	result, err := fs.analyzer.AnalyzeContent(ctx, filename, data)
	if err != nil {
		_, _ = fs.FailAnalysis(ctx, owner, filename, analysisFailReason(err))
		return err
	}

	hit, err := fs.CompleteAnalysis(ctx, owner, filename, result)
	if err != nil {
		return err
	}

	if !hit {
		return ErrSyncDiscarded
	}

	return nil
}

// readPrimary 从主存储整读对象.
func (fs *FileService) readPrimary(ctx context.Context, objectKey string) ([]byte, error) {
	reader, err := fs.primary.Get(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("get %s from primary: %w", objectKey, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s from primary: %w", objectKey, err)
	}

	return data, nil
}

func analysisFailReason(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrInsufficientContent):
		return "Insufficient content"
	case errors.Is(err, analyzer.ErrDisabled):
		return "AI analysis disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Analysis timed out"
	default:
		return err.Error()
	}
}
