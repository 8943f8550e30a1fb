package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/analyzer"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/scanner"
)

// TestReplicateToSecondary 完整复制路径：重扫、写备存储、签发备URL、推进状态.
func TestReplicateToSecondary(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	if err := env.fs.ReplicateToSecondary(context.Background(), "alice", "doc.pdf", 1); err != nil {
		t.Fatalf("ReplicateToSecondary failed: %v", err)
	}

	if !env.secondary.has("alice/doc.pdf") {
		t.Error("object missing from secondary store")
	}

	if !bytes.Equal(env.secondary.objects["alice/doc.pdf"], []byte("content")) {
		t.Error("secondary copy differs from original")
	}

	record := env.record(t, "alice", "doc.pdf")
	if record.Status != model.StatusUploadedToS3 {
		t.Errorf("status = %s", record.Status)
	}

	if record.S3PreviewURL == "" || record.S3DownloadURL == "" {
		t.Error("secondary urls not issued")
	}
}

// TestReplicateSecondaryDisabled 备存储未配置时直接报 ErrSecondaryDisabled.
func TestReplicateSecondaryDisabled(t *testing.T) {
	env := newTestEnv(t, false)

	err := env.fs.ReplicateToSecondary(context.Background(), "alice", "doc.pdf", 1)
	if !errors.Is(err, ErrSecondaryDisabled) {
		t.Errorf("err = %v, want ErrSecondaryDisabled", err)
	}
}

// TestReplicateDiscardsStaleTask 记录不存在或已离开 minio 状态的任务作废.
func TestReplicateDiscardsStaleTask(t *testing.T) {
	env := newTestEnv(t, true)

	err := env.fs.ReplicateToSecondary(context.Background(), "alice", "ghost.txt", 1)
	if !errors.Is(err, ErrSyncDiscarded) {
		t.Errorf("missing record: err = %v, want ErrSyncDiscarded", err)
	}

	env.mustUpload(t, "alice", "done.txt", []byte("x"))

	if _, err := env.fs.CompleteSync(context.Background(), "alice", "done.txt", "p", "d", 1); err != nil {
		t.Fatalf("CompleteSync failed: %v", err)
	}

	err = env.fs.ReplicateToSecondary(context.Background(), "alice", "done.txt", 2)
	if !errors.Is(err, ErrSyncDiscarded) {
		t.Errorf("already synced: err = %v, want ErrSyncDiscarded", err)
	}
}

// TestReplicateRescanCatchesInfection 病毒库更新后重扫翻盘：转入 infected 终态且不写备存储.
func TestReplicateRescanCatchesInfection(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "sleeper.bin", []byte("payload"))

	// 摄取后病毒库更新，重扫判定感染
	env.scanner.result = scanner.Result{Infected: true, VirusName: "Trojan.Late"}

	err := env.fs.ReplicateToSecondary(context.Background(), "alice", "sleeper.bin", 1)
	if !errors.Is(err, ErrSyncDiscarded) {
		t.Fatalf("err = %v, want ErrSyncDiscarded", err)
	}

	if env.secondary.has("alice/sleeper.bin") {
		t.Error("infected object must never reach secondary store")
	}

	record := env.record(t, "alice", "sleeper.bin")
	if record.Status != model.StatusInfected || record.VirusName != "Trojan.Late" {
		t.Errorf("record = %s/%s", record.Status, record.VirusName)
	}
}

// TestReplicateScannerUnavailableRetryable 重扫不可用是可重试错误，不作废任务.
func TestReplicateScannerUnavailableRetryable(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("x"))
	env.scanner.err = scanner.ErrUnavailable

	err := env.fs.ReplicateToSecondary(context.Background(), "alice", "doc.pdf", 1)
	if !errors.Is(err, scanner.ErrUnavailable) || errors.Is(err, ErrSyncDiscarded) {
		t.Errorf("err = %v, want retryable scanner.ErrUnavailable", err)
	}

	if got := env.record(t, "alice", "doc.pdf").Status; got != model.StatusMinio {
		t.Errorf("status = %s, want minio", got)
	}
}

// TestAnalyzeFileCompletes 分析成功写入结果并推进 completed.
func TestAnalyzeFileCompletes(t *testing.T) {
	env := newTestEnv(t, true)
	env.analyzer.enabled = true
	env.analyzer.result = &model.AnalysisResult{
		Summary:  "Meeting notes.",
		Keywords: []string{"meeting", "notes"},
		Caption:  "Notes",
	}

	env.mustUpload(t, "alice", "notes.txt", []byte("meeting notes content"))

	if err := env.fs.AnalyzeFile(context.Background(), "alice", "notes.txt"); err != nil {
		t.Fatalf("AnalyzeFile failed: %v", err)
	}

	record := env.record(t, "alice", "notes.txt")
	if record.AnalysisStatus != model.AnalysisCompleted {
		t.Errorf("analysis status = %s", record.AnalysisStatus)
	}

	analysis, err := record.Analysis()
	if err != nil || analysis.Summary != "Meeting notes." {
		t.Errorf("analysis = %+v, err = %v", analysis, err)
	}
}

// TestAnalyzeFileInsufficientContent 内容不足记为失败，原因用户可读.
func TestAnalyzeFileInsufficientContent(t *testing.T) {
	env := newTestEnv(t, true)
	env.analyzer.enabled = true
	env.mustUpload(t, "alice", "tiny.txt", []byte("hi"))
	env.analyzer.err = analyzer.ErrInsufficientContent

	err := env.fs.AnalyzeFile(context.Background(), "alice", "tiny.txt")
	if !errors.Is(err, analyzer.ErrInsufficientContent) {
		t.Fatalf("err = %v", err)
	}

	record := env.record(t, "alice", "tiny.txt")
	if record.AnalysisStatus != model.AnalysisFailed || record.AIError != "Insufficient content" {
		t.Errorf("record = %s/%q", record.AnalysisStatus, record.AIError)
	}
}

// TestAnalyzeFileMissingRecord 记录已删除的分析任务作废.
func TestAnalyzeFileMissingRecord(t *testing.T) {
	env := newTestEnv(t, true)

	err := env.fs.AnalyzeFile(context.Background(), "alice", "ghost.txt")
	if !errors.Is(err, ErrSyncDiscarded) {
		t.Errorf("err = %v, want ErrSyncDiscarded", err)
	}
}
