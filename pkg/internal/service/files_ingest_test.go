package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/scanner"
	"github.com/yeisme/filevault/pkg/queue"
)

// TestUploadCleanFile 干净文件：入主存储、签发URL、入队同步与分析.
func TestUploadCleanFile(t *testing.T) {
	env := newTestEnv(t, true)
	env.analyzer.enabled = true

	resp, err := env.fs.Upload(context.Background(), "alice", "notes.txt", "", []byte("hello filevault"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.Status != string(model.StatusMinio) || resp.ScanStatus != string(model.ScanClean) {
		t.Errorf("resp status = %s/%s", resp.Status, resp.ScanStatus)
	}

	if !resp.AIAnalysisQueued {
		t.Error("analysis should be queued for txt file")
	}

	if !env.primary.has("alice/notes.txt") {
		t.Error("object missing from primary store")
	}

	record := env.record(t, "alice", "notes.txt")
	if record.Status != model.StatusMinio || record.AnalysisStatus != model.AnalysisPending {
		t.Errorf("record = %s/%s", record.Status, record.AnalysisStatus)
	}

	if record.MinioPreviewURL == "" || record.MinioDownloadURL == "" {
		t.Error("presigned urls not recorded")
	}

	if record.URLsIssuedAt.IsZero() {
		t.Error("urls_issued_at not set")
	}

	sync := decodeLast[queue.SyncRequestedPayload](t, env.pubsub, queue.TopicSyncRequested)
	if sync.Payload.File.ObjectKey != "alice/notes.txt" || sync.Payload.Requeued {
		t.Errorf("sync payload = %+v", sync.Payload)
	}

	analysis := decodeLast[queue.AnalysisRequestedPayload](t, env.pubsub, queue.TopicAnalysisRequested)
	if analysis.Payload.File.Filename != "notes.txt" {
		t.Errorf("analysis payload = %+v", analysis.Payload)
	}
}

// TestUploadInfectedFile 感染文件：留在主存储取证，终态 infected-skip，不入任何队列.
func TestUploadInfectedFile(t *testing.T) {
	env := newTestEnv(t, true)
	env.scanner.result = scanner.Result{Infected: true, VirusName: "Eicar-Test-Signature"}

	resp, err := env.fs.Upload(context.Background(), "alice", "evil.bin", "", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.Status != string(model.StatusInfectedSkip) || resp.VirusName != "Eicar-Test-Signature" {
		t.Errorf("resp = %+v", resp)
	}

	if !env.primary.has("alice/evil.bin") {
		t.Error("infected file should stay in primary for forensics")
	}

	record := env.record(t, "alice", "evil.bin")
	if !record.Status.IsInfected() || record.ScanStatus != model.ScanInfected {
		t.Errorf("record = %s/%s", record.Status, record.ScanStatus)
	}

	if env.pubsub.topicCount(queue.TopicSyncRequested) != 0 {
		t.Error("infected file must never enter the sync queue")
	}

	if env.pubsub.topicCount(queue.TopicAnalysisRequested) != 0 {
		t.Error("infected file must not queue analysis at ingest")
	}

	if env.pubsub.topicCount(queue.TopicFileInfected) != 1 {
		t.Error("infected event not published")
	}
}

// TestUploadDuplicateFilename 同名冲突返回 ErrConflict.
func TestUploadDuplicateFilename(t *testing.T) {
	env := newTestEnv(t, true)

	env.mustUpload(t, "alice", "dup.txt", []byte("first"))

	_, err := env.fs.Upload(context.Background(), "alice", "dup.txt", "", []byte("second"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// 不同用户的同名文件互不冲突
	if _, err := env.fs.Upload(context.Background(), "bob", "dup.txt", "", []byte("third")); err != nil {
		t.Errorf("different owner should not conflict: %v", err)
	}
}

// TestUploadScannerUnavailable 扫描不可用时整体拒绝，不落盘也不入库.
func TestUploadScannerUnavailable(t *testing.T) {
	env := newTestEnv(t, true)
	env.scanner.err = fmt.Errorf("%w: connection refused", scanner.ErrUnavailable)

	_, err := env.fs.Upload(context.Background(), "alice", "doc.pdf", "", []byte("data"))
	if !errors.Is(err, scanner.ErrUnavailable) {
		t.Fatalf("err = %v, want scanner.ErrUnavailable", err)
	}

	if env.primary.has("alice/doc.pdf") {
		t.Error("nothing should be stored when scanning is unavailable")
	}
}

// TestUploadPrimaryStoreDown 主存储故障映射为 ErrStoreUnavailable.
func TestUploadPrimaryStoreDown(t *testing.T) {
	env := newTestEnv(t, true)
	env.primary.putErr = errors.New("connection reset")

	_, err := env.fs.Upload(context.Background(), "alice", "doc.pdf", "", []byte("data"))
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

// TestUploadWithoutSecondary 备存储未配置时不入同步队列，状态停留在 minio.
func TestUploadWithoutSecondary(t *testing.T) {
	env := newTestEnv(t, false)

	env.mustUpload(t, "alice", "solo.txt", []byte("no backup"))

	if env.pubsub.topicCount(queue.TopicSyncRequested) != 0 {
		t.Error("sync must not be queued without a secondary store")
	}

	record := env.record(t, "alice", "solo.txt")
	if record.Status != model.StatusMinio {
		t.Errorf("status = %s, want minio", record.Status)
	}
}

// TestUploadAnalysisEligibility 分析入队取决于分析器可用性与扩展名白名单.
func TestUploadAnalysisEligibility(t *testing.T) {
	env := newTestEnv(t, true)

	// 分析器关闭
	resp, err := env.fs.Upload(context.Background(), "alice", "a.txt", "", []byte("x"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.AIAnalysisQueued {
		t.Error("analysis queued while analyzer disabled")
	}

	if got := env.record(t, "alice", "a.txt").AnalysisStatus; got != model.AnalysisNone {
		t.Errorf("analysis status = %s, want none", got)
	}

	// 分析器开启但扩展名不在白名单
	env.analyzer.enabled = true

	resp, err = env.fs.Upload(context.Background(), "alice", "a.zip", "", []byte("x"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if resp.AIAnalysisQueued {
		t.Error("zip files are not analyzable")
	}

	if env.pubsub.topicCount(queue.TopicAnalysisRequested) != 0 {
		t.Error("no analysis message expected")
	}
}
