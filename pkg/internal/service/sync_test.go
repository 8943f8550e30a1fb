package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/queue"
)

// TestCompleteSync minio → uploaded-to-s3 状态推进，写入备存储 URL 与诊断信息.
func TestCompleteSync(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	hit, err := env.fs.CompleteSync(context.Background(), "alice", "doc.pdf", "s3-preview", "s3-download", 3)
	if err != nil {
		t.Fatalf("CompleteSync failed: %v", err)
	}

	if !hit {
		t.Fatal("cas should hit on minio record")
	}

	record := env.record(t, "alice", "doc.pdf")
	if record.Status != model.StatusUploadedToS3 {
		t.Errorf("status = %s", record.Status)
	}

	if record.S3PreviewURL != "s3-preview" || record.SyncAttempts != 3 {
		t.Errorf("record = %+v", record)
	}

	if record.S3SyncedAt == nil {
		t.Error("s3_synced_at not set")
	}

	completed := decodeLast[queue.SyncCompletedPayload](t, env.pubsub, queue.TopicSyncCompleted)
	if completed.Payload.Attempts != 3 {
		t.Errorf("completed payload = %+v", completed.Payload)
	}

	// 状态已推进，二次完成是迟到结果，必须未命中
	hit, err = env.fs.CompleteSync(context.Background(), "alice", "doc.pdf", "late", "late", 4)
	if err != nil || hit {
		t.Errorf("late completion: hit=%v err=%v", hit, err)
	}
}

// TestMarkInfectedAtSync 复制前重扫翻盘：minio → infected 终态.
func TestMarkInfectedAtSync(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "sleeper.bin", []byte("payload"))

	hit, err := env.fs.MarkInfectedAtSync(context.Background(), "alice", "sleeper.bin", "Trojan.Generic")
	if err != nil || !hit {
		t.Fatalf("MarkInfectedAtSync: hit=%v err=%v", hit, err)
	}

	record := env.record(t, "alice", "sleeper.bin")
	if record.Status != model.StatusInfected || record.VirusName != "Trojan.Generic" {
		t.Errorf("record = %s/%s", record.Status, record.VirusName)
	}

	if record.ScanStatus != model.ScanInfected {
		t.Errorf("scan status = %s", record.ScanStatus)
	}

	// 终态不可再推进
	if hit, _ := env.fs.CompleteSync(context.Background(), "alice", "sleeper.bin", "p", "d", 1); hit {
		t.Error("infected record must never advance to uploaded-to-s3")
	}
}

// TestRecordSyncFailure 失败诊断信息落盘，不影响状态.
func TestRecordSyncFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "retry.txt", []byte("x"))

	env.fs.RecordSyncFailure(context.Background(), "alice", "retry.txt", 7, errors.New("secondary timeout"))

	record := env.record(t, "alice", "retry.txt")
	if record.SyncError != "secondary timeout" || record.SyncAttempts != 7 {
		t.Errorf("record = %q/%d", record.SyncError, record.SyncAttempts)
	}

	if record.Status != model.StatusMinio {
		t.Errorf("status = %s, failure must not change status", record.Status)
	}
}

// TestCompleteAnalysisRequiresPending 分析结果只在 pending 状态下可写入.
func TestCompleteAnalysisRequiresPending(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "report.txt", []byte("x"))

	result := &model.AnalysisResult{Summary: "A report.", Keywords: []string{"report"}, Caption: "Report"}

	// 记录未进入 pending，结果丢弃
	hit, err := env.fs.CompleteAnalysis(context.Background(), "alice", "report.txt", result)
	if err != nil || hit {
		t.Fatalf("non-pending completion: hit=%v err=%v", hit, err)
	}

	if _, err := env.fs.RequestAnalysis(context.Background(), "alice", "report.txt"); err != nil {
		t.Fatalf("RequestAnalysis failed: %v", err)
	}

	hit, err = env.fs.CompleteAnalysis(context.Background(), "alice", "report.txt", result)
	if err != nil || !hit {
		t.Fatalf("pending completion: hit=%v err=%v", hit, err)
	}

	record := env.record(t, "alice", "report.txt")
	if record.AnalysisStatus != model.AnalysisCompleted || record.AnalysisCompletedAt == nil {
		t.Errorf("record = %s, completed_at=%v", record.AnalysisStatus, record.AnalysisCompletedAt)
	}

	analysis, err := record.Analysis()
	if err != nil || analysis == nil || analysis.Summary != "A report." {
		t.Errorf("analysis = %+v, err = %v", analysis, err)
	}
}

// TestFailAnalysis pending → failed，错误原因落盘.
func TestFailAnalysis(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "broken.txt", []byte("x"))

	if _, err := env.fs.RequestAnalysis(context.Background(), "alice", "broken.txt"); err != nil {
		t.Fatalf("RequestAnalysis failed: %v", err)
	}

	hit, err := env.fs.FailAnalysis(context.Background(), "alice", "broken.txt", "Insufficient content")
	if err != nil || !hit {
		t.Fatalf("FailAnalysis: hit=%v err=%v", hit, err)
	}

	record := env.record(t, "alice", "broken.txt")
	if record.AnalysisStatus != model.AnalysisFailed || record.AIError != "Insufficient content" {
		t.Errorf("record = %s/%q", record.AnalysisStatus, record.AIError)
	}

	if env.pubsub.topicCount(queue.TopicAnalysisFailed) != 1 {
		t.Error("analysis failed event not published")
	}
}

// TestRequeuePendingSyncs 补投清扫把滞留在 minio 的干净记录重新入队.
func TestRequeuePendingSyncs(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "stuck.txt", []byte("x"))
	env.mustUpload(t, "alice", "done.txt", []byte("y"))
	env.scanner.result.Infected = true
	env.scanner.result.VirusName = "Eicar-Test"

	if _, err := env.fs.Upload(context.Background(), "alice", "evil.bin", "", []byte("z")); err != nil {
		t.Fatalf("upload infected: %v", err)
	}

	if _, err := env.fs.CompleteSync(context.Background(), "alice", "done.txt", "p", "d", 1); err != nil {
		t.Fatalf("CompleteSync failed: %v", err)
	}

	before := env.pubsub.topicCount(queue.TopicSyncRequested)

	requeued, err := env.fs.RequeuePendingSyncs(context.Background(), 0)
	if err != nil {
		t.Fatalf("RequeuePendingSyncs failed: %v", err)
	}

	// 只有 stuck.txt 仍是 minio+clean
	if requeued != 1 {
		t.Errorf("requeued = %d, want 1", requeued)
	}

	if env.pubsub.topicCount(queue.TopicSyncRequested) != before+1 {
		t.Error("requeue message not published")
	}

	msg := decodeLast[queue.SyncRequestedPayload](t, env.pubsub, queue.TopicSyncRequested)
	if msg.Payload.File.Filename != "stuck.txt" || !msg.Payload.Requeued {
		t.Errorf("requeue payload = %+v", msg.Payload)
	}
}

// TestRequeuePendingSyncsWithoutSecondary 备存储未配置时补投是空操作.
func TestRequeuePendingSyncsWithoutSecondary(t *testing.T) {
	env := newTestEnv(t, false)
	env.mustUpload(t, "alice", "solo.txt", []byte("x"))

	requeued, err := env.fs.RequeuePendingSyncs(context.Background(), 0)
	if err != nil || requeued != 0 {
		t.Errorf("requeued = %d, err = %v", requeued, err)
	}
}

// TestSweepTombstones 对账清扫补删备存储残留，成功后移除墓碑.
func TestSweepTombstones(t *testing.T) {
	env := newTestEnv(t, true)
	env.secondary.objects["alice/orphan.txt"] = []byte("leftover")

	tomb := model.Tombstone{OwnerID: "alice", ObjectKey: "alice/orphan.txt", Attempts: 1}
	if err := env.dbc.GetDB().Create(&tomb).Error; err != nil {
		t.Fatalf("create tombstone: %v", err)
	}

	cleaned, err := env.fs.SweepTombstones(context.Background())
	if err != nil {
		t.Fatalf("SweepTombstones failed: %v", err)
	}

	if cleaned != 1 {
		t.Errorf("cleaned = %d, want 1", cleaned)
	}

	if env.secondary.has("alice/orphan.txt") {
		t.Error("orphan object should be removed")
	}

	if _, err := env.fs.FindTombstone(context.Background(), "alice", "alice/orphan.txt"); err == nil {
		t.Error("tombstone should be removed after reap")
	}
}

// TestReapTombstoneFailureIncrementsAttempts 补删失败时累计尝试次数并保留墓碑.
func TestReapTombstoneFailureIncrementsAttempts(t *testing.T) {
	env := newTestEnv(t, true)
	env.secondary.removeErr = errors.New("still down")

	tomb := model.Tombstone{OwnerID: "alice", ObjectKey: "alice/orphan.txt", Attempts: 2}
	if err := env.dbc.GetDB().Create(&tomb).Error; err != nil {
		t.Fatalf("create tombstone: %v", err)
	}

	if env.fs.ReapTombstone(context.Background(), &tomb) {
		t.Fatal("reap should fail")
	}

	kept, err := env.fs.FindTombstone(context.Background(), "alice", "alice/orphan.txt")
	if err != nil {
		t.Fatalf("tombstone vanished: %v", err)
	}

	if kept.Attempts != 3 || kept.LastError != "still down" {
		t.Errorf("tombstone = %+v", kept)
	}

	if kept.LastTriedAt == nil || time.Since(*kept.LastTriedAt) > time.Minute {
		t.Errorf("last_tried_at = %v", kept.LastTriedAt)
	}
}
