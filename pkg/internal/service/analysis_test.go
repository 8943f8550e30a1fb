package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/queue"
)

// TestRequestAnalysisQueues 手动触发分析：置 pending 并入队.
func TestRequestAnalysisQueues(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	resp, err := env.fs.RequestAnalysis(context.Background(), "alice", "doc.pdf")
	if err != nil {
		t.Fatalf("RequestAnalysis failed: %v", err)
	}

	if resp.AIAnalysisStatus != string(model.AnalysisPending) {
		t.Errorf("status = %s", resp.AIAnalysisStatus)
	}

	if resp.Message != "AI analysis queued for doc.pdf" {
		t.Errorf("message = %q", resp.Message)
	}

	if env.pubsub.topicCount(queue.TopicAnalysisRequested) != 1 {
		t.Error("analysis request not published")
	}

	if got := env.record(t, "alice", "doc.pdf").AnalysisStatus; got != model.AnalysisPending {
		t.Errorf("record status = %s", got)
	}
}

// TestRequestAnalysisDedup 已 pending 的记录不重复入队.
func TestRequestAnalysisDedup(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	if _, err := env.fs.RequestAnalysis(context.Background(), "alice", "doc.pdf"); err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	resp, err := env.fs.RequestAnalysis(context.Background(), "alice", "doc.pdf")
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	if resp.Message != "AI analysis already pending for doc.pdf" {
		t.Errorf("message = %q", resp.Message)
	}

	if env.pubsub.topicCount(queue.TopicAnalysisRequested) != 1 {
		t.Error("pending record must not be requeued")
	}
}

// TestRequestAnalysisRetriggerAfterFailure 失败的分析可以重新触发.
func TestRequestAnalysisRetriggerAfterFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	if _, err := env.fs.RequestAnalysis(context.Background(), "alice", "doc.pdf"); err != nil {
		t.Fatalf("RequestAnalysis failed: %v", err)
	}

	if _, err := env.fs.FailAnalysis(context.Background(), "alice", "doc.pdf", "timeout"); err != nil {
		t.Fatalf("FailAnalysis failed: %v", err)
	}

	if _, err := env.fs.RequestAnalysis(context.Background(), "alice", "doc.pdf"); err != nil {
		t.Fatalf("retrigger failed: %v", err)
	}

	record := env.record(t, "alice", "doc.pdf")
	if record.AnalysisStatus != model.AnalysisPending || record.AIError != "" {
		t.Errorf("record = %s/%q", record.AnalysisStatus, record.AIError)
	}

	if env.pubsub.topicCount(queue.TopicAnalysisRequested) != 2 {
		t.Error("retrigger should publish a new request")
	}
}

// TestRequestAnalysisInfectedAllowed 感染文件允许分析，取证场景有价值.
func TestRequestAnalysisInfectedAllowed(t *testing.T) {
	env := newTestEnv(t, true)
	env.scanner.result.Infected = true
	env.scanner.result.VirusName = "Eicar-Test"

	if _, err := env.fs.Upload(context.Background(), "alice", "evil.bin", "", []byte("x")); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	resp, err := env.fs.RequestAnalysis(context.Background(), "alice", "evil.bin")
	if err != nil {
		t.Fatalf("RequestAnalysis failed: %v", err)
	}

	if resp.AIAnalysisStatus != string(model.AnalysisPending) {
		t.Errorf("status = %s", resp.AIAnalysisStatus)
	}
}

// TestRequestAnalysisNotFound 记录不存在返回 ErrNotFound.
func TestRequestAnalysisNotFound(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.fs.RequestAnalysis(context.Background(), "alice", "ghost.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
