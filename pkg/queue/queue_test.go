package queue_test

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filevault/pkg/queue"
)

func sampleFileRef() queue.FileRef {
	return queue.FileRef{
		OwnerID:     "alice",
		Filename:    "report.pdf",
		ObjectKey:   "alice/report.pdf",
		Bucket:      "filevault",
		Size:        42,
		ContentType: "application/pdf",
	}
}

// TestNewWatermillMessageRoundtrip 验证消息封装与解析往返一致.
func TestNewWatermillMessageRoundtrip(t *testing.T) {
	payload := queue.SyncRequestedPayload{File: sampleFileRef(), Requeued: true}

	msg, err := queue.NewWatermillMessage(queue.TopicSyncRequested, payload,
		queue.WithProducer("filevault"),
		queue.WithTraceID("trace-123"),
	)
	if err != nil {
		t.Fatalf("NewWatermillMessage failed: %v", err)
	}

	env, err := queue.ParseWatermillMessage[queue.SyncRequestedPayload](msg)
	if err != nil {
		t.Fatalf("ParseWatermillMessage failed: %v", err)
	}

	if env.Header.Topic != queue.TopicSyncRequested {
		t.Errorf("topic = %q, want %q", env.Header.Topic, queue.TopicSyncRequested)
	}

	if env.Header.Producer != "filevault" || env.Header.TraceID != "trace-123" {
		t.Errorf("header not preserved: %+v", env.Header)
	}

	if env.Header.Version != queue.PayloadVersionV1 {
		t.Errorf("version = %q, want %q", env.Header.Version, queue.PayloadVersionV1)
	}

	if env.Payload.File != sampleFileRef() {
		t.Errorf("payload file = %+v", env.Payload.File)
	}

	if !env.Payload.Requeued {
		t.Error("requeued flag lost")
	}
}

// TestWatermillMessageMetadata 验证元数据写入，供不解包的消费者路由.
func TestWatermillMessageMetadata(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicAnalysisRequested,
		queue.AnalysisRequestedPayload{File: sampleFileRef()},
		queue.WithProducer("filevault"),
	)
	if err != nil {
		t.Fatalf("NewWatermillMessage failed: %v", err)
	}

	if got := msg.Metadata.Get("topic"); got != queue.TopicAnalysisRequested {
		t.Errorf("metadata topic = %q", got)
	}

	if got := msg.Metadata.Get("producer"); got != "filevault" {
		t.Errorf("metadata producer = %q", got)
	}

	if msg.Metadata.Get("occurred_at") == "" {
		t.Error("metadata occurred_at missing")
	}
}

// TestDecodeUnknownFields 验证消费者忽略未知字段，便于负载演进.
func TestDecodeUnknownFields(t *testing.T) {
	raw := []byte(`{
		"header": {"topic": "fv.file.infected", "version": "v1", "future_field": 1},
		"payload": {"file": {"owner_id": "bob", "filename": "x.bin", "object_key": "bob/x.bin"}, "virus_name": "Eicar-Test", "stage": "ingest", "extra": true}
	}`)

	env, err := queue.Decode[queue.FileInfectedPayload](raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if env.Payload.VirusName != "Eicar-Test" || env.Payload.Stage != "ingest" {
		t.Errorf("payload = %+v", env.Payload)
	}

	if env.Payload.File.OwnerID != "bob" {
		t.Errorf("owner = %q", env.Payload.File.OwnerID)
	}
}

// TestParseSyncRequested 验证 sync 主题的类型化解析助手.
func TestParseSyncRequested(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicSyncRequested,
		queue.SyncRequestedPayload{File: sampleFileRef()},
	)
	if err != nil {
		t.Fatalf("NewWatermillMessage failed: %v", err)
	}

	env, err := queue.ParseSyncRequested(msg)
	if err != nil {
		t.Fatalf("ParseSyncRequested failed: %v", err)
	}

	if env.Payload.File.ObjectKey != "alice/report.pdf" {
		t.Errorf("object key = %q", env.Payload.File.ObjectKey)
	}

	if env.Payload.Requeued {
		t.Error("requeued should default to false")
	}

	// 非法负载应报错
	bad := message.NewMessage("bad", []byte("not-json"))
	if _, err := queue.ParseSyncRequested(bad); err == nil {
		t.Error("expected error for malformed payload")
	}
}
