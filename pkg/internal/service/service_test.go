package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/scanner"
	"github.com/yeisme/filevault/pkg/internal/storage/db"
	"github.com/yeisme/filevault/pkg/internal/storage/mq"
	"github.com/yeisme/filevault/pkg/queue"
)

// memStore 内存对象存储，按需注入故障.
type memStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte

	putErr     error
	getErr     error
	removeErr  error
	presignErr error

	// 每次签发递增，保证重签产生不同的 URL
	presignSeq int
}

func newMemStore(bucket string) *memStore {
	return &memStore{bucket: bucket, objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data

	return nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	if m.removeErr != nil {
		return m.removeErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)

	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]

	return ok, nil
}

func (m *memStore) PresignPreview(_ context.Context, key string, _ time.Duration) (string, error) {
	return m.presign("preview", key)
}

func (m *memStore) PresignDownload(_ context.Context, key string, _ time.Duration, _ string) (string, error) {
	return m.presign("download", key)
}

func (m *memStore) presign(kind, key string) (string, error) {
	if m.presignErr != nil {
		return "", m.presignErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.presignSeq++

	return fmt.Sprintf("https://%s.local/%s?disposition=%s&sig=%d", m.bucket, key, kind, m.presignSeq), nil
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]

	return ok
}

func (m *memStore) HealthCheck(context.Context) error { return nil }

func (m *memStore) Bucket() string { return m.bucket }

func (m *memStore) Close() error { return nil }

// memPubSub 记录发布的消息，发布断言无需异步订阅.
type memPubSub struct {
	mu        sync.Mutex
	published map[string][]*message.Message
}

func newMemPubSub() *memPubSub {
	return &memPubSub{published: map[string][]*message.Message{}}
}

func (p *memPubSub) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[topic] = append(p.published[topic], msgs...)

	return nil
}

func (p *memPubSub) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)

	return ch, nil
}

func (p *memPubSub) Close() error { return nil }

func (p *memPubSub) topicCount(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.published[topic])
}

func (p *memPubSub) last(topic string) *message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.published[topic]
	if len(msgs) == 0 {
		return nil
	}

	return msgs[len(msgs)-1]
}

// fakeScanner 可编排扫描结论的假扫描器.
type fakeScanner struct {
	result scanner.Result
	err    error
	scans  int
}

func (f *fakeScanner) ScanStream(context.Context, io.Reader) (*scanner.Result, error) {
	f.scans++

	if f.err != nil {
		return nil, f.err
	}

	res := f.result

	return &res, nil
}

// fakeAnalyzer 可编排分析结果的假分析器.
type fakeAnalyzer struct {
	enabled bool
	result  *model.AnalysisResult
	err     error
}

func (f *fakeAnalyzer) Enabled() bool { return f.enabled }

func (f *fakeAnalyzer) AnalyzeContent(context.Context, string, []byte) (*model.AnalysisResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.result, nil
}

// testEnv 服务测试环境：sqlite 临时库 + 内存对象存储 + 记录型发布器.
type testEnv struct {
	fs        *FileService
	primary   *memStore
	secondary *memStore
	scanner   *fakeScanner
	analyzer  *fakeAnalyzer
	pubsub    *memPubSub
	dbc       *db.Client
}

func newTestEnv(t *testing.T, withSecondary bool) *testEnv {
	t.Helper()

	if err := configs.InitConfig(""); err != nil {
		t.Fatalf("init config: %v", err)
	}

	dbc, err := db.NewWithConfig(context.Background(), &configs.DBConfig{
		Type:     configs.SQLite,
		Database: filepath.Join(t.TempDir(), "filevault_test"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	t.Cleanup(func() { _ = dbc.Close() })

	if err := dbc.Migrate(&model.FileRecord{}, &model.ActivityEvent{}, &model.Tombstone{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pubsub := newMemPubSub()

	env := &testEnv{
		primary:  newMemStore("filevault"),
		scanner:  &fakeScanner{},
		analyzer: &fakeAnalyzer{},
		pubsub:   pubsub,
		dbc:      dbc,
	}

	fs := &FileService{
		primary:  env.primary,
		dbClient: dbc,
		mqClient: mq.NewWithPubSub(pubsub, pubsub),
		scanner:  env.scanner,
		analyzer: env.analyzer,
	}

	if withSecondary {
		env.secondary = newMemStore("filevault-backup")
		fs.secondary = env.secondary
	}

	env.fs = fs

	return env
}

// mustUpload 上传一个干净文件并断言成功.
func (e *testEnv) mustUpload(t *testing.T, owner, filename string, data []byte) {
	t.Helper()

	if _, err := e.fs.Upload(context.Background(), owner, filename, "", data); err != nil {
		t.Fatalf("upload %s: %v", filename, err)
	}
}

// record 直接读库取记录.
func (e *testEnv) record(t *testing.T, owner, filename string) *model.FileRecord {
	t.Helper()

	var record model.FileRecord

	err := e.dbc.GetDB().
		Where("owner_id = ? AND filename = ?", owner, filename).
		First(&record).Error
	if err != nil {
		t.Fatalf("load record %s/%s: %v", owner, filename, err)
	}

	return &record
}

// decodeLast 解码指定主题的最后一条消息负载.
func decodeLast[T any](t *testing.T, p *memPubSub, topic string) queue.Message[T] {
	t.Helper()

	msg := p.last(topic)
	if msg == nil {
		t.Fatalf("no message published on %s", topic)
	}

	env, err := queue.Decode[T](msg.Payload)
	if err != nil {
		t.Fatalf("decode %s payload: %v", topic, err)
	}

	return env
}
