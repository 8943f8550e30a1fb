package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/cache"
)

// mockKVStore 内存KV实现，供缓存语义测试.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	data, ok := m.data[key]
	if !ok {
		return nil, errors.New("key not found")
	}

	return data, nil
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}

	m.data[key] = value

	return nil
}

func (m *mockKVStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockKVStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockKVStore) Keys(_ context.Context, _ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}

	return keys, nil
}

func (m *mockKVStore) Close() error { return nil }

type fileEntry struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// TestSetGet 写入后读回，类型与值保持一致.
func TestSetGet(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	entry := fileEntry{Filename: "report.pdf", Size: 1024}
	if err := cache.Set(ctx, c, "file:report.pdf", entry, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get[fileEntry](ctx, c, "file:report.pdf")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got != entry {
		t.Errorf("got = %+v, want %+v", got, entry)
	}
}

// TestGetMiss 未命中返回错误，调用方降级到源数据.
func TestGetMiss(t *testing.T) {
	c := cache.NewCache(newMockKVStore())

	if _, err := cache.Get[fileEntry](context.Background(), c, "missing"); err == nil {
		t.Error("expected error on cache miss")
	}
}

// TestGetCorruptValue 底层数据损坏时报错而非返回零值.
func TestGetCorruptValue(t *testing.T) {
	store := newMockKVStore()
	store.data["bad"] = []byte("{not json")
	c := cache.NewCache(store)

	if _, err := cache.Get[fileEntry](context.Background(), c, "bad"); err == nil {
		t.Error("expected unmarshal error")
	}
}

// TestGetOrSetLoadsOnMiss 未命中时执行 getter 并回填缓存.
func TestGetOrSetLoadsOnMiss(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	calls := 0
	getter := func() (fileEntry, error) {
		calls++
		return fileEntry{Filename: "a.txt", Size: 1}, nil
	}

	for range 2 {
		got, err := cache.GetOrSet(ctx, c, "file:a.txt", getter, time.Hour)
		if err != nil {
			t.Fatalf("GetOrSet failed: %v", err)
		}

		if got.Filename != "a.txt" {
			t.Errorf("got = %+v", got)
		}
	}

	// 第二次命中缓存，getter 不再执行
	if calls != 1 {
		t.Errorf("getter calls = %d, want 1", calls)
	}
}

// TestGetOrSetGetterError getter 失败时错误透传，不写缓存.
func TestGetOrSetGetterError(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)

	wantErr := errors.New("source down")

	_, err := cache.GetOrSet(context.Background(), c, "k", func() (fileEntry, error) {
		return fileEntry{}, wantErr
	}, time.Hour)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v", err)
	}

	if len(store.data) != 0 {
		t.Error("failed load must not populate cache")
	}
}

// TestGetOrSetSetFailureStillReturnsValue 回填失败不影响取到的值.
func TestGetOrSetSetFailureStillReturnsValue(t *testing.T) {
	store := newMockKVStore()
	store.setErr = errors.New("kv down")
	c := cache.NewCache(store)

	got, err := cache.GetOrSet(context.Background(), c, "k", func() (fileEntry, error) {
		return fileEntry{Filename: "b.txt"}, nil
	}, time.Hour)
	if err != nil {
		t.Fatalf("GetOrSet failed: %v", err)
	}

	if got.Filename != "b.txt" {
		t.Errorf("got = %+v", got)
	}
}

// TestDeleteAndExists 删除后键不存在.
func TestDeleteAndExists(t *testing.T) {
	c := cache.NewCache(newMockKVStore())
	ctx := context.Background()

	if err := cache.Set(ctx, c, "k", fileEntry{Filename: "x"}, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ok, err := c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	ok, err = c.Exists(ctx, "k")
	if err != nil || ok {
		t.Errorf("Exists after delete = %v, %v", ok, err)
	}
}

// TestClear 清空全部缓存键.
func TestClear(t *testing.T) {
	store := newMockKVStore()
	c := cache.NewCache(store)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := cache.Set(ctx, c, k, fileEntry{Filename: k}, time.Hour); err != nil {
			t.Fatalf("Set %s failed: %v", k, err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if len(store.data) != 0 {
		t.Errorf("remaining keys = %d", len(store.data))
	}
}
