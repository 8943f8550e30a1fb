package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/internal/storage/kv"
)

// TestMemoryKVBasic 测试内存KV的基本读写删除.
func TestMemoryKVBasic(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "url:alice:report.pdf", []byte("https://example/presigned"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	val, err := store.Get(ctx, "url:alice:report.pdf")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if string(val) != "https://example/presigned" {
		t.Errorf("unexpected value: %s", val)
	}

	exists, err := store.Exists(ctx, "url:alice:report.pdf")
	if err != nil || !exists {
		t.Errorf("expected key to exist, got exists=%v err=%v", exists, err)
	}

	if err := store.Delete(ctx, "url:alice:report.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := store.Get(ctx, "url:alice:report.pdf"); err == nil {
		t.Error("expected error after delete, got nil")
	}
}

// TestMemoryKVTTL 测试内存KV的惰性过期.
func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}
	defer store.Close()

	if err := store.Set(ctx, "short", []byte("v"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	// TTL 以秒为粒度，未过期时应可读
	if _, err := store.Get(ctx, "short"); err != nil {
		t.Fatalf("get before expiry: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := store.Get(ctx, "short"); err == nil {
		t.Error("expected expired key to be gone, got value")
	}

	exists, err := store.Exists(ctx, "short")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}

	if exists {
		t.Error("expected expired key to not exist")
	}
}

// TestMemoryKVKeys 测试键列举.
func TestMemoryKVKeys(t *testing.T) {
	ctx := context.Background()

	store, err := kv.NewKVStore(ctx, kv.KVTypeMemory, nil)
	if err != nil {
		t.Fatalf("create memory kv: %v", err)
	}
	defer store.Close()

	for _, k := range []string{"a", "b", "c"} {
		if err := store.Set(ctx, k, []byte("x"), 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	keys, err := store.Keys(ctx, "")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}

	if len(keys) != 3 {
		t.Errorf("expected 3 keys, got %d", len(keys))
	}
}

// TestUnsupportedKVType 测试未注册类型返回错误.
func TestUnsupportedKVType(t *testing.T) {
	_, err := kv.NewKVStore(context.Background(), kv.KVType("etcd"), nil)
	if err == nil {
		t.Error("expected error for unsupported kv type, got nil")
	}
}
