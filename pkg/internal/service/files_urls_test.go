package service

import (
	"context"
	"testing"
	"time"

	"github.com/yeisme/filevault/pkg/internal/model"
)

// ageURLs 把记录的 urls_issued_at 拨回到过去，模拟 URL 陈旧.
func ageURLs(t *testing.T, env *testEnv, owner, filename string, age time.Duration) {
	t.Helper()

	issued := time.Now().UTC().Add(-age)

	err := env.dbc.GetDB().
		Model(&model.FileRecord{}).
		Where("owner_id = ? AND filename = ?", owner, filename).
		Update("urls_issued_at", issued).Error
	if err != nil {
		t.Fatalf("age urls: %v", err)
	}
}

// TestRefreshURLs 强制重签生成新的 URL 并持久化.
func TestRefreshURLs(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "doc.pdf", []byte("content"))

	before := env.record(t, "alice", "doc.pdf")

	resp, err := env.fs.RefreshURLs(context.Background(), "alice", "doc.pdf")
	if err != nil {
		t.Fatalf("RefreshURLs failed: %v", err)
	}

	if resp.Message != "URLs refreshed successfully" {
		t.Errorf("message = %q", resp.Message)
	}

	after := env.record(t, "alice", "doc.pdf")
	if after.MinioPreviewURL == before.MinioPreviewURL {
		t.Error("preview url not reissued")
	}

	if !after.URLsIssuedAt.After(before.URLsIssuedAt) {
		t.Error("urls_issued_at not advanced")
	}
}

// TestEnsureFreshURLsSkipsFresh 未过陈旧阈值的 URL 原样返回，不触发重签.
func TestEnsureFreshURLsSkipsFresh(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "fresh.txt", []byte("x"))

	record := env.record(t, "alice", "fresh.txt")
	url := record.MinioPreviewURL

	if err := env.fs.EnsureFreshURLs(context.Background(), record); err != nil {
		t.Fatalf("EnsureFreshURLs failed: %v", err)
	}

	if record.MinioPreviewURL != url {
		t.Error("fresh urls should not be reissued")
	}
}

// TestEnsureFreshURLsReissuesStale 超过陈旧阈值（默认23h）的 URL 被重签并落库.
func TestEnsureFreshURLsReissuesStale(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "stale.txt", []byte("x"))
	ageURLs(t, env, "alice", "stale.txt", 24*time.Hour)

	record := env.record(t, "alice", "stale.txt")
	old := record.MinioPreviewURL

	if err := env.fs.EnsureFreshURLs(context.Background(), record); err != nil {
		t.Fatalf("EnsureFreshURLs failed: %v", err)
	}

	if record.MinioPreviewURL == old {
		t.Error("stale urls should be reissued")
	}

	persisted := env.record(t, "alice", "stale.txt")
	if persisted.MinioPreviewURL != record.MinioPreviewURL {
		t.Error("reissued urls not persisted")
	}
}

// TestReissueSecondaryURLsOnlyWhenSynced 备存储 URL 只对已同步的记录签发.
func TestReissueSecondaryURLsOnlyWhenSynced(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "synced.txt", []byte("x"))
	env.mustUpload(t, "alice", "pending.txt", []byte("y"))

	if _, err := env.fs.CompleteSync(context.Background(), "alice", "synced.txt", "p", "d", 1); err != nil {
		t.Fatalf("CompleteSync failed: %v", err)
	}

	for _, name := range []string{"synced.txt", "pending.txt"} {
		ageURLs(t, env, "alice", name, 24*time.Hour)

		record := env.record(t, "alice", name)
		if err := env.fs.EnsureFreshURLs(context.Background(), record); err != nil {
			t.Fatalf("EnsureFreshURLs %s failed: %v", name, err)
		}
	}

	if got := env.record(t, "alice", "synced.txt"); got.S3PreviewURL == "p" || got.S3PreviewURL == "" {
		t.Errorf("synced record should get fresh secondary urls, got %q", got.S3PreviewURL)
	}

	if got := env.record(t, "alice", "pending.txt"); got.S3PreviewURL != "" {
		t.Errorf("unsynced record must not get secondary urls, got %q", got.S3PreviewURL)
	}
}

// TestRefreshStaleURLs 后台清扫只重签超过阈值的记录.
func TestRefreshStaleURLs(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "old.txt", []byte("x"))
	env.mustUpload(t, "alice", "new.txt", []byte("y"))
	ageURLs(t, env, "alice", "old.txt", 25*time.Hour)

	newURL := env.record(t, "alice", "new.txt").MinioPreviewURL

	refreshed, err := env.fs.RefreshStaleURLs(context.Background())
	if err != nil {
		t.Fatalf("RefreshStaleURLs failed: %v", err)
	}

	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}

	if got := env.record(t, "alice", "new.txt").MinioPreviewURL; got != newURL {
		t.Error("fresh record should be untouched")
	}
}
