package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/queue"
)

// TestDeleteFile 删除主存储对象与记录，发布删除事件.
func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "gone.txt", []byte("bye"))

	resp, err := env.fs.DeleteFile(context.Background(), "alice", "gone.txt")
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}

	if resp.Message != "gone.txt deleted successfully" {
		t.Errorf("message = %q", resp.Message)
	}

	if env.primary.has("alice/gone.txt") {
		t.Error("object still in primary store")
	}

	if _, err := env.fs.GetFile(context.Background(), "alice", "gone.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("record lookup err = %v, want ErrNotFound", err)
	}

	deleted := decodeLast[queue.FileDeletedPayload](t, env.pubsub, queue.TopicFileDeleted)
	if deleted.Payload.File.Filename != "gone.txt" || !deleted.Payload.SecondaryDeleted {
		t.Errorf("deleted payload = %+v", deleted.Payload)
	}
}

// TestDeleteFileNotFound 不存在的文件返回 ErrNotFound.
func TestDeleteFileNotFound(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.fs.DeleteFile(context.Background(), "alice", "ghost.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// TestDeleteFilePrimaryFailure 主存储删除失败时保留记录并返回 503 级错误.
func TestDeleteFilePrimaryFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "stuck.txt", []byte("x"))
	env.primary.removeErr = errors.New("timeout")

	_, err := env.fs.DeleteFile(context.Background(), "alice", "stuck.txt")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}

	// 记录未删，用户可重试
	if _, err := env.fs.GetFile(context.Background(), "alice", "stuck.txt"); err != nil {
		t.Errorf("record should survive failed delete: %v", err)
	}
}

// TestDeleteFileSecondaryFailureLeavesTombstone 备存储删除失败不阻塞响应，留墓碑补删.
func TestDeleteFileSecondaryFailureLeavesTombstone(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "synced.txt", []byte("x"))

	if _, err := env.fs.CompleteSync(context.Background(), "alice", "synced.txt", "p", "d", 1); err != nil {
		t.Fatalf("CompleteSync failed: %v", err)
	}

	env.secondary.removeErr = errors.New("access denied")

	resp, err := env.fs.DeleteFile(context.Background(), "alice", "synced.txt")
	if err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}

	if resp.Message == "" {
		t.Error("delete should still succeed for the user")
	}

	tomb, err := env.fs.FindTombstone(context.Background(), "alice", "alice/synced.txt")
	if err != nil {
		t.Fatalf("tombstone not created: %v", err)
	}

	if tomb.Attempts != 1 || tomb.LastError == "" {
		t.Errorf("tombstone = %+v", tomb)
	}

	if env.pubsub.topicCount(queue.TopicTombstoneCreated) != 1 {
		t.Error("tombstone event not published")
	}

	deleted := decodeLast[queue.FileDeletedPayload](t, env.pubsub, queue.TopicFileDeleted)
	if deleted.Payload.SecondaryDeleted {
		t.Error("secondary_deleted should be false")
	}
}

// TestDeleteFileUnsyncedSkipsSecondary 从未同步的文件没有备存储对象可删，不留墓碑.
func TestDeleteFileUnsyncedSkipsSecondary(t *testing.T) {
	env := newTestEnv(t, true)
	env.mustUpload(t, "alice", "local.txt", []byte("x"))
	env.secondary.removeErr = errors.New("should not be called")

	if _, err := env.fs.DeleteFile(context.Background(), "alice", "local.txt"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}

	if _, err := env.fs.FindTombstone(context.Background(), "alice", "alice/local.txt"); err == nil {
		t.Error("no tombstone expected for unsynced file")
	}

	var count int64

	env.dbc.GetDB().Model(&model.Tombstone{}).Count(&count)

	if count != 0 {
		t.Errorf("tombstones = %d, want 0", count)
	}
}
