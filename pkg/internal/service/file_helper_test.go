package service

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/filevault/pkg/configs"
)

func TestObjectKey(t *testing.T) {
	if got := ObjectKey("alice", "report.pdf"); got != "alice/report.pdf" {
		t.Errorf("ObjectKey = %q", got)
	}
}

// TestInferContentType 客户端声明优先，octet-stream 视为未声明退回扩展名推断.
func TestInferContentType(t *testing.T) {
	cases := []struct {
		filename string
		declared string
		want     string
	}{
		{"a.pdf", "application/pdf", "application/pdf"},
		// charset 参数被剥离
		{"page.html", "", "text/html"},
		// 兜底声明不可信，按扩展名推断
		{"a.PDF", DefaultOctetStream, "application/pdf"},
		// 未知扩展名
		{"mystery.xyz123", "", DefaultOctetStream},
		{"noext", "", DefaultOctetStream},
	}

	for _, tc := range cases {
		if got := inferContentType(tc.filename, tc.declared); got != tc.want {
			t.Errorf("inferContentType(%q, %q) = %q, want %q", tc.filename, tc.declared, got, tc.want)
		}
	}
}

// TestURLsStale 默认阈值 23h：未满不陈旧，达到即陈旧.
func TestURLsStale(t *testing.T) {
	if err := configs.InitConfig(""); err != nil {
		t.Fatalf("init config: %v", err)
	}

	now := time.Now().UTC()

	if urlsStale(now.Add(-22*time.Hour), now) {
		t.Error("22h old urls should still be fresh")
	}

	if !urlsStale(now.Add(-23*time.Hour), now) {
		t.Error("23h old urls should be stale")
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	if !isDuplicateKeyErr(gorm.ErrDuplicatedKey) {
		t.Error("gorm.ErrDuplicatedKey not recognized")
	}

	if !isDuplicateKeyErr(errors.New("UNIQUE constraint failed: file_records.owner_id")) {
		t.Error("sqlite unique violation not recognized")
	}

	if isDuplicateKeyErr(errors.New("connection refused")) {
		t.Error("unrelated error misclassified")
	}
}
