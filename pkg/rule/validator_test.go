package rule_test

import (
	"testing"

	"github.com/yeisme/filevault/pkg/rule"
)

// uploadForm 模拟上传请求的校验结构.
type uploadForm struct {
	Filename string `rule:"required,safe_filename"`
	Size     int64  `rule:"gte=0"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	engine := rule.Engine()
	if engine == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试 ValidateStruct 对有效和无效结构体的验证.
func TestValidateStruct(t *testing.T) {
	valid := uploadForm{Filename: "report.pdf", Size: 1024}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	// 缺少文件名
	missing := uploadForm{Filename: "", Size: 1024}
	if err := rule.ValidateStruct(missing); err == nil {
		t.Error("Expected error for missing filename, got nil")
	}

	// 负的大小
	negative := uploadForm{Filename: "report.pdf", Size: -1}
	if err := rule.ValidateStruct(negative); err == nil {
		t.Error("Expected error for negative size, got nil")
	}
}

// TestSafeFilename 测试 safe_filename 自定义规则.
func TestSafeFilename(t *testing.T) {
	cases := []struct {
		name    string
		wantErr bool
	}{
		{"report.pdf", false},
		{"photo 2024.jpg", false},
		{"../etc/passwd", true},
		{"dir/file.txt", true},
		{"dir\\file.txt", true},
		{".", true},
		{"..", true},
		{"", true},
	}

	for _, c := range cases {
		err := rule.ValidateVar(c.name, "safe_filename")
		if c.wantErr && err == nil {
			t.Errorf("Expected error for %q, got nil", c.name)
		}

		if !c.wantErr && err != nil {
			t.Errorf("Expected no error for %q, got %v", c.name, err)
		}
	}
}

// TestValidateVar 测试 ValidateVar 对变量的验证.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("test@example.com", "required,email"); err != nil {
		t.Errorf("Expected no error for valid email, got %v", err)
	}

	if err := rule.ValidateVar("invalid-email", "required,email"); err == nil {
		t.Error("Expected error for invalid email, got nil")
	}
}

// TestRegisterAlias 测试注册别名.
func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("object_key", "required,safe_filename")

	if err := rule.ValidateVar("notes.txt", "object_key"); err != nil {
		t.Errorf("Expected no error for valid key with alias, got %v", err)
	}

	if err := rule.ValidateVar("../notes.txt", "object_key"); err == nil {
		t.Error("Expected error for invalid key with alias, got nil")
	}
}
