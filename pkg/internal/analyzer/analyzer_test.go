package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yeisme/filevault/pkg/configs"
)

// TestParseResponseJSON 模型按要求返回 JSON 时的解析.
func TestParseResponseJSON(t *testing.T) {
	raw := `{"summary": "A quarterly report.", "keywords": ["finance", "q3"], "caption": "Q3 report"}`

	result := parseResponse(raw, "report.pdf")

	if result.Summary != "A quarterly report." {
		t.Errorf("summary = %q", result.Summary)
	}

	if len(result.Keywords) != 2 || result.Keywords[0] != "finance" {
		t.Errorf("keywords = %v", result.Keywords)
	}

	if result.Caption != "Q3 report" {
		t.Errorf("caption = %q", result.Caption)
	}
}

// TestParseResponseCodeFence 模型把 JSON 包在 markdown 代码块里.
func TestParseResponseCodeFence(t *testing.T) {
	raw := "```json\n{\"summary\": \"Notes.\", \"keywords\": [\"memo\"], \"caption\": \"A memo\"}\n```"

	result := parseResponse(raw, "memo.txt")

	if result.Summary != "Notes." || result.Caption != "A memo" {
		t.Errorf("result = %+v", result)
	}
}

// TestParseResponseFallback 非 JSON 输出退化为按行解析.
func TestParseResponseFallback(t *testing.T) {
	raw := strings.Join([]string{
		"Summary: This file lists project milestones.",
		`Keywords: ["project", "milestones", "planning"]`,
		"Caption: Project milestone list",
	}, "\n")

	result := parseResponse(raw, "plan.txt")

	if result.Summary != "This file lists project milestones." {
		t.Errorf("summary = %q", result.Summary)
	}

	if len(result.Keywords) != 3 || result.Keywords[2] != "planning" {
		t.Errorf("keywords = %v", result.Keywords)
	}

	if result.Caption != "Project milestone list" {
		t.Errorf("caption = %q", result.Caption)
	}
}

// TestParseResponseEnsuresFields 解析不出任何字段时用兜底值补齐.
func TestParseResponseEnsuresFields(t *testing.T) {
	result := parseResponse("the model rambled with no structure", "data.csv")

	if result.Summary == "" || result.Caption == "" || len(result.Keywords) == 0 {
		t.Errorf("fields not backfilled: %+v", result)
	}

	if !strings.Contains(result.Summary, "CSV") {
		t.Errorf("summary should mention file type: %q", result.Summary)
	}

	if result.Keywords[0] != "data" {
		t.Errorf("keywords should derive from filename: %v", result.Keywords)
	}
}

// TestParseKeywordLineTruncates 关键词数量超限时截断.
func TestParseKeywordLineTruncates(t *testing.T) {
	line := `["a","b","c","d","e","f","g","h","i","j","k","l"]`

	got := parseKeywordLine(line)
	if len(got) != maxKeywords {
		t.Errorf("len = %d, want %d", len(got), maxKeywords)
	}
}

// TestExtractTextPlain 文本类扩展名直接返回内容.
func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText("notes.md", []byte("  # Heading\nbody  "))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if text != "# Heading\nbody" {
		t.Errorf("text = %q", text)
	}
}

// TestExtractTextInvalidUTF8 二进制内容冒充文本时报错.
func TestExtractTextInvalidUTF8(t *testing.T) {
	if _, err := ExtractText("blob.txt", []byte{0xff, 0xfe, 0x00}); err == nil {
		t.Error("expected error for invalid utf-8")
	}
}

// TestExtractTextUnsupported 未知扩展名返回空串而非报错.
func TestExtractTextUnsupported(t *testing.T) {
	text, err := ExtractText("archive.zip", []byte("PK..."))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

// TestAnalyzeContentDisabled 未配置 API Key 时直接返回 ErrDisabled.
func TestAnalyzeContentDisabled(t *testing.T) {
	svc := New(&configs.AIConfig{Enabled: true})

	_, err := svc.AnalyzeContent(context.Background(), "a.txt", []byte("hello world, enough text here"))
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

// TestAnalyzeContentInsufficient 文本不足最小阈值时返回 ErrInsufficientContent.
func TestAnalyzeContentInsufficient(t *testing.T) {
	svc := New(&configs.AIConfig{Enabled: true, APIKey: "test-key", MinTextLength: 20})

	_, err := svc.AnalyzeContent(context.Background(), "a.txt", []byte("too short"))
	if !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("err = %v, want ErrInsufficientContent", err)
	}
}
