package analyzer

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ExtractText 按扩展名从文件内容提取可分析文本.
// 提取不到有效文本时返回空串，由调用方结合最小长度阈值判定是否可分析.
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	switch ext {
	case "pdf":
		return extractFromPDF(data)
	case "txt", "csv", "json", "xml", "log", "md":
		return extractFromPlainText(data)
	case "png", "jpg", "jpeg", "gif", "tiff", "bmp":
		// 无 OCR 依赖，退化为基于文件名的描述，交由模型生成标题与关键词
		return fmt.Sprintf("Image file %q of type %s. No embedded text available; describe it based on the file name.", filename, ext), nil
	case "doc", "docx":
		return fmt.Sprintf("Word document: %s. Content analysis requires additional libraries.", filename), nil
	default:
		return "", nil
	}
}

func extractFromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return strings.TrimSpace(sb.String()), nil
}

func extractFromPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("content is not valid utf-8 text")
	}

	return strings.TrimSpace(string(data)), nil
}
