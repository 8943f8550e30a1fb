// Package analyzer 封装 OpenAI 兼容的内容分析客户端.
// 每个文件只做一次分析尝试，失败即落盘 ai_error，不做自动重试.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	openai "github.com/sashabaranov/go-openai"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/model"
)

// ErrInsufficientContent 提取文本不足以分析，记录为失败但不重试.
var ErrInsufficientContent = errors.New("insufficient content")

// ErrDisabled AI 分析未启用（未配置 API Key 或显式关闭）.
var ErrDisabled = errors.New("ai analysis disabled")

const (
	maxKeywords         = 10
	completionTokens    = 1024
	analysisTemperature = 0.1
	analysisTopP        = 0.9
)

// Service OpenAI 兼容服务客户端，BaseURL 可指向 Groq 等第三方端点.
type Service struct {
	client *openai.Client
	cfg    *configs.AIConfig
}

// New 根据配置创建分析客户端.
func New(cfg *configs.AIConfig) *Service {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(oc),
		cfg:    cfg,
	}
}

// Enabled 分析功能是否可用.
func (s *Service) Enabled() bool {
	return s.cfg.Enabled && s.cfg.APIKey != ""
}

// AnalyzeContent 提取文本并调用模型，返回结构化分析结果.
func (s *Service) AnalyzeContent(ctx context.Context, filename string, data []byte) (*model.AnalysisResult, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	if len(strings.TrimSpace(text)) < s.cfg.MinTextLength {
		return nil, ErrInsufficientContent
	}

	return s.analyzeText(ctx, filename, text)
}

func (s *Service) analyzeText(ctx context.Context, filename, text string) (*model.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.GetTimeoutDuration())
	defer cancel()

	preview := text
	if len(preview) > s.cfg.MaxContentChars {
		preview = preview[:s.cfg.MaxContentChars]
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(filename, preview)},
		},
		Temperature: analysisTemperature,
		MaxTokens:   completionTokens,
		TopP:        analysisTopP,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	result := parseResponse(resp.Choices[0].Message.Content, filename)
	result.AnalysisDate = time.Now().UTC().Format(time.RFC3339)
	result.ModelUsed = s.cfg.Model

	return result, nil
}

func buildPrompt(filename, preview string) string {
	return fmt.Sprintf(`Analyze the following content from the file %q and provide:

1. A concise 2-3 sentence summary
2. 5-10 relevant keywords or key phrases as a JSON array
3. A brief one-sentence caption

Return your response as a JSON object with the following structure:
{
  "summary": "your summary here",
  "keywords": ["keyword1", "keyword2", ...],
  "caption": "your caption here"
}

Content to analyze:
%s

JSON Response:`, filename, preview)
}

// parseResponse 优先按 JSON 解析模型输出，失败时退化为按行解析.
func parseResponse(raw, filename string) *model.AnalysisResult {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var result model.AnalysisResult
	if err := sonic.Unmarshal([]byte(cleaned), &result); err != nil {
		result = parseFallback(cleaned)
	}

	ensureFields(&result, filename)

	return &result
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

func parseFallback(raw string) model.AnalysisResult {
	var result model.AnalysisResult

	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)

		switch {
		case strings.Contains(lower, "summary") && result.Summary == "":
			result.Summary = afterColon(line)
		case strings.Contains(lower, "keyword") && len(result.Keywords) == 0:
			result.Keywords = parseKeywordLine(afterColon(line))
		case strings.Contains(lower, "caption") && result.Caption == "":
			result.Caption = afterColon(line)
		}
	}

	return result
}

func afterColon(line string) string {
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}

	return strings.TrimSpace(line)
}

func parseKeywordLine(line string) []string {
	var parsed []string
	if err := sonic.Unmarshal([]byte(line), &parsed); err != nil {
		for _, k := range strings.Split(strings.Trim(line, "[]"), ",") {
			k = strings.Trim(strings.TrimSpace(k), `"`)
			if k != "" {
				parsed = append(parsed, k)
			}
		}
	}

	if len(parsed) > maxKeywords {
		parsed = parsed[:maxKeywords]
	}

	return parsed
}

// ensureFields 兜底填充缺失字段，保证结果始终完整.
func ensureFields(r *model.AnalysisResult, filename string) {
	ext := strings.ToUpper(strings.TrimPrefix(strings.ToLower(filenameExt(filename)), "."))

	if r.Summary == "" {
		r.Summary = fmt.Sprintf("This appears to be a %s file containing relevant content.", ext)
	}

	if len(r.Keywords) == 0 {
		base := filename
		if idx := strings.Index(base, "."); idx > 0 {
			base = base[:idx]
		}

		r.Keywords = []string{base, "document", "file"}
	}

	if r.Caption == "" {
		r.Caption = "Document: " + filename
	}
}

func filenameExt(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}

	return ""
}
