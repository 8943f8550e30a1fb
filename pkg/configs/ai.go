package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAIModel           = "llama-3.1-8b-instant" // 默认分析模型
	DefaultAIBaseURL         = ""                     // 为空时使用官方 OpenAI 端点
	DefaultAITimeout         = 60                     // 分析请求超时（秒）
	DefaultAIMaxContentChars = 4000                   // 送入模型的文本截断长度
	DefaultAIMinTextLength   = 20                     // 可分析的最小提取文本长度
)

// AIConfig AI 内容分析配置.
// BaseURL 可指向任意 OpenAI 兼容服务（如 Groq）.
type AIConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Model           string `mapstructure:"model"`
	Timeout         int    `mapstructure:"timeout"           rule:"min=1,max=600"`
	MaxContentChars int    `mapstructure:"max_content_chars" rule:"min=100"`
	MinTextLength   int    `mapstructure:"min_text_length"   rule:"min=1"`
}

// GetTimeoutDuration 返回分析超时作为time.Duration.
func (c *AIConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// setDefaults 设置 AI 配置的默认值.
func (c *AIConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", DefaultAIBaseURL)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.max_content_chars", DefaultAIMaxContentChars)
	v.SetDefault("ai.min_text_length", DefaultAIMinTextLength)
}
