package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultScannerHost    = "localhost" // 默认 clamd 主机
	DefaultScannerPort    = 3310        // 默认 clamd 端口
	DefaultScannerTimeout = 30          // 扫描超时时间（秒）
)

// ScannerConfig 病毒扫描器（clamd）配置.
// 扫描器不可达时上传会被整体拒绝，而不是跳过扫描放行.
type ScannerConfig struct {
	Host    string `mapstructure:"host"    rule:"hostname"`
	Port    int    `mapstructure:"port"    rule:"min=1,max=65535"`
	Timeout int    `mapstructure:"timeout" rule:"min=1,max=300"`
}

// GetAddress 返回 clamd 的 TCP 地址.
func (c *ScannerConfig) GetAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// GetTimeoutDuration 返回扫描超时作为time.Duration.
func (c *ScannerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// setDefaults 设置扫描器配置的默认值.
func (c *ScannerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("scanner.host", DefaultScannerHost)
	v.SetDefault("scanner.port", DefaultScannerPort)
	v.SetDefault("scanner.timeout", DefaultScannerTimeout)
}
