package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPresignExpiryHours   = 24 // 预签名URL有效期（小时）
	DefaultStaleThresholdHours  = 23 // URL视为过期的年龄阈值（小时）
	DefaultRefreshSweepHours    = 6  // URL后台刷新周期（小时）
	DefaultSyncBackoffBaseSecs  = 1  // 备存储同步重试退避基数（秒）
	DefaultSyncBackoffCapMins   = 5  // 备存储同步重试退避上限（分钟）
	DefaultTombstoneSweepMins   = 60 // 墓碑清理对账周期（分钟）
	DefaultSyncRequeueSweepMins = 5  // 待同步记录补投周期（分钟），进程重启后的兜底
)

// LifecycleConfig 文件生命周期策略：预签名URL窗口、后台清扫周期与同步退避.
// 阈值须小于有效期，否则刷新间隙内会出现已失效的URL.
type LifecycleConfig struct {
	PresignExpiryHours   int      `mapstructure:"presign_expiry_hours"    rule:"min=1,max=168"`
	StaleThresholdHours  int      `mapstructure:"stale_threshold_hours"   rule:"min=1,max=167"`
	RefreshSweepHours    int      `mapstructure:"refresh_sweep_hours"     rule:"min=1,max=24"`
	SyncBackoffBaseSecs  int      `mapstructure:"sync_backoff_base_secs"  rule:"min=1"`
	SyncBackoffCapMins   int      `mapstructure:"sync_backoff_cap_mins"   rule:"min=1"`
	TombstoneSweepMins   int      `mapstructure:"tombstone_sweep_mins"    rule:"min=1"`
	SyncRequeueSweepMins int      `mapstructure:"sync_requeue_sweep_mins" rule:"min=1"`
	AnalyzableExtensions []string `mapstructure:"analyzable_extensions"`
}

// GetPresignExpiry 返回预签名URL有效期.
func (c *LifecycleConfig) GetPresignExpiry() time.Duration {
	return time.Duration(c.PresignExpiryHours) * time.Hour
}

// GetStaleThreshold 返回URL过期年龄阈值.
func (c *LifecycleConfig) GetStaleThreshold() time.Duration {
	return time.Duration(c.StaleThresholdHours) * time.Hour
}

// GetSyncBackoffBase 返回同步退避基数.
func (c *LifecycleConfig) GetSyncBackoffBase() time.Duration {
	return time.Duration(c.SyncBackoffBaseSecs) * time.Second
}

// GetSyncBackoffCap 返回同步退避上限.
func (c *LifecycleConfig) GetSyncBackoffCap() time.Duration {
	return time.Duration(c.SyncBackoffCapMins) * time.Minute
}

// IsAnalyzable 判断文件扩展名是否在可分析白名单内（不含点，大小写不敏感由调用方保证）.
func (c *LifecycleConfig) IsAnalyzable(ext string) bool {
	for _, e := range c.AnalyzableExtensions {
		if e == ext {
			return true
		}
	}

	return false
}

// setDefaults 设置生命周期配置的默认值.
func (c *LifecycleConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("lifecycle.presign_expiry_hours", DefaultPresignExpiryHours)
	v.SetDefault("lifecycle.stale_threshold_hours", DefaultStaleThresholdHours)
	v.SetDefault("lifecycle.refresh_sweep_hours", DefaultRefreshSweepHours)
	v.SetDefault("lifecycle.sync_backoff_base_secs", DefaultSyncBackoffBaseSecs)
	v.SetDefault("lifecycle.sync_backoff_cap_mins", DefaultSyncBackoffCapMins)
	v.SetDefault("lifecycle.tombstone_sweep_mins", DefaultTombstoneSweepMins)
	v.SetDefault("lifecycle.sync_requeue_sweep_mins", DefaultSyncRequeueSweepMins)
	v.SetDefault("lifecycle.analyzable_extensions", []string{
		"pdf", "txt", "jpg", "jpeg", "png", "gif", "csv", "json", "xml",
	})
}
