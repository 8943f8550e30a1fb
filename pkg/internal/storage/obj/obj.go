// Package obj 抽象对象存储操作，通过工厂模式支持多种驱动.
//
// 当前支持的驱动：
//   - minio（minio-go SDK，主存储默认）
//   - s3（aws-sdk-go-v2，备存储默认）
//
// 主备存储共用同一接口，复制与删除逻辑不感知具体驱动.
package obj

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
)

// Store 定义对象存储接口.
type Store interface {
	// Put 上传对象.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Get 读取对象内容.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove 删除对象.
	Remove(ctx context.Context, key string) error
	// Exists 检查对象是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// PresignPreview 生成内联预览的预签名GET URL.
	PresignPreview(ctx context.Context, key string, expiry time.Duration) (string, error)
	// PresignDownload 生成附件下载的预签名GET URL，filename 作为下载文件名.
	PresignDownload(ctx context.Context, key string, expiry time.Duration, filename string) (string, error)
	// HealthCheck 验证后端可达.
	HealthCheck(ctx context.Context) error
	// Bucket 返回桶名.
	Bucket() string
	// Close 释放连接.
	Close() error
}

// Factory 定义创建 Store 的工厂函数类型.
type Factory func(ctx context.Context, cfg *configs.StoreBackend) (Store, error)

// factories 存储驱动类型到工厂的映射.
var factories = map[configs.StoreDriver]Factory{}

// RegisterFactory 注册对象存储驱动工厂函数.
func RegisterFactory(driver configs.StoreDriver, factory Factory) {
	factories[driver] = factory
}

// GetRegisteredDrivers 返回已注册的驱动列表.
func GetRegisteredDrivers() []configs.StoreDriver {
	drivers := make([]configs.StoreDriver, 0, len(factories))
	for d := range factories {
		drivers = append(drivers, d)
	}

	return drivers
}

// New 根据配置创建 Store 实例.
func New(ctx context.Context, cfg *configs.StoreBackend) (Store, error) {
	factory, exists := factories[cfg.Driver]
	if !exists {
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}

	return factory(ctx, cfg)
}
