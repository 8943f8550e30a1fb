package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// StoreDriver 对象存储驱动类型.
type StoreDriver string

const (
	// StoreDriverMinIO MinIO 驱动（minio-go SDK）.
	StoreDriverMinIO StoreDriver = "minio"
	// StoreDriverS3 AWS S3 驱动（aws-sdk-go-v2）.
	StoreDriverS3 StoreDriver = "s3"
)

const (
	DefaultPrimaryEndpoint     = "localhost:9000" // 默认主存储端点
	DefaultPrimaryAccessKey    = "minioadmin"     // 默认主存储访问密钥
	DefaultPrimarySecretKey    = "minioadmin"     // 默认主存储秘密密钥
	DefaultPrimaryBucket       = "filevault"      // 默认主存储桶名称
	DefaultSecondaryBucket     = "filevault-sync" // 默认备存储桶名称
	DefaultStoreRegion         = "us-east-1"      // 默认区域
	DefaultSecondaryConcurrent = 4                // 备存储同步并发上限
)

// StoreBackend 单个对象存储后端配置.
type StoreBackend struct {
	Driver          StoreDriver `mapstructure:"driver"            rule:"oneof=minio s3"`
	Endpoint        string      `mapstructure:"endpoint"`
	AccessKeyID     string      `mapstructure:"access_key_id"`
	SecretAccessKey string      `mapstructure:"secret_access_key"`
	UseSSL          bool        `mapstructure:"use_ssl"`
	BucketName      string      `mapstructure:"bucket_name"`
	Region          string      `mapstructure:"region"`
}

// StoreConfig 主/备对象存储配置.
// Primary 为同步写入的主存储，Secondary 为异步复制目标.
type StoreConfig struct {
	Primary       StoreBackend `mapstructure:"primary"`
	Secondary     StoreBackend `mapstructure:"secondary"`
	SyncWorkers   int          `mapstructure:"sync_workers"   rule:"min=1,max=64"`
	SecondarySync bool         `mapstructure:"secondary_sync"` // 关闭后上传仍可用，仅停用复制
}

// GetEndpointURL 获取完整的端点URL.
func (c *StoreBackend) GetEndpointURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, c.Endpoint)
}

// setDefaults 设置对象存储配置的默认值.
func (c *StoreConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("store.primary.driver", StoreDriverMinIO)
	v.SetDefault("store.primary.endpoint", DefaultPrimaryEndpoint)
	v.SetDefault("store.primary.access_key_id", DefaultPrimaryAccessKey)
	v.SetDefault("store.primary.secret_access_key", DefaultPrimarySecretKey)
	v.SetDefault("store.primary.use_ssl", false)
	v.SetDefault("store.primary.bucket_name", DefaultPrimaryBucket)
	v.SetDefault("store.primary.region", DefaultStoreRegion)

	v.SetDefault("store.secondary.driver", StoreDriverS3)
	v.SetDefault("store.secondary.endpoint", "")
	v.SetDefault("store.secondary.access_key_id", "")
	v.SetDefault("store.secondary.secret_access_key", "")
	v.SetDefault("store.secondary.use_ssl", true)
	v.SetDefault("store.secondary.bucket_name", DefaultSecondaryBucket)
	v.SetDefault("store.secondary.region", DefaultStoreRegion)

	v.SetDefault("store.sync_workers", DefaultSecondaryConcurrent)
	v.SetDefault("store.secondary_sync", true)
}
