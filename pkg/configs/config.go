// Package configs 管理应用程序配置，包括数据库、双对象存储、扫描器、AI 分析与队列的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	import "path/to/configs"
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing store config:
//
//	config := configs.GetConfig()
//	primary := config.Store.Primary
//	fmt.Println("Primary endpoint:", primary.Endpoint)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppName 应用名，用于事件 Producer 标识等.
const AppName = "filevault"

// AppVersion 应用版本号.
const AppVersion = "1.0.0"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB        DBConfig        `mapstructure:"db"`        // DBConfig 文件记录库配置
		Store     StoreConfig     `mapstructure:"store"`     // StoreConfig 主/备对象存储配置
		Scanner   ScannerConfig   `mapstructure:"scanner"`   // ScannerConfig 病毒扫描器配置
		AI        AIConfig        `mapstructure:"ai"`        // AIConfig AI 分析器配置
		MQ        MQConfig        `mapstructure:"mq"`        // MQConfig 消息队列配置
		KV        KVConfig        `mapstructure:"kv"`        // KVConfig 键值缓存配置
		Server    ServerConfig    `mapstructure:"server"`    // ServerConfig 服务器配置
		Log       LogConfig       `mapstructure:"log"`       // LogConfig 日志相关配置
		Auth      AuthConfig      `mapstructure:"auth"`      // AuthConfig 认证配置
		Lifecycle LifecycleConfig `mapstructure:"lifecycle"` // LifecycleConfig 文件生命周期策略
		Metrics   MetricsConfig   `mapstructure:"metrics"`   // MetricsConfig 监控配置
		Tracing   TracingConfig   `mapstructure:"tracing"`   // TracingConfig 追踪配置
		RateLimit RateLimitConfig      `mapstructure:"rate_limit"`
		Breaker   CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 缺少配置文件时回退到默认值，便于容器内零配置启动.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(path + "/configs")

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.AutomaticEnv()
	appViper.SetEnvPrefix("FILEVAULT")

	// 读取配置
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		serverConfig    ServerConfig
		dbConfig        DBConfig
		storeConfig     StoreConfig
		scannerConfig   ScannerConfig
		aiConfig        AIConfig
		mqConfig        MQConfig
		kvConfig        KVConfig
		logConfig       LogConfig
		authConfig      AuthConfig
		lifecycleConfig LifecycleConfig
		metricsConfig   MetricsConfig
		tracingConfig   TracingConfig
		rateLimitConfig RateLimitConfig
		breakerConfig   CircuitBreakerConfig
	)

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	storeConfig.setDefaults(v)
	scannerConfig.setDefaults(v)
	aiConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	logConfig.setDefaults(v)
	authConfig.setDefaults(v)
	lifecycleConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	breakerConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

func GetViper() *viper.Viper {
	return appViper
}
