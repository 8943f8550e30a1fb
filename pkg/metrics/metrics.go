// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集应用和系统指标.
//
// Example:
//
//	import "github.com/yeisme/filevault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("POST", "/user/upload").Inc()
//	metrics.UploadCounter.WithLabelValues("clean").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filevault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// UploadCounter 按扫描结论分类的上传计数.
	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filevault_uploads_total",
			Help: "Total uploads by scan verdict (clean/infected/rejected)",
		},
		[]string{"verdict"},
	)

	// SyncAttempts 备存储同步尝试计数.
	SyncAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filevault_sync_attempts_total",
			Help: "Secondary sync attempts by outcome (success/retry/discarded)",
		},
		[]string{"outcome"},
	)

	// PendingSyncGauge 等待同步的文件数.
	PendingSyncGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "filevault_pending_sync_files",
			Help: "Files still waiting for secondary sync",
		},
	)

	// AnalysisCounter AI分析计数.
	AnalysisCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filevault_analysis_total",
			Help: "AI analysis attempts by outcome (completed/failed/discarded)",
		},
		[]string{"outcome"},
	)

	// TombstoneGauge 待补删的墓碑数.
	TombstoneGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "filevault_tombstones",
			Help: "Secondary-store delete tombstones awaiting cleanup",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化Metrics.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	// 注册标准收集器
	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// 注册自定义指标
	registry.MustRegister(
		RequestCounter, RequestDuration,
		UploadCounter, SyncAttempts, PendingSyncGauge,
		AnalysisCounter, TombstoneGauge,
	)

	return nil
}

// StartMetricsServer 启动Metrics HTTP服务器.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// 如果启用pprof，注册pprof端点
	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
