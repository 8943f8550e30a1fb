// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appcache "github.com/yeisme/filevault/pkg/cache"
	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/router"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/internal/worker"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
	"github.com/yeisme/filevault/pkg/tracing"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig

	manager *storage.Manager
	sched   *scheduler.Scheduler
	runner  *worker.Runner

	cancelWorkers contextPkg.CancelFunc
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// 建表，幂等
	if err := manager.GetDBClient().Migrate(
		&model.FileRecord{},
		&model.ActivityEvent{},
		&model.Tombstone{},
	); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	// 后台消费者：同步复制、AI分析、墓碑补删
	workerCtx, cancelWorkers := contextPkg.WithCancel(ctx)

	runner := worker.NewRunner(manager)
	if err := runner.Start(workerCtx); err != nil {
		fmt.Printf("Error starting workers: %v\n", err)
		os.Exit(1)
	}

	// 生命周期清扫任务
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error creating scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterSweepJobs(sched, manager); err != nil {
		fmt.Printf("Error registering sweep jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.Breaker),
		middleware.AuthMiddleware(config.Auth),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
	)

	// 统计接口接入KV响应缓存，没有KV时不启用
	var analyticsCache gin.HandlerFunc
	if kvc := manager.GetKVClient(); kvc != nil && kvc.KVStore != nil {
		analyticsCache = middleware.CacheMiddleware(middleware.DefaultCacheConfig(appcache.NewCache(kvc.KVStore)))
	}

	router.Register(engine, router.Options{AnalyticsCache: analyticsCache})

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine:        engine,
		config:        config,
		manager:       manager,
		sched:         sched,
		runner:        runner,
		cancelWorkers: cancelWorkers,
	}
}

// Run 启动HTTP服务并阻塞到收到退出信号，随后优雅关停.
func (a *App) Run() error {
	l := log.Logger()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
		Handler:           a.Engine,
		ReadHeaderTimeout: time.Duration(a.config.Server.Timeout) * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Msg("http server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.shutdown()
		return err
	case sig := <-quit:
		l.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("http server shutdown failed")
	}

	a.shutdown()

	return nil
}

// shutdown 按依赖顺序关停后台组件.
func (a *App) shutdown() {
	l := log.Logger()

	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			l.Warn().Err(err).Msg("scheduler stop failed")
		}
	}

	// 先取消消费者，再等待在途任务退出；未完成的同步由补投清扫在下次启动时接力
	if a.cancelWorkers != nil {
		a.cancelWorkers()
	}

	if a.runner != nil {
		a.runner.Wait()
	}

	ctx, cancel := contextPkg.WithTimeout(contextPkg.Background(), shutdownTimeout)
	defer cancel()

	if err := tracing.ShutdownTracer(ctx); err != nil {
		l.Warn().Err(err).Msg("tracer shutdown failed")
	}

	if a.manager != nil {
		if err := a.manager.Close(); err != nil {
			l.Warn().Err(err).Msg("storage close failed")
		}
	}
}

// Manager 暴露存储管理器，测试与子命令使用.
func (a *App) Manager() *storage.Manager {
	return a.manager
}

// BaseContext 返回带存储管理器的根上下文.
func (a *App) BaseContext() contextPkg.Context {
	return context.WithStorageManager(contextPkg.Background(), a.manager)
}
