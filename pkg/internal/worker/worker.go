// Package worker 消费后台任务队列：备存储同步、AI 分析、墓碑清理.
// 所有 worker 的失败都不会变成 HTTP 错误，只会落为持久化状态与指标.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

const analysisWorkers = 2

// Runner 管理全部后台消费者.
type Runner struct {
	mgr     *storage.Manager
	svc     *service.FileService
	baseCtx context.Context

	// 同名文件的同步任务去重，补投与原始事件可能同时在队列中
	syncGroup singleflight.Group

	wg sync.WaitGroup
}

// NewRunner 创建 Runner，service 依赖通过 context 注入.
func NewRunner(mgr *storage.Manager) *Runner {
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)

	return &Runner{
		mgr:     mgr,
		svc:     service.NewFileService(baseCtx),
		baseCtx: baseCtx,
	}
}

// Start 订阅任务主题并启动消费者 goroutine.
func (r *Runner) Start(ctx context.Context) error {
	mqc := r.mgr.GetMQClient()

	syncCh, err := mqc.Subscribe(ctx, queue.TopicSyncRequested)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicSyncRequested, err)
	}

	analysisCh, err := mqc.Subscribe(ctx, queue.TopicAnalysisRequested)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicAnalysisRequested, err)
	}

	tombCh, err := mqc.Subscribe(ctx, queue.TopicTombstoneCreated)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue.TopicTombstoneCreated, err)
	}

	syncWorkers := configs.GetConfig().Store.SyncWorkers
	if syncWorkers <= 0 {
		syncWorkers = 1
	}

	for range syncWorkers {
		r.spawn(ctx, syncCh, r.handleSyncMessage)
	}

	for range analysisWorkers {
		r.spawn(ctx, analysisCh, r.handleAnalysisMessage)
	}

	r.spawn(ctx, tombCh, r.handleTombstoneMessage)

	nlog.With("worker").Info().
		Int("sync_workers", syncWorkers).
		Int("analysis_workers", analysisWorkers).
		Msg("background workers started")

	return nil
}

// Wait 阻塞直到全部消费者退出.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) spawn(ctx context.Context, ch <-chan *message.Message, handle func(ctx context.Context, msg *message.Message)) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				handle(ctx, msg)
			}
		}
	}()
}
