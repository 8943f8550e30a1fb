// Package jobs 负责注册与实现生命周期清扫任务（基于 scheduler）。
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// RegisterSweepJobs 注册生命周期清扫任务：
//   - URL 刷新清扫（默认 6h）：重签接近过期的预签名 URL，保证 23h/24h 新鲜窗口
//   - 墓碑对账清扫（默认 1h）：补删备存储残留对象
//   - 同步补投清扫（默认 5m）：把停留在 minio 状态的干净文件重新入队，兜底进程重启
//   - 指标刷新（1m）：更新待同步/墓碑 gauge
func RegisterSweepJobs(sched *scheduler.Scheduler, mgr *storage.Manager) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if mgr == nil {
		return fmt.Errorf("storage manager is nil")
	}

	// 将 storage manager 注入到 context，便于 service 使用
	baseCtx := ctxPkg.WithStorageManager(context.Background(), mgr)
	lifecycle := configs.GetConfig().Lifecycle

	urlInterval := time.Duration(lifecycle.RefreshSweepHours) * time.Hour
	tombInterval := time.Duration(lifecycle.TombstoneSweepMins) * time.Minute
	requeueInterval := time.Duration(lifecycle.SyncRequeueSweepMins) * time.Minute

	_ = sched.AddInterval(JobURLRefreshSweep, urlInterval, func(ctx context.Context) {
		runURLRefreshSweep(ctx, baseCtx)
	}, baseCtx)

	_ = sched.AddInterval(JobTombstoneSweep, tombInterval, func(ctx context.Context) {
		runTombstoneSweep(ctx, baseCtx)
	}, baseCtx)

	_ = sched.AddInterval(JobSyncRequeueSweep, requeueInterval, func(ctx context.Context) {
		runSyncRequeueSweep(ctx, baseCtx, requeueInterval)
	}, baseCtx)

	_ = sched.AddInterval(JobPendingGaugeRefresh, gaugeRefreshInterval, func(ctx context.Context) {
		refreshGauges(ctx, baseCtx)
	}, baseCtx)

	return nil
}

// runURLRefreshSweep 重签所有超过陈旧阈值的预签名 URL。
func runURLRefreshSweep(ctx context.Context, baseCtx context.Context) {
	l := log.Logger().With().Str("job", JobURLRefreshSweep).Logger()

	svc := service.NewFileService(baseCtx)

	n, err := svc.RefreshStaleURLs(ctx)
	if err != nil {
		l.Error().Err(err).Msg("url refresh sweep failed")
		return
	}

	if n > 0 {
		l.Info().Int("refreshed", n).Msg("stale urls refreshed")
	}
}

// runTombstoneSweep 补删备存储残留对象。
func runTombstoneSweep(ctx context.Context, baseCtx context.Context) {
	l := log.Logger().With().Str("job", JobTombstoneSweep).Logger()

	svc := service.NewFileService(baseCtx)

	n, err := svc.SweepTombstones(ctx)
	if err != nil {
		l.Error().Err(err).Msg("tombstone sweep failed")
		return
	}

	if n > 0 {
		l.Info().Int("reaped", n).Msg("tombstones reaped")
	}
}

// runSyncRequeueSweep 重新入队停留过久的待同步记录。
// olderThan 取清扫周期本身，避免把刚入队还没被消费的记录重复补投太快.
func runSyncRequeueSweep(ctx context.Context, baseCtx context.Context, olderThan time.Duration) {
	l := log.Logger().With().Str("job", JobSyncRequeueSweep).Logger()

	svc := service.NewFileService(baseCtx)

	n, err := svc.RequeuePendingSyncs(ctx, olderThan)
	if err != nil {
		l.Error().Err(err).Msg("sync requeue sweep failed")
		return
	}

	if n > 0 {
		l.Info().Int("requeued", n).Msg("pending syncs requeued")
	}
}

// refreshGauges 更新队列深度类指标。
func refreshGauges(ctx context.Context, baseCtx context.Context) {
	mgr := ctxPkg.GetManager(baseCtx)
	if mgr == nil || mgr.GetDBClient() == nil {
		return
	}

	dbx := mgr.GetDBClient().GetDB().WithContext(ctx)

	var pending int64
	if err := dbx.Model(&model.FileRecord{}).
		Where("status = ? AND scan_status = ?", model.StatusMinio, model.ScanClean).
		Count(&pending).Error; err == nil {
		metrics.PendingSyncGauge.Set(float64(pending))
	}

	var tombs int64
	if err := dbx.Model(&model.Tombstone{}).Count(&tombs).Error; err == nil {
		metrics.TombstoneGauge.Set(float64(tombs))
	}
}
