package worker

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	retry "github.com/avast/retry-go/v4"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/service"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

// handleSyncMessage 消费 fv.sync.requested.
// 内部以指数退避无限重试，备存储故障对用户完全不可见；
// 任务作废（记录删除、感染终态）时静默丢弃.
func (r *Runner) handleSyncMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	env, err := queue.ParseSyncRequested(msg)
	if err != nil {
		nlog.With("sync-worker").Error().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed sync message")
		return
	}

	file := env.Payload.File

	// 补投事件与原始事件可能并存，singleflight 保证同一文件只有一个在途复制
	_, _, _ = r.syncGroup.Do(file.ObjectKey, func() (any, error) {
		r.replicateWithRetry(ctx, file.OwnerID, file.Filename)
		return nil, nil
	})
}

func (r *Runner) replicateWithRetry(ctx context.Context, owner, filename string) {
	logger := nlog.With("sync-worker")
	lifecycle := configs.GetConfig().Lifecycle
	attempt := 0

	err := retry.Do(
		func() error {
			attempt++

			err := r.svc.ReplicateToSecondary(ctx, owner, filename, attempt)
			if err == nil {
				return nil
			}

			if errors.Is(err, service.ErrSyncDiscarded) || errors.Is(err, service.ErrSecondaryDisabled) {
				return retry.Unrecoverable(err)
			}

			r.svc.RecordSyncFailure(ctx, owner, filename, attempt, err)
			metrics.SyncAttempts.WithLabelValues("retry").Inc()

			return err
		},
		retry.Attempts(0), // 无限重试，直到成功或任务作废
		retry.Delay(lifecycle.GetSyncBackoffBase()),
		retry.MaxDelay(lifecycle.GetSyncBackoffCap()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).
				Str("filename", filename).
				Uint("attempt", n+1).
				Msg("secondary sync attempt failed, backing off")
		}),
	)

	switch {
	case err == nil:
		metrics.SyncAttempts.WithLabelValues("success").Inc()
		logger.Info().Str("filename", filename).Int("attempts", attempt).Msg("secondary sync completed")
	case errors.Is(err, service.ErrSyncDiscarded):
		metrics.SyncAttempts.WithLabelValues("discarded").Inc()
		logger.Debug().Str("filename", filename).Msg("sync task discarded")
	case errors.Is(err, service.ErrSecondaryDisabled):
		logger.Debug().Str("filename", filename).Msg("secondary store disabled, sync skipped")
	default:
		// 仅在 ctx 取消时到达，requeue 清扫任务会在重启后补投
		logger.Warn().Err(err).Str("filename", filename).Msg("secondary sync interrupted")
	}
}
