package worker

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filevault/pkg/internal/service"
	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/queue"
)

// handleAnalysisMessage 消费 fv.analysis.requested.
// 单次尝试语义：失败落盘 ai_error 后不再重试，重新分析需要用户显式触发.
func (r *Runner) handleAnalysisMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	env, err := queue.ParseAnalysisRequested(msg)
	if err != nil {
		nlog.With("analysis-worker").Error().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed analysis message")
		return
	}

	file := env.Payload.File
	logger := nlog.With("analysis-worker")

	err = r.svc.AnalyzeFile(ctx, file.OwnerID, file.Filename)

	switch {
	case err == nil:
		metrics.AnalysisCounter.WithLabelValues("completed").Inc()
		logger.Info().Str("filename", file.Filename).Msg("ai analysis completed")
	case errors.Is(err, service.ErrSyncDiscarded):
		metrics.AnalysisCounter.WithLabelValues("discarded").Inc()
		logger.Debug().Str("filename", file.Filename).Msg("analysis result discarded, record gone")
	default:
		metrics.AnalysisCounter.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Str("filename", file.Filename).Msg("ai analysis failed")
	}
}
