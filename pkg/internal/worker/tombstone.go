package worker

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	nlog "github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/queue"
)

// handleTombstoneMessage 消费 fv.tombstone.created，尽快补删备存储残留.
// 单次尝试失败无妨，对账清扫任务会按周期兜底.
func (r *Runner) handleTombstoneMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	env, err := queue.ParseTombstoneCreated(msg)
	if err != nil {
		nlog.With("tombstone-worker").Error().Err(err).Str("msg_id", msg.UUID).Msg("drop malformed tombstone message")
		return
	}

	tomb, err := r.svc.FindTombstone(ctx, env.Payload.OwnerID, env.Payload.ObjectKey)
	if err != nil {
		// 已被清扫任务处理
		return
	}

	r.svc.ReapTombstone(ctx, tomb)
}
