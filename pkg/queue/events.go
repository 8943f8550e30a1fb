package queue

import "github.com/ThreeDotsLabs/watermill/message"

// -------------------------- 基于业务封装 events --------------------------

// PublishSyncRequested 发布 fv.sync.requested 事件。
// 摄取完成或补偿任务触发，通知同步 worker 将对象复制到备存储。
func PublishSyncRequested(pub message.Publisher, payload SyncRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicSyncRequested, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicSyncRequested, msg)
}

// ParseSyncRequested 将 Watermill 消息解析为强类型 Envelope（SyncRequestedPayload）。
func ParseSyncRequested(msg *message.Message) (Message[SyncRequestedPayload], error) {
	return ParseWatermillMessage[SyncRequestedPayload](msg)
}

// PublishAnalysisRequested 发布 fv.analysis.requested 事件。
// 摄取自动入队或用户手动触发，通知分析 worker 执行单次 AI 分析。
func PublishAnalysisRequested(pub message.Publisher, payload AnalysisRequestedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicAnalysisRequested, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicAnalysisRequested, msg)
}

// ParseAnalysisRequested 将 Watermill 消息解析为强类型 Envelope（AnalysisRequestedPayload）。
func ParseAnalysisRequested(msg *message.Message) (Message[AnalysisRequestedPayload], error) {
	return ParseWatermillMessage[AnalysisRequestedPayload](msg)
}

// PublishTombstoneCreated 发布 fv.tombstone.created 事件。
// 备存储删除失败后触发，通知清理 worker 尽快补删。
func PublishTombstoneCreated(pub message.Publisher, payload TombstoneCreatedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicTombstoneCreated, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicTombstoneCreated, msg)
}

// ParseTombstoneCreated 将 Watermill 消息解析为强类型 Envelope（TombstoneCreatedPayload）。
func ParseTombstoneCreated(msg *message.Message) (Message[TombstoneCreatedPayload], error) {
	return ParseWatermillMessage[TombstoneCreatedPayload](msg)
}
