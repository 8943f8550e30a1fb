// Package queue 定义消息主题常量与通配模式，供发布/订阅使用.
package queue

// 主题命名规范：fv.<域>.<动作>[.<状态>]，尽量稳定且向后兼容.
// 域：file(文件生命周期)、sync(备存储同步)、analysis(AI 分析)、tombstone(延迟清理)
// 状态：请求(requested)、完成(completed)、失败(failed)

const (
	// 文件生命周期领域.
	TopicFileStored   = "fv.file.stored"   // 文件已写入主存储且元数据入库
	TopicFileDeleted  = "fv.file.deleted"  // 文件记录与主存储对象已删除
	TopicFileInfected = "fv.file.infected" // 扫描判定感染（摄取时或复制前重扫）

	// 备存储同步领域.
	TopicSyncRequested = "fv.sync.requested" // 请求将对象复制到备存储
	TopicSyncCompleted = "fv.sync.completed" // 备存储复制完成
	TopicSyncFailed    = "fv.sync.failed"    // 备存储复制耗尽当前尝试（仍会被重新排队）

	// AI 分析领域.
	TopicAnalysisRequested = "fv.analysis.requested" // 请求对文件内容做 AI 分析
	TopicAnalysisCompleted = "fv.analysis.completed" // 分析完成，结果已写入记录
	TopicAnalysisFailed    = "fv.analysis.failed"    // 分析失败（单次尝试，不重试）

	// 延迟清理领域.
	TopicTombstoneCreated = "fv.tombstone.created" // 备存储删除失败，留下墓碑待补删
)

// 主题分组，用于批量订阅或权限控制.
var (
	// 文件生命周期相关主题集合.
	FileTopics = []string{
		TopicFileStored, TopicFileDeleted, TopicFileInfected,
	}

	// 备存储同步相关主题集合.
	SyncTopics = []string{
		TopicSyncRequested, TopicSyncCompleted, TopicSyncFailed,
	}

	// AI 分析相关主题集合.
	AnalysisTopics = []string{
		TopicAnalysisRequested, TopicAnalysisCompleted, TopicAnalysisFailed,
	}
)
