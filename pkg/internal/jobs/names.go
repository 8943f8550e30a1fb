package jobs

import "time"

// 任务名称常量，便于统一管理与引用.
const (
	JobURLRefreshSweep     = "urls.refresh_sweep"
	JobTombstoneSweep      = "tombstone.reconcile"
	JobSyncRequeueSweep    = "sync.requeue_sweep"
	JobPendingGaugeRefresh = "metrics.pending_gauge"
)

// 指标类任务的固定周期.
const gaugeRefreshInterval = 1 * time.Minute
