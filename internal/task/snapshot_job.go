package task

import (
	"context"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Snapshotter 重新计算派生状态并写入快照表
type Snapshotter interface {
	Snapshot(ctx context.Context) error
}

// SnapshotJob 截止时间过去不会产生链上事件，需要定期重算项目状态
type SnapshotJob struct {
	snapshotter Snapshotter
	interval    time.Duration
}

// NewSnapshotJob 创建快照任务
func NewSnapshotJob(snapshotter Snapshotter, interval time.Duration) *SnapshotJob {
	return &SnapshotJob{snapshotter: snapshotter, interval: interval}
}

// GetName 获取任务名称
func (j *SnapshotJob) GetName() string {
	return "campaign_snapshot"
}

// GetSchedule 获取调度配置
func (j *SnapshotJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *SnapshotJob) Execute() {
	logger.Info("Starting campaign snapshot task")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout(j.interval))
	defer cancel()

	if err := j.snapshotter.Snapshot(ctx); err != nil {
		logger.Error("Failed to snapshot campaigns: %v", err)
		return
	}
	logger.Info("Campaign snapshot task completed")
}
