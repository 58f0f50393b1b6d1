package task

import (
	"context"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// Refresher 全量刷新镜像
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshJob 定期全量刷新，作为漏掉事件时的兜底
type RefreshJob struct {
	name      string
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
}

// NewRefreshJob 创建刷新任务
func NewRefreshJob(name string, refresher Refresher, interval time.Duration) *RefreshJob {
	return &RefreshJob{
		name:      name,
		refresher: refresher,
		interval:  interval,
		timeout:   jobTimeout(interval),
	}
}

// GetName 获取任务名称
func (j *RefreshJob) GetName() string {
	return j.name
}

// GetSchedule 获取调度配置
func (j *RefreshJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *RefreshJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	if err := j.refresher.Refresh(ctx); err != nil {
		logger.Error("Job %s failed: %v", j.name, err)
		return
	}
	logger.Debug("Job %s finished in %s", j.name, time.Since(start))
}

// jobTimeout 单次执行不超过一个周期，最少 30 秒
func jobTimeout(interval time.Duration) time.Duration {
	if interval < 30*time.Second {
		return 30 * time.Second
	}
	return interval
}
