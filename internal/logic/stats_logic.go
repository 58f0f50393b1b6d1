package logic

import (
	"context"
	"sync"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/blues/fundchain/internal/model"
	"github.com/blues/fundchain/internal/repository"
)

// SnapshotStore 项目状态快照表
type SnapshotStore interface {
	ReplaceAll(ctx context.Context, snapshots []model.CampaignSnapshotModel) error
	CountByStatus(ctx context.Context) ([]repository.StatusCount, error)
}

// Stats 平台统计
type Stats struct {
	Campaigns map[model.CampaignStatus]int64 `json:"campaigns"`
	Total     int64                          `json:"total"`
}

// StatsLogic 统计与快照
type StatsLogic struct {
	mu        sync.Mutex // 串行化快照写入
	campaigns CampaignMirror
	snapshots SnapshotStore
	now       func() time.Time
}

// NewStatsLogic 创建统计逻辑
func NewStatsLogic(campaigns CampaignMirror, snapshots SnapshotStore) *StatsLogic {
	return &StatsLogic{campaigns: campaigns, snapshots: snapshots, now: time.Now}
}

// GetStats 从快照表按状态统计，所有状态都有值
func (s *StatsLogic) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.snapshots.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Campaigns: make(map[model.CampaignStatus]int64, len(model.CampaignStatuses))}
	for _, status := range model.CampaignStatuses {
		stats.Campaigns[status] = 0
	}
	for _, c := range counts {
		stats.Campaigns[c.Status] += c.Count
		stats.Total += c.Count
	}
	return stats, nil
}

// Snapshot 用当前镜像重新计算派生状态并替换快照表
func (s *StatsLogic) Snapshot(ctx context.Context) error {
	campaigns, err := s.campaigns.List(ctx)
	if err != nil {
		return err
	}
	return s.SnapshotFrom(ctx, campaigns)
}

// SnapshotFrom 用给定列表替换快照表，刷新回调与定时任务可能同时调用
func (s *StatsLogic) SnapshotFrom(ctx context.Context, campaigns []model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := BuildViews(campaigns, s.now())
	for status, n := range CountByStatus(views) {
		metrics.CampaignsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}

	if err := s.snapshots.ReplaceAll(ctx, campaignSnapshots(views)); err != nil {
		return err
	}
	logger.Debug("Replaced %d campaign snapshots", len(views))
	return nil
}

// campaignSnapshots 派生状态快照行
func campaignSnapshots(views []CampaignView) []model.CampaignSnapshotModel {
	rows := make([]model.CampaignSnapshotModel, 0, len(views))
	for _, v := range views {
		rows = append(rows, model.CampaignSnapshotModel{
			Address:     v.Address.Hex(),
			Creator:     v.Creator.Hex(),
			Title:       v.Title,
			Category:    v.Category,
			Goal:        v.Goal.String(),
			TotalRaised: v.TotalRaised.String(),
			Backers:     v.Backers,
			Deadline:    v.Deadline,
			Status:      v.Status,
			Percentage:  v.Percentage,
			DaysLeft:    v.DaysLeft,
		})
	}
	return rows
}
