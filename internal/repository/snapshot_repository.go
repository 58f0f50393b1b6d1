package repository

import (
	"context"
	"fmt"

	"github.com/blues/fundchain/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 项目状态快照
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// ReplaceAll 在一个事务里按地址 upsert 全部快照，并删除列表外的行
func (r *SnapshotRepository) ReplaceAll(ctx context.Context, snapshots []model.CampaignSnapshotModel) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(snapshots) == 0 {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
				Delete(&model.CampaignSnapshotModel{}).Error; err != nil {
				return fmt.Errorf("failed to clear snapshots: %w", err)
			}
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			UpdateAll: true,
		}).CreateInBatches(snapshots, 100).Error; err != nil {
			return fmt.Errorf("failed to upsert snapshots: %w", err)
		}

		addresses := make([]string, 0, len(snapshots))
		for _, s := range snapshots {
			addresses = append(addresses, s.Address)
		}
		if err := tx.Where("address NOT IN ?", addresses).
			Delete(&model.CampaignSnapshotModel{}).Error; err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		return nil
	})
}

// StatusCount 每个状态的数量
type StatusCount struct {
	Status model.CampaignStatus
	Count  int64
}

// CountByStatus 按状态统计
func (r *SnapshotRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.WithContext(ctx).Model(&model.CampaignSnapshotModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return counts, nil
}
