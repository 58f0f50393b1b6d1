package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/fundchain/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventQuery 事件查询条件
type EventQuery struct {
	EventType string
	Subject   string
	Page      int
	PageSize  int
}

// EventRepository 链上事件记录
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓库
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Save 保存事件，(tx_hash, log_index) 已存在时忽略，返回是否新插入
func (r *EventRepository) Save(ctx context.Context, event *model.EventModel) (bool, error) {
	if err := validateEvent(event); err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tx_hash"}, {Name: "log_index"}},
			DoNothing: true,
		}).
		Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("failed to save event: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List 分页查询事件，按区块倒序
func (r *EventRepository) List(ctx context.Context, q EventQuery) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := r.db.WithContext(ctx).Model(&model.EventModel{})
	if q.EventType != "" {
		query = query.Where("event_type = ?", q.EventType)
	}
	if q.Subject != "" {
		query = query.Where("LOWER(subject) = LOWER(?)", q.Subject)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	offset := (q.Page - 1) * q.PageSize
	if err := query.Offset(offset).Limit(q.PageSize).
		Order("block_num DESC").Order("log_index DESC").
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// GetByTxHash 根据交易哈希获取事件
func (r *EventRepository) GetByTxHash(ctx context.Context, txHash string) ([]model.EventModel, error) {
	var events []model.EventModel
	if err := r.db.WithContext(ctx).
		Where("tx_hash = ?", txHash).
		Order("log_index ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get events by tx hash: %w", err)
	}
	return events, nil
}

// MaxBlockNum 已保存事件的最大区块号，没有记录时返回 0
func (r *EventRepository) MaxBlockNum(ctx context.Context) (int64, error) {
	var maxBlock int64
	err := r.db.WithContext(ctx).Model(&model.EventModel{}).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&maxBlock).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get max block number: %w", err)
	}
	return maxBlock, nil
}

func validateEvent(event *model.EventModel) error {
	switch {
	case event.ContractAddress == "":
		return errors.New("contract address is required")
	case event.ContractName == "":
		return errors.New("contract name is required")
	case event.EventType == "":
		return errors.New("event type is required")
	case event.TxHash == "":
		return errors.New("tx hash is required")
	case event.BlockNum == 0:
		return errors.New("block number is required")
	}
	return nil
}
