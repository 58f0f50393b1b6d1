package logic

import (
	"context"
	"fmt"
	"strings"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/model"
	"github.com/blues/fundchain/internal/repository"
)

// 事件分页默认值
const (
	DefaultEventPageSize = 20
	MaxEventPageSize     = 100
)

// EventReader 事件记录查询
type EventReader interface {
	List(ctx context.Context, q repository.EventQuery) ([]model.EventModel, int64, error)
	GetByTxHash(ctx context.Context, txHash string) ([]model.EventModel, error)
	MaxBlockNum(ctx context.Context) (int64, error)
}

var knownEventTypes = []string{
	model.EventCampaignCreated,
	model.EventFunded,
	model.EventCampaignApproved,
	model.EventCampaignCompleted,
	model.EventUserRegistered,
	model.EventUserBanned,
	model.EventUserUnbanned,
	model.EventKYCLevelUpdated,
}

// EventPage 事件分页结果
type EventPage struct {
	Events   []model.EventModel `json:"events"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

// EventLogic 事件业务逻辑
type EventLogic struct {
	events EventReader
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(events EventReader) *EventLogic {
	return &EventLogic{events: events}
}

// GetEvents 获取事件列表，subject 为项目或用户地址
func (e *EventLogic) GetEvents(ctx context.Context, eventType, subject string, page, pageSize int) (*EventPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultEventPageSize
	}
	if pageSize > MaxEventPageSize {
		pageSize = MaxEventPageSize
	}

	if eventType != "" && !isKnownEventType(eventType) {
		return nil, contract.Validation(fmt.Sprintf("Unknown event type %q", eventType))
	}
	subject = strings.TrimSpace(subject)
	if subject != "" {
		if _, err := ParseAddress(subject); err != nil {
			return nil, err
		}
	}

	events, total, err := e.events.List(ctx, repository.EventQuery{
		EventType: eventType,
		Subject:   subject,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &EventPage{Events: events, Total: total, Page: page, PageSize: pageSize}, nil
}

// GetEventsByTxHash 根据交易哈希获取事件
func (e *EventLogic) GetEventsByTxHash(ctx context.Context, txHash string) ([]model.EventModel, error) {
	if len(txHash) != 66 || !strings.HasPrefix(txHash, "0x") {
		return nil, contract.Validation("Invalid transaction hash")
	}
	return e.events.GetByTxHash(ctx, txHash)
}

// GetLastProcessedBlock 已处理的最新区块
func (e *EventLogic) GetLastProcessedBlock(ctx context.Context) (int64, error) {
	return e.events.MaxBlockNum(ctx)
}

func isKnownEventType(eventType string) bool {
	for _, t := range knownEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
