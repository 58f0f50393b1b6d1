package event

import (
	"context"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
)

// Invalidator 可被标脏的镜像
type Invalidator interface {
	Invalidate()
}

// CampaignProcessor 项目事件处理器，任何项目变化都让项目列表整体重新读取
type CampaignProcessor struct {
	campaigns Invalidator
}

// NewCampaignProcessor 创建项目事件处理器
func NewCampaignProcessor(campaigns Invalidator) *CampaignProcessor {
	return &CampaignProcessor{campaigns: campaigns}
}

func (p *CampaignProcessor) GetEventTypes() []string {
	return []string{
		model.EventCampaignCreated,
		model.EventFunded,
		model.EventCampaignApproved,
		model.EventCampaignCompleted,
	}
}

// Process 标脏项目列表
func (p *CampaignProcessor) Process(_ context.Context, event *model.EventModel, _ map[string]interface{}) error {
	p.campaigns.Invalidate()
	logger.Info("Campaign list invalidated by %s of %s at block %d", event.EventType, event.Subject, event.BlockNum)
	return nil
}
