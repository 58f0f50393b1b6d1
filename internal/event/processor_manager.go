package event

import (
	"context"
	"sync"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// EventProcessor 事件处理器接口
type EventProcessor interface {
	Process(ctx context.Context, event *model.EventModel, eventData map[string]interface{}) error
	GetEventTypes() []string
}

// ProcessorManager 事件处理器管理器
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[string]EventProcessor
}

// NewProcessorManager 创建处理器管理器
func NewProcessorManager(processors ...EventProcessor) *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[string]EventProcessor),
	}
	for _, p := range processors {
		manager.RegisterProcessor(p)
	}

	logger.Info("ProcessorManager initialized with %d event types", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, eventType := range processor.GetEventTypes() {
		pm.processors[eventType] = processor
		logger.Debug("Registered processor for event type: %s", eventType)
	}
}

// GetProcessor 获取指定事件类型的处理器
func (pm *ProcessorManager) GetProcessor(eventType string) (EventProcessor, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	processor, exists := pm.processors[eventType]
	return processor, exists
}

// ProcessEvent 处理事件
func (pm *ProcessorManager) ProcessEvent(ctx context.Context, event *model.EventModel, eventData map[string]interface{}) error {
	metrics.ContractEventsTotal.WithLabelValues(event.EventType).Inc()

	processor, exists := pm.GetProcessor(event.EventType)
	if !exists {
		logger.Debug("No processor found for event type: %s", event.EventType)
		return nil // 跳过未知事件类型
	}

	return processor.Process(ctx, event, eventData)
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []string {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	eventTypes := make([]string, 0, len(pm.processors))
	for eventType := range pm.processors {
		eventTypes = append(eventTypes, eventType)
	}
	return eventTypes
}

// SubjectOf 事件涉及的地址：用户事件取 user，项目创建取 campaignAddress，其余取合约地址
func SubjectOf(contractAddress common.Address, eventData map[string]interface{}) string {
	for _, key := range []string{"user", "campaignAddress"} {
		if addr, ok := eventData[key].(common.Address); ok {
			return addr.Hex()
		}
	}
	return contractAddress.Hex()
}
