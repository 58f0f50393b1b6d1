package event

import (
	"context"
	"fmt"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
)

// SessionRemover 删除某钱包的本地会话
type SessionRemover interface {
	Delete(ctx context.Context, wallet string) error
}

// UserProcessor 用户事件处理器：标脏用户列表，并删除该钱包的会话，下次访问时按链上资料重建
type UserProcessor struct {
	users    Invalidator
	sessions SessionRemover
}

// NewUserProcessor 创建用户事件处理器
func NewUserProcessor(users Invalidator, sessions SessionRemover) *UserProcessor {
	return &UserProcessor{users: users, sessions: sessions}
}

func (p *UserProcessor) GetEventTypes() []string {
	return []string{
		model.EventUserRegistered,
		model.EventUserBanned,
		model.EventUserUnbanned,
		model.EventKYCLevelUpdated,
	}
}

// Process 处理用户事件
func (p *UserProcessor) Process(ctx context.Context, event *model.EventModel, _ map[string]interface{}) error {
	p.users.Invalidate()

	if event.Subject == "" || p.sessions == nil {
		return nil
	}
	if err := p.sessions.Delete(ctx, event.Subject); err != nil {
		return fmt.Errorf("failed to drop session of %s: %w", event.Subject, err)
	}
	logger.Info("User %s changed (%s), session dropped", event.Subject, event.EventType)
	return nil
}
