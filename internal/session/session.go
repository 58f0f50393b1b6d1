// Package session 本地会话缓存与钱包签名登录用的一次性 nonce。
// 会话只是链上资料的缓存，任何时候都以链上读取为准。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
	"github.com/google/uuid"
)

const (
	sessionKeyPrefix = "fundchain:session:"
	nonceKeyPrefix   = "fundchain:nonce:"

	// DefaultNonceTTL 登录 nonce 有效期
	DefaultNonceTTL = 5 * time.Minute
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = errors.New("not found")
	// ErrInvalidNonce nonce 不存在、已使用或不匹配
	ErrInvalidNonce = errors.New("invalid or expired nonce")
)

// Store 键值存储，生产环境为 Redis
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	GetDel(ctx context.Context, key string) ([]byte, error)
}

// Manager 会话管理
type Manager struct {
	store    Store
	ttl      time.Duration
	nonceTTL time.Duration
	now      func() time.Time
}

// NewManager 创建会话管理器，ttl 为 0 时使用默认值
func NewManager(store Store, ttl, nonceTTL time.Duration) *Manager {
	if ttl <= 0 {
		ttl = model.DefaultSessionTTL
	}
	if nonceTTL <= 0 {
		nonceTTL = DefaultNonceTTL
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		nonceTTL: nonceTTL,
		now:      time.Now,
	}
}

// TTL 会话有效期
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func sessionKey(wallet string) string {
	return sessionKeyPrefix + strings.ToLower(wallet)
}

func nonceKey(wallet string) string {
	return nonceKeyPrefix + strings.ToLower(wallet)
}

// Create 用链上资料创建会话并覆盖旧会话
func (m *Manager) Create(ctx context.Context, profile *model.UserProfile) (*model.Session, error) {
	s := model.NewSession(profile, m.now())
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}
	logger.Info("Session created for %s", s.Address)
	return s, nil
}

func (m *Manager) save(ctx context.Context, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	ttl := s.ExpiresAt(m.ttl).Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.store.Set(ctx, sessionKey(s.Address), data, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load 只返回有效会话；过期、钱包不匹配或无法解析的会话会被删除
func (m *Manager) Load(ctx context.Context, wallet string) (*model.Session, error) {
	data, err := m.store.Get(ctx, sessionKey(wallet))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("Dropping unreadable session for %s: %v", wallet, err)
		return nil, m.Delete(ctx, wallet)
	}
	if !s.Valid(m.now(), wallet, m.ttl) {
		return nil, m.Delete(ctx, wallet)
	}
	return &s, nil
}

// Delete 删除会话
func (m *Manager) Delete(ctx context.Context, wallet string) error {
	if err := m.store.Del(ctx, sessionKey(wallet)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Reconcile 让会话与链上资料保持一致：未注册或被封禁时删除，字段不一致时以链上为准替换。
// profile 为 nil 表示钱包未注册。
func (m *Manager) Reconcile(ctx context.Context, wallet string, profile *model.UserProfile) (*model.Session, error) {
	s, err := m.Load(ctx, wallet)
	if err != nil || s == nil {
		return nil, err
	}

	if profile == nil || profile.IsBanned {
		logger.Info("Removing session for %s: no longer eligible", wallet)
		return nil, m.Delete(ctx, wallet)
	}
	if s.Matches(profile) {
		return s, nil
	}

	fresh := model.NewSession(profile, time.UnixMilli(s.CreatedAt))
	if err := m.save(ctx, fresh); err != nil {
		return nil, err
	}
	logger.Info("Session for %s replaced with on-chain profile", wallet)
	return fresh, nil
}

// IssueNonce 生成一次性登录 nonce 和待签名消息
func (m *Manager) IssueNonce(ctx context.Context, wallet string) (string, string, error) {
	nonce := uuid.NewString()
	if err := m.store.Set(ctx, nonceKey(wallet), []byte(nonce), m.nonceTTL); err != nil {
		return "", "", fmt.Errorf("failed to save nonce: %w", err)
	}
	return nonce, SignInMessage(wallet, nonce), nil
}

// ConsumeNonce 校验并作废 nonce
func (m *Manager) ConsumeNonce(ctx context.Context, wallet, nonce string) error {
	data, err := m.store.GetDel(ctx, nonceKey(wallet))
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidNonce
	}
	if err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}
	if nonce == "" || string(data) != nonce {
		return ErrInvalidNonce
	}
	return nil
}

// SignInMessage 钱包需要 personal_sign 的消息
func SignInMessage(wallet, nonce string) string {
	return fmt.Sprintf("Sign in to FundChain\n\nWallet: %s\nNonce: %s", strings.ToLower(wallet), nonce)
}
