package model

import (
	"strings"
	"time"
)

// DefaultSessionTTL 会话有效期
const DefaultSessionTTL = 7 * 24 * time.Hour

// Session 本地登录缓存，只用于跳过重复的注册查询，链上数据才是权威
type Session struct {
	Address   string   `json:"address"`
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	KYCLevel  KYCLevel `json:"kycLevel"`
	CreatedAt int64    `json:"timestamp"` // 毫秒
}

// NewSession 由链上资料创建会话
func NewSession(profile *UserProfile, now time.Time) *Session {
	return &Session{
		Address:   profile.WalletAddress.Hex(),
		Username:  profile.Username,
		Role:      profile.PrimaryRole,
		KYCLevel:  profile.KYCLevel,
		CreatedAt: now.UnixMilli(),
	}
}

// ExpiresAt 过期时间
func (s *Session) ExpiresAt(ttl time.Duration) time.Time {
	return time.UnixMilli(s.CreatedAt).Add(ttl)
}

// Valid 未过期且属于当前钱包时有效
func (s *Session) Valid(now time.Time, wallet string, ttl time.Duration) bool {
	if s == nil {
		return false
	}
	if !now.Before(s.ExpiresAt(ttl)) {
		return false
	}
	return strings.EqualFold(s.Address, wallet)
}

// Matches 判断会话是否与链上资料一致
func (s *Session) Matches(profile *UserProfile) bool {
	return strings.EqualFold(s.Address, profile.WalletAddress.Hex()) &&
		s.Username == profile.Username &&
		s.Role == profile.PrimaryRole &&
		s.KYCLevel == profile.KYCLevel
}
