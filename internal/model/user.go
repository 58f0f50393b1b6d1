package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// KYCLevel 身份认证等级
type KYCLevel uint8

const (
	KYCNone KYCLevel = iota
	KYCBasic
	KYCIntermediate
	KYCAdvanced
)

// ParseKYCLevel 把链上的 uint8 转换为认证等级，越界返回错误
func ParseKYCLevel(v uint8) (KYCLevel, error) {
	level := KYCLevel(v)
	if level > KYCAdvanced {
		return 0, fmt.Errorf("invalid kyc level %d", v)
	}
	return level, nil
}

// String 展示名称
func (l KYCLevel) String() string {
	switch l {
	case KYCNone:
		return "NONE"
	case KYCBasic:
		return "BASIC"
	case KYCIntermediate:
		return "INTERMEDIATE"
	case KYCAdvanced:
		return "ADVANCED"
	}
	return fmt.Sprintf("KYCLevel(%d)", uint8(l))
}

func (l KYCLevel) MarshalText() ([]byte, error) {
	if l > KYCAdvanced {
		return nil, fmt.Errorf("invalid kyc level %d", uint8(l))
	}
	return []byte(l.String()), nil
}

func (l *KYCLevel) UnmarshalText(text []byte) error {
	for _, candidate := range []KYCLevel{KYCNone, KYCBasic, KYCIntermediate, KYCAdvanced} {
		if strings.EqualFold(string(text), candidate.String()) {
			*l = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown kyc level %q", string(text))
}

// UserRole 用户主要角色
type UserRole uint8

const (
	RoleBacker UserRole = iota
	RoleCreator
	RoleBoth
)

// ParseUserRole 把链上的 uint8 转换为角色，越界返回错误
func ParseUserRole(v uint8) (UserRole, error) {
	role := UserRole(v)
	if role > RoleBoth {
		return 0, fmt.Errorf("invalid user role %d", v)
	}
	return role, nil
}

func (r UserRole) String() string {
	switch r {
	case RoleBacker:
		return "BACKER"
	case RoleCreator:
		return "CREATOR"
	case RoleBoth:
		return "BOTH"
	}
	return fmt.Sprintf("UserRole(%d)", uint8(r))
}

func (r UserRole) MarshalText() ([]byte, error) {
	if r > RoleBoth {
		return nil, fmt.Errorf("invalid user role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *UserRole) UnmarshalText(text []byte) error {
	for _, candidate := range []UserRole{RoleBacker, RoleCreator, RoleBoth} {
		if strings.EqualFold(string(text), candidate.String()) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown user role %q", string(text))
}

// MaxReputationScore 信誉分上限
const MaxReputationScore = 1000

// UserProfile 链上用户资料的只读投影，来自 getUserProfile
type UserProfile struct {
	WalletAddress    common.Address `json:"walletAddress"`
	Username         string         `json:"username"`
	EmailHash        common.Hash    `json:"emailHash"`
	ProfileImageRef  string         `json:"profileImageRef"`
	KYCLevel         KYCLevel       `json:"kycLevel"`
	PrimaryRole      UserRole       `json:"primaryRole"`
	RegistrationDate time.Time      `json:"registrationDate"`
	LastLoginDate    time.Time      `json:"lastLoginDate"`
	IsActive         bool           `json:"isActive"`
	IsBanned         bool           `json:"isBanned"`
	ReputationScore  uint16         `json:"reputationScore"`
}

// UserStats 注册统计，来自 getStats
type UserStats struct {
	TotalUsers  uint64 `json:"totalUsers"`
	BannedUsers uint64 `json:"bannedUsers"`
	ActiveUsers uint64 `json:"activeUsers"`
}
