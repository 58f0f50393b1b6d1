package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/fundchain/internal/config"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// RegistryContract UserRegistry 合约
type RegistryContract struct {
	*Contract
}

// registryProfile getUserProfile 返回的结构体
type registryProfile struct {
	WalletAddress    common.Address
	Username         string
	EmailHash        [32]byte
	ProfileImageHash string
	KycLevel         uint8
	PrimaryRole      uint8
	RegistrationDate *big.Int
	LastLoginDate    *big.Int
	IsActive         bool
	IsBanned         bool
	ReputationScore  *big.Int
}

// NewRegistryContract 创建用户注册合约绑定
func NewRegistryContract(address common.Address, parsedABI abi.ABI, caller bind.ContractCaller, transactor bind.ContractTransactor) *RegistryContract {
	return &RegistryContract{Contract: NewContract(config.ContractUserRegistry, address, parsedABI, caller, transactor)}
}

// Owner 合约所有者，负责 KYC 与封禁管理
func (r *RegistryContract) Owner(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, r.Contract, "owner")
}

// IsRegistered 钱包是否已注册
func (r *RegistryContract) IsRegistered(ctx context.Context, user common.Address) (bool, error) {
	return callOne[bool](ctx, r.Contract, "isRegistered", user)
}

// GetUserProfile 读取用户资料
func (r *RegistryContract) GetUserProfile(ctx context.Context, user common.Address) (*model.UserProfile, error) {
	raw, err := callOne[registryProfile](ctx, r.Contract, "getUserProfile", user)
	if err != nil {
		return nil, err
	}
	return toUserProfile(raw)
}

func toUserProfile(raw registryProfile) (*model.UserProfile, error) {
	level, err := model.ParseKYCLevel(raw.KycLevel)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", raw.WalletAddress.Hex(), err)
	}
	role, err := model.ParseUserRole(raw.PrimaryRole)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", raw.WalletAddress.Hex(), err)
	}

	score := uint64(0)
	if raw.ReputationScore != nil {
		score = raw.ReputationScore.Uint64()
	}
	if score > model.MaxReputationScore {
		score = model.MaxReputationScore
	}

	return &model.UserProfile{
		WalletAddress:    raw.WalletAddress,
		Username:         raw.Username,
		EmailHash:        common.Hash(raw.EmailHash),
		ProfileImageRef:  raw.ProfileImageHash,
		KYCLevel:         level,
		PrimaryRole:      role,
		RegistrationDate: unixTime(raw.RegistrationDate),
		LastLoginDate:    unixTime(raw.LastLoginDate),
		IsActive:         raw.IsActive,
		IsBanned:         raw.IsBanned,
		ReputationScore:  uint16(score),
	}, nil
}

func unixTime(sec *big.Int) time.Time {
	if sec == nil || sec.Sign() == 0 {
		return time.Time{}
	}
	return time.Unix(sec.Int64(), 0).UTC()
}

// IsUsernameAvailable 用户名是否可用
func (r *RegistryContract) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return callOne[bool](ctx, r.Contract, "isUsernameAvailable", username)
}

// MeetsKYCRequirement 链上 KYC 等级校验
func (r *RegistryContract) MeetsKYCRequirement(ctx context.Context, user common.Address, level model.KYCLevel) (bool, error) {
	return callOne[bool](ctx, r.Contract, "meetsKYCRequirement", user, uint8(level))
}

// TotalUsers 注册用户总数
func (r *RegistryContract) TotalUsers(ctx context.Context) (uint64, error) {
	n, err := callOne[*big.Int](ctx, r.Contract, "totalUsers")
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// GetUsers 分页读取用户地址
func (r *RegistryContract) GetUsers(ctx context.Context, offset, limit uint64) ([]common.Address, error) {
	return callOne[[]common.Address](ctx, r.Contract, "getUsers", new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
}

// GetStats 用户统计
func (r *RegistryContract) GetStats(ctx context.Context) (*model.UserStats, error) {
	out, err := r.call(ctx, "getStats")
	if err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, fmt.Errorf("getStats returned %d values, want 3", len(out))
	}
	return &model.UserStats{
		TotalUsers:  (*abi.ConvertType(out[0], new(*big.Int)).(**big.Int)).Uint64(),
		BannedUsers: (*abi.ConvertType(out[1], new(*big.Int)).(**big.Int)).Uint64(),
		ActiveUsers: (*abi.ConvertType(out[2], new(*big.Int)).(**big.Int)).Uint64(),
	}, nil
}

// RegisterUser 注册用户
func (r *RegistryContract) RegisterUser(ctx context.Context, tx *Transactor, username string, emailHash common.Hash, imageRef string, role model.UserRole) (*Receipt, error) {
	return tx.Send(ctx, OpRegister, r.Contract, GasRegisterUser, nil,
		"registerUser", username, [32]byte(emailHash), imageRef, uint8(role))
}

// SetKYCLevel 设置 KYC 等级，仅合约所有者
func (r *RegistryContract) SetKYCLevel(ctx context.Context, tx *Transactor, user common.Address, level model.KYCLevel) (*Receipt, error) {
	return tx.Send(ctx, OpSetKYC, r.Contract, GasAdminAction, nil, "setKYCLevel", user, uint8(level))
}

// BanUser 封禁用户，仅合约所有者
func (r *RegistryContract) BanUser(ctx context.Context, tx *Transactor, user common.Address, reason string) (*Receipt, error) {
	return tx.Send(ctx, OpBan, r.Contract, GasAdminAction, nil, "banUser", user, reason)
}

// UnbanUser 解除封禁，仅合约所有者
func (r *RegistryContract) UnbanUser(ctx context.Context, tx *Transactor, user common.Address) (*Receipt, error) {
	return tx.Send(ctx, OpUnban, r.Contract, GasAdminAction, nil, "unbanUser", user)
}
