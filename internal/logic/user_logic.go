package logic

import (
	"context"
	"strings"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// 用户列表分页默认值
const (
	DefaultUserLimit = 20
	MaxUserLimit     = 100
)

// RegisterRequest 注册参数
type RegisterRequest struct {
	Username        string         `json:"username" binding:"required"`
	Email           string         `json:"email" binding:"required,fc_email"`
	ProfileImageRef string         `json:"profileImageRef"`
	Role            model.UserRole `json:"role"`
}

// UserView 单个钱包的注册状态
type UserView struct {
	Address    string             `json:"address"`
	Registered bool               `json:"registered"`
	Profile    *model.UserProfile `json:"profile,omitempty"`
	Session    *model.Session     `json:"session,omitempty"`
}

// RegisterResult 注册结果
type RegisterResult struct {
	Receipt *contract.Receipt  `json:"receipt"`
	Profile *model.UserProfile `json:"profile,omitempty"`
	Session *model.Session     `json:"session,omitempty"`
}

// UserPage 分页结果
type UserPage struct {
	Users  []model.UserProfile `json:"users"`
	Total  int                 `json:"total"`
	Offset int                 `json:"offset"`
	Limit  int                 `json:"limit"`
}

// UserLogic 用户业务逻辑
type UserLogic struct {
	chain    ChainGateway
	users    UserMirror
	sessions SessionStore
}

// NewUserLogic 创建用户业务逻辑
func NewUserLogic(chain ChainGateway, users UserMirror, sessions SessionStore) *UserLogic {
	return &UserLogic{chain: chain, users: users, sessions: sessions}
}

// GetUser 读取链上资料并校正本地会话
func (u *UserLogic) GetUser(ctx context.Context, wallet common.Address) (*UserView, error) {
	view := &UserView{Address: wallet.Hex()}

	registered, err := u.chain.IsRegistered(ctx, wallet)
	if err != nil {
		return nil, contract.Classify(contract.OpRead, err)
	}
	view.Registered = registered

	if registered {
		profile, err := u.chain.GetUserProfile(ctx, wallet)
		if err != nil {
			return nil, contract.Classify(contract.OpRead, err)
		}
		view.Profile = profile
	}

	session, err := u.sessions.Reconcile(ctx, wallet.Hex(), view.Profile)
	if err != nil {
		logger.Warn("Failed to reconcile session for %s: %v", wallet.Hex(), err)
	}
	view.Session = session
	return view, nil
}

// ListUsers 分页读取用户镜像
func (u *UserLogic) ListUsers(ctx context.Context, offset, limit int) (*UserPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultUserLimit
	}
	if limit > MaxUserLimit {
		limit = MaxUserLimit
	}

	users, total, err := u.users.Page(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return &UserPage{Users: users, Total: total, Offset: offset, Limit: limit}, nil
}

// GetStats 注册统计
func (u *UserLogic) GetStats(ctx context.Context) (*model.UserStats, error) {
	stats, err := u.chain.GetUserStats(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpRead, err)
	}
	return stats, nil
}

// IsUsernameAvailable 先做本地校验，再查链
func (u *UserLogic) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return false, err
	}
	available, err := u.chain.IsUsernameAvailable(ctx, username)
	if err != nil {
		return false, contract.Classify(contract.OpRead, err)
	}
	return available, nil
}

// EmailHash 邮箱统一小写后取 keccak256，只有哈希上链
func EmailHash(email string) common.Hash {
	return crypto.Keccak256Hash([]byte(strings.ToLower(strings.TrimSpace(email))))
}

// Register 注册运营钱包：本地校验 → 重复注册与用户名预检 → 上链 → 刷新 → 建立会话
func (u *UserLogic) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	username := NormalizeUsername(req.Username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if req.Role > model.RoleBoth {
		return nil, contract.Validation("Invalid role")
	}

	operator, err := u.chain.Operator(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpRegister, err)
	}
	registered, err := u.chain.IsRegistered(ctx, operator)
	if err != nil {
		return nil, contract.Classify(contract.OpRegister, err)
	}
	if registered {
		return nil, contract.Denied(contract.OpRegister, "This wallet is already registered")
	}
	available, err := u.chain.IsUsernameAvailable(ctx, username)
	if err != nil {
		return nil, contract.Classify(contract.OpRegister, err)
	}
	if !available {
		return nil, contract.Denied(contract.OpRegister, "Username is already taken. Please choose another one.")
	}

	receipt, err := u.chain.RegisterUser(ctx, username, EmailHash(email), strings.TrimSpace(req.ProfileImageRef), req.Role)
	recordTx(contract.OpRegister, err)
	if err != nil {
		return nil, err
	}
	logger.Info("User %s registered as %s in tx %s", operator.Hex(), username, receipt.TxHash.Hex())

	u.refetch(ctx, contract.OpRegister)

	result := &RegisterResult{Receipt: receipt}
	profile, err := u.chain.GetUserProfile(ctx, operator)
	if err != nil {
		logger.Warn("Failed to read profile of %s after registration: %v", operator.Hex(), err)
		return result, nil
	}
	result.Profile = profile

	session, err := u.sessions.Create(ctx, profile)
	if err != nil {
		logger.Warn("Failed to create session for %s: %v", operator.Hex(), err)
		return result, nil
	}
	result.Session = session
	return result, nil
}

// SetKYCLevel 设置认证等级
func (u *UserLogic) SetKYCLevel(ctx context.Context, user common.Address, level model.KYCLevel) (*contract.Receipt, error) {
	if level > model.KYCAdvanced {
		return nil, contract.Validation("Invalid KYC level")
	}
	return u.ownerWrite(ctx, contract.OpSetKYC, user, func() (*contract.Receipt, error) {
		return u.chain.SetKYCLevel(ctx, user, level)
	})
}

// BanUser 封禁用户，原因必填
func (u *UserLogic) BanUser(ctx context.Context, user common.Address, reason string) (*contract.Receipt, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, contract.Validation("Ban reason is required")
	}
	return u.ownerWrite(ctx, contract.OpBan, user, func() (*contract.Receipt, error) {
		return u.chain.BanUser(ctx, user, reason)
	})
}

// UnbanUser 解除封禁
func (u *UserLogic) UnbanUser(ctx context.Context, user common.Address) (*contract.Receipt, error) {
	return u.ownerWrite(ctx, contract.OpUnban, user, func() (*contract.Receipt, error) {
		return u.chain.UnbanUser(ctx, user)
	})
}

// ownerWrite owner 提示检查 → 上链 → 刷新 → 删除目标用户会话
func (u *UserLogic) ownerWrite(ctx context.Context, op string, user common.Address, send func() (*contract.Receipt, error)) (*contract.Receipt, error) {
	operator, err := u.chain.Operator(ctx)
	if err != nil {
		return nil, contract.Classify(op, err)
	}
	owner, err := u.chain.RegistryOwner(ctx)
	if err != nil {
		logger.Warn("Failed to read registry owner before %s: %v", op, err)
	} else if owner != operator {
		return nil, contract.Denied(op, "Only contract owner can "+op)
	}

	receipt, err := send()
	recordTx(op, err)
	if err != nil {
		return nil, err
	}
	logger.Info("%s for %s confirmed in tx %s", op, user.Hex(), receipt.TxHash.Hex())

	u.refetch(ctx, op)
	if err := u.sessions.Delete(ctx, user.Hex()); err != nil {
		logger.Warn("Failed to drop session of %s: %v", user.Hex(), err)
	}
	return receipt, nil
}

// CheckGate 对任意钱包做注册/KYC 预检
func (u *UserLogic) CheckGate(ctx context.Context, wallet common.Address, action GateAction, creator string) (Decision, error) {
	in, err := gateInputFor(ctx, u.chain, contract.OpRead, wallet)
	if err != nil {
		return Decision{}, err
	}
	in.Action = action
	in.CampaignCreator = creator
	return CheckGate(in), nil
}

func (u *UserLogic) refetch(ctx context.Context, op string) {
	if err := u.users.Refresh(ctx); err != nil {
		logger.Warn("Failed to refetch users after %s: %v", op, err)
	}
}
