package logic

import (
	"context"
	"errors"
	"math/big"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// ErrCampaignNotFound 地址不是工厂部署的项目
var ErrCampaignNotFound = errors.New("campaign not found")

// errAlreadyApproved 本地预检发现的重复审批，按合约错误同样分类
var errAlreadyApproved = errors.New("campaign already approved")

// campaignReadError 区分项目不存在与链/网络错误
func campaignReadError(address common.Address, err error) error {
	if contract.IsNotFound(err) {
		logger.Debug("Campaign %s not found: %v", address.Hex(), err)
		return ErrCampaignNotFound
	}
	return contract.Classify(contract.OpRead, err)
}

// ChainGateway 链上读写，由 contract.ContractManager 实现
type ChainGateway interface {
	GetCampaignDetails(ctx context.Context, address common.Address) (*model.Campaign, error)
	ContributionOf(ctx context.Context, campaign, backer common.Address) (*big.Int, error)
	IsRegistered(ctx context.Context, user common.Address) (bool, error)
	GetUserProfile(ctx context.Context, user common.Address) (*model.UserProfile, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	MeetsKYCRequirement(ctx context.Context, user common.Address, level model.KYCLevel) (bool, error)
	GetUserStats(ctx context.Context) (*model.UserStats, error)
	RegistryOwner(ctx context.Context) (common.Address, error)
	FactoryAdmin(ctx context.Context) (common.Address, error)
	Operator(ctx context.Context) (common.Address, error)
	OperatorBalance(ctx context.Context) (*big.Int, error)

	CreateCampaign(ctx context.Context, title string, goalWei *big.Int, deadlineDays uint64, category, description string) (*contract.Receipt, error)
	Contribute(ctx context.Context, campaign common.Address, valueWei *big.Int) (*contract.Receipt, error)
	ApproveCampaign(ctx context.Context, campaign common.Address) (*contract.Receipt, error)
	RegisterUser(ctx context.Context, username string, emailHash common.Hash, imageRef string, role model.UserRole) (*contract.Receipt, error)
	SetKYCLevel(ctx context.Context, user common.Address, level model.KYCLevel) (*contract.Receipt, error)
	BanUser(ctx context.Context, user common.Address, reason string) (*contract.Receipt, error)
	UnbanUser(ctx context.Context, user common.Address) (*contract.Receipt, error)
}

// CampaignMirror 项目列表镜像
type CampaignMirror interface {
	List(ctx context.Context) ([]model.Campaign, error)
	Get(ctx context.Context, address common.Address) (*model.Campaign, error)
	Refresh(ctx context.Context) error
}

// UserMirror 用户列表镜像
type UserMirror interface {
	Page(ctx context.Context, offset, limit int) ([]model.UserProfile, int, error)
	Refresh(ctx context.Context) error
}

// SessionStore 本地会话
type SessionStore interface {
	Create(ctx context.Context, profile *model.UserProfile) (*model.Session, error)
	Load(ctx context.Context, wallet string) (*model.Session, error)
	Reconcile(ctx context.Context, wallet string, profile *model.UserProfile) (*model.Session, error)
	Delete(ctx context.Context, wallet string) error
}

// ParseAddress 校验并解析钱包或合约地址
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, contract.Validation("Invalid address: " + s)
	}
	return common.HexToAddress(s), nil
}

// recordTx 记录写交易结果
func recordTx(op string, err error) {
	result := "ok"
	if err != nil {
		result = string(contract.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	metrics.TransactionsTotal.WithLabelValues(op, result).Inc()
}

// gateInputFor 从链上读取钱包的注册状态，未注册时不读取资料
func gateInputFor(ctx context.Context, chain ChainGateway, op string, wallet common.Address) (GateInput, error) {
	in := GateInput{Wallet: wallet.Hex()}

	registered, err := chain.IsRegistered(ctx, wallet)
	if err != nil {
		return in, contract.Classify(op, err)
	}
	in.IsRegistered = registered
	if !registered {
		return in, nil
	}

	profile, err := chain.GetUserProfile(ctx, wallet)
	if err != nil {
		return in, contract.Classify(op, err)
	}
	in.KYCLevel = profile.KYCLevel
	in.IsBanned = profile.IsBanned
	return in, nil
}
