package contract

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/blues/fundchain/internal/chain"
	"github.com/blues/fundchain/internal/config"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractManager 合约管理器，持有工厂、注册合约以及按地址生成的项目合约
type ContractManager struct {
	mu          sync.RWMutex
	factory     *FactoryContract
	registry    *RegistryContract
	campaigns   map[common.Address]*CampaignContract
	campaignABI abi.ABI
	backend     Backend
	transactor  *Transactor
}

// NewContractManager 从链管理器创建合约管理器
func NewContractManager(m *chain.Manager) (*ContractManager, error) {
	cfg := m.GetConfig()

	factoryCfg, err := m.GetContract(config.ContractCampaignFactory)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign factory: %w", err)
	}
	registryCfg, err := m.GetContract(config.ContractUserRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to get user registry: %w", err)
	}

	manager := NewContractManagerWithBackend(
		m.GetClient(),
		m.TransactOpts,
		factoryCfg.GetAddress(), factoryCfg.GetABI(),
		registryCfg.GetAddress(), registryCfg.GetABI(),
		m.GetCampaignABI(),
	)
	manager.transactor.confirmTimeout = cfg.ConfirmTimeout

	logger.Info("Contract manager initialized: factory=%s registry=%s",
		factoryCfg.GetAddress().Hex(), registryCfg.GetAddress().Hex())
	return manager, nil
}

// NewContractManagerWithBackend 直接指定链接口创建合约管理器
func NewContractManagerWithBackend(
	backend Backend,
	signer SignerFunc,
	factoryAddress common.Address, factoryABI abi.ABI,
	registryAddress common.Address, registryABI abi.ABI,
	campaignABI abi.ABI,
) *ContractManager {
	return &ContractManager{
		factory:     NewFactoryContract(factoryAddress, factoryABI, backend, backend),
		registry:    NewRegistryContract(registryAddress, registryABI, backend, backend),
		campaigns:   make(map[common.Address]*CampaignContract),
		campaignABI: campaignABI,
		backend:     backend,
		transactor:  NewTransactor(backend, signer, 0),
	}
}

// Factory 工厂合约
func (m *ContractManager) Factory() *FactoryContract {
	return m.factory
}

// Registry 用户注册合约
func (m *ContractManager) Registry() *RegistryContract {
	return m.registry
}

// Transactor 运营钱包的交易发送器
func (m *ContractManager) Transactor() *Transactor {
	return m.transactor
}

// Campaign 按地址获取项目合约，实例会被缓存
func (m *ContractManager) Campaign(address common.Address) *CampaignContract {
	m.mu.RLock()
	c, ok := m.campaigns[address]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.campaigns[address]; ok {
		return c
	}
	c = NewCampaignContract(address, m.campaignABI, m.backend, m.backend)
	m.campaigns[address] = c
	return c
}

// GetDeployedCampaigns 工厂部署的所有项目地址
func (m *ContractManager) GetDeployedCampaigns(ctx context.Context) ([]common.Address, error) {
	return m.factory.GetDeployedCampaigns(ctx)
}

// GetCampaignDetails 读取单个项目
func (m *ContractManager) GetCampaignDetails(ctx context.Context, address common.Address) (*model.Campaign, error) {
	return m.Campaign(address).GetCampaignDetails(ctx)
}

// ContributionOf 某钱包在某项目的出资额
func (m *ContractManager) ContributionOf(ctx context.Context, campaign, backer common.Address) (*big.Int, error) {
	return m.Campaign(campaign).ContributionOf(ctx, backer)
}

// TotalUsers 注册用户总数
func (m *ContractManager) TotalUsers(ctx context.Context) (uint64, error) {
	return m.registry.TotalUsers(ctx)
}

// GetUsers 分页读取用户地址
func (m *ContractManager) GetUsers(ctx context.Context, offset, limit uint64) ([]common.Address, error) {
	return m.registry.GetUsers(ctx, offset, limit)
}

// GetUserProfile 读取用户资料
func (m *ContractManager) GetUserProfile(ctx context.Context, user common.Address) (*model.UserProfile, error) {
	return m.registry.GetUserProfile(ctx, user)
}

// IsRegistered 钱包是否已注册
func (m *ContractManager) IsRegistered(ctx context.Context, user common.Address) (bool, error) {
	return m.registry.IsRegistered(ctx, user)
}

// IsUsernameAvailable 用户名是否可用
func (m *ContractManager) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	return m.registry.IsUsernameAvailable(ctx, username)
}

// MeetsKYCRequirement 链上判断用户是否达到 KYC 等级
func (m *ContractManager) MeetsKYCRequirement(ctx context.Context, user common.Address, level model.KYCLevel) (bool, error) {
	return m.registry.MeetsKYCRequirement(ctx, user, level)
}

// GetUserStats 注册合约的统计
func (m *ContractManager) GetUserStats(ctx context.Context) (*model.UserStats, error) {
	return m.registry.GetStats(ctx)
}

// RegistryOwner 注册合约的 owner
func (m *ContractManager) RegistryOwner(ctx context.Context) (common.Address, error) {
	return m.registry.Owner(ctx)
}

// FactoryAdmin 工厂合约记录的 admin
func (m *ContractManager) FactoryAdmin(ctx context.Context) (common.Address, error) {
	return m.factory.Admin(ctx)
}

// Operator 运营钱包地址
func (m *ContractManager) Operator(ctx context.Context) (common.Address, error) {
	return m.transactor.Operator(ctx)
}

// OperatorBalance 运营钱包余额
func (m *ContractManager) OperatorBalance(ctx context.Context) (*big.Int, error) {
	return m.transactor.Balance(ctx)
}

// CreateCampaign 由运营钱包创建项目
func (m *ContractManager) CreateCampaign(ctx context.Context, title string, goalWei *big.Int, deadlineDays uint64, category, description string) (*Receipt, error) {
	return m.factory.CreateCampaign(ctx, m.transactor, title, goalWei, deadlineDays, category, description)
}

// Contribute 由运营钱包出资
func (m *ContractManager) Contribute(ctx context.Context, campaign common.Address, valueWei *big.Int) (*Receipt, error) {
	return m.Campaign(campaign).Contribute(ctx, m.transactor, valueWei)
}

// ApproveCampaign 由运营钱包审批项目
func (m *ContractManager) ApproveCampaign(ctx context.Context, campaign common.Address) (*Receipt, error) {
	return m.Campaign(campaign).ApproveCampaign(ctx, m.transactor)
}

// RegisterUser 注册运营钱包
func (m *ContractManager) RegisterUser(ctx context.Context, username string, emailHash common.Hash, imageRef string, role model.UserRole) (*Receipt, error) {
	return m.registry.RegisterUser(ctx, m.transactor, username, emailHash, imageRef, role)
}

// SetKYCLevel 设置 KYC 等级
func (m *ContractManager) SetKYCLevel(ctx context.Context, user common.Address, level model.KYCLevel) (*Receipt, error) {
	return m.registry.SetKYCLevel(ctx, m.transactor, user, level)
}

// BanUser 封禁用户
func (m *ContractManager) BanUser(ctx context.Context, user common.Address, reason string) (*Receipt, error) {
	return m.registry.BanUser(ctx, m.transactor, user, reason)
}

// UnbanUser 解封用户
func (m *ContractManager) UnbanUser(ctx context.Context, user common.Address) (*Receipt, error) {
	return m.registry.UnbanUser(ctx, m.transactor, user)
}
