package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/blues/fundchain/internal/config"
	"github.com/blues/fundchain/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrWrongNetwork 节点所在链与配置不一致
	ErrWrongNetwork = errors.New("wrong network")
	// ErrNoOperator 未配置运营钱包私钥，只能读取
	ErrNoOperator = errors.New("no operator wallet configured")
)

// Manager 单链管理器
type Manager struct {
	mu          sync.RWMutex
	contracts   map[string]*Contract // 合约映射: "contractName" -> Contract
	campaignABI abi.ABI              // 项目合约共用的ABI
	client      *ethclient.Client    // 链客户端
	config      config.ChainConfig   // 存储链配置
	operatorKey *ecdsa.PrivateKey    // 运营钱包，负责所有写操作
	operator    common.Address
}

// NewManager 创建单链管理器
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	manager := &Manager{
		contracts: make(map[string]*Contract),
		client:    nil, // 将在初始化时创建
		config:    cfg,
	}

	if err := manager.initOperator(cfg); err != nil {
		return nil, err
	}

	// 初始化客户端
	if err := manager.initClient(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	// 初始化所有启用的合约
	if err := manager.initContracts(cfg); err != nil {
		manager.client.Close()
		return nil, fmt.Errorf("failed to initialize contracts: %w", err)
	}

	return manager, nil
}

// initOperator 解析运营钱包私钥，未配置时以只读模式运行
func (m *Manager) initOperator(cfg config.ChainConfig) error {
	if cfg.PrivateKey == "" {
		logger.Warn("No operator private key configured, write operations are disabled")
		return nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return fmt.Errorf("failed to parse private key: %w", err)
	}
	m.operatorKey = key
	m.operator = crypto.PubkeyToAddress(key.PublicKey)
	logger.Info("Operator wallet: %s", m.operator.Hex())
	return nil
}

// initClient 初始化客户端
func (m *Manager) initClient(ctx context.Context, cfg config.ChainConfig) error {
	logger.Info("Initializing chain client (type: %s, id: %d)", cfg.ChainType, cfg.ChainId)

	// 创建客户端
	client, err := m.createChainClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	// 保存客户端
	m.client = client
	logger.Info("Successfully initialized client")

	return nil
}

// initContracts 初始化所有合约
func (m *Manager) initContracts(cfg config.ChainConfig) error {
	var initErrors []error

	campaignABI, err := LoadABI(ContractCampaign, "")
	if err != nil {
		return err
	}
	m.campaignABI = campaignABI

	// 遍历所有合约
	for contractName, contractCfg := range cfg.Contracts {
		if !contractCfg.Enabled {
			logger.Info("Skipping disabled contract: %s", contractName)
			continue
		}

		logger.Info("Initializing contract: %s (address: %s)", contractName, contractCfg.Address)

		// 创建合约实例
		contract, err := NewContract(contractName, contractCfg, cfg)
		if err != nil {
			logger.Error("Failed to create contract %s: %v", contractName, err)
			initErrors = append(initErrors, fmt.Errorf("failed to create contract %s: %w", contractName, err))
			continue
		}

		// 存储合约
		m.contracts[contractName] = contract
		logger.Info("Successfully initialized contract: %s", contractName)
	}

	// 如果有错误，返回第一个错误
	if len(initErrors) > 0 {
		return initErrors[0]
	}

	logger.Info("Successfully initialized %d contracts", len(m.contracts))
	return nil
}

// createChainClient 创建链客户端
func (m *Manager) createChainClient(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	rpcUrl := cfg.RpcUrl
	if rpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	// 验证链类型
	supportedTypes := []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism"}
	isSupported := false
	for _, supportedType := range supportedTypes {
		if cfg.ChainType == supportedType {
			isSupported = true
			break
		}
	}

	if !isSupported {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: ethereum, polygon, bsc, arbitrum, optimism", cfg.ChainType)
	}

	// 根据链类型创建客户端
	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, rpcUrl)
	client, err := m.createChainTypeClient(ctx, cfg.ChainType, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	// 测试连接
	if err := m.testClientConnection(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}

	// 检查链ID
	if err := CheckChainID(ctx, client, cfg.ChainId); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Successfully created %s client", cfg.ChainType)
	return client, nil
}

// createChainTypeClient 根据链类型创建客户端
func (m *Manager) createChainTypeClient(ctx context.Context, chainType, rpcUrl string) (*ethclient.Client, error) {
	switch chainType {
	case "ethereum", "polygon", "bsc", "arbitrum", "optimism":
		return ethclient.DialContext(ctx, rpcUrl)
	default:
		return nil, fmt.Errorf("unsupported chain type: %s", chainType)
	}
}

// testClientConnection 测试客户端连接
func (m *Manager) testClientConnection(ctx context.Context, client *ethclient.Client) error {
	// 尝试获取最新区块号
	_, err := client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get block number: %w", err)
	}
	return nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// GetContract 获取指定合约
func (m *Manager) GetContract(contractName string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contract, exists := m.contracts[contractName]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", contractName)
	}

	return contract, nil
}

// GetContracts 获取所有合约
func (m *Manager) GetContracts() map[string]*Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// 返回副本以避免并发修改
	contracts := make(map[string]*Contract)
	for name, contract := range m.contracts {
		contracts[name] = contract
	}

	return contracts
}

// GetConfig 获取链配置
func (m *Manager) GetConfig() config.ChainConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetChainId 获取链ID
func (m *Manager) GetChainId() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ChainId
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
		"network":       NetworkName(m.config.ChainId),
		"operator":      m.operator.Hex(),
		"contracts":     make(map[string]interface{}),
	}

	// 检查客户端连接状态
	if m.client != nil {
		if _, err := m.client.BlockNumber(ctx); err != nil {
			health["client_status"] = "disconnected"
		}
	} else {
		health["client_status"] = "not_initialized"
	}

	// 检查每个合约的状态
	for contractName, contract := range m.contracts {
		contractHealth := map[string]interface{}{
			"enabled":   true, // 工具类合约默认启用
			"address":   contract.GetAddress().Hex(),
			"chain_id":  contract.GetChainId(),
			"block_num": contract.GetBlockNum(),
		}
		health["contracts"].(map[string]interface{})[contractName] = contractHealth
	}

	return health
}

// GetCampaignContract 按地址生成项目合约实例
func (m *Manager) GetCampaignContract(address common.Address) *Contract {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NewCampaignContract(address, m.campaignABI, 0, m.config.ChainId)
}

// GetCampaignABI 获取项目合约ABI
func (m *Manager) GetCampaignABI() abi.ABI {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.campaignABI
}

// Operator 运营钱包地址，未配置时返回 false
func (m *Manager) Operator() (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.operator, m.operatorKey != nil
}

// TransactOpts 为运营钱包生成签名参数
func (m *Manager) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.operatorKey == nil {
		return nil, ErrNoOperator
	}
	opts, err := bind.NewKeyedTransactorWithChainID(m.operatorKey, big.NewInt(m.config.ChainId))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// Close 关闭管理器
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		m.client.Close()
	}

	logger.Info("Chain manager closed")
	return nil
}
