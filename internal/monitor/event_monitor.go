package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/fundchain/internal/chain"
	"github.com/blues/fundchain/internal/config"
	"github.com/blues/fundchain/internal/event"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultInterval   = 15 * time.Second
	defaultBatchSize  = int64(500)
	maxBackoff        = 5 * time.Minute
	batchPause        = 500 * time.Millisecond
	initialBackoff    = 10 * time.Second
	defaultGroupLimit = 8
)

// ContractSource 需要监控的合约
type ContractSource interface {
	GetContracts() map[string]*chain.Contract
	GetCampaignContract(address common.Address) *chain.Contract
}

// CampaignLister 当前项目列表，用于监控各项目合约
type CampaignLister interface {
	List(ctx context.Context) ([]model.Campaign, error)
}

// EventStore 事件持久化
type EventStore interface {
	Save(ctx context.Context, event *model.EventModel) (bool, error)
	MaxBlockNum(ctx context.Context) (int64, error)
}

// Refresher 批次结束后刷新被标脏的镜像
type Refresher interface {
	RefreshIfDirty(ctx context.Context) (bool, error)
}

// EventMonitor 区块链事件监控器
type EventMonitor struct {
	contracts  ContractSource
	campaigns  CampaignLister
	block      *chain.Block
	events     EventStore
	processors *event.ProcessorManager
	refreshers []Refresher

	interval   time.Duration
	batchSize  int64
	groupLimit int
	pause      time.Duration

	mu            sync.RWMutex // 保护 startBlockNum 的并发访问
	startBlockNum int64
	retryCount    int
	lastError     string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(
	cfg config.MonitorConfig,
	contracts ContractSource,
	reader chain.LogReader,
	campaigns CampaignLister,
	events EventStore,
	processors *event.ProcessorManager,
	refreshers ...Refresher,
) *EventMonitor {
	interval := time.Duration(cfg.Interval) * time.Second
	if interval <= 0 {
		interval = defaultInterval
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	groupLimit := cfg.PoolSize
	if groupLimit <= 0 {
		groupLimit = defaultGroupLimit
	}

	return &EventMonitor{
		contracts:  contracts,
		campaigns:  campaigns,
		block:      chain.NewBlock(reader),
		events:     events,
		processors: processors,
		refreshers: refreshers,
		interval:   interval,
		batchSize:  batchSize,
		groupLimit: groupLimit,
		pause:      batchPause,
	}
}

// Start 确定起始区块并启动监控循环
func (m *EventMonitor) Start(ctx context.Context) error {
	logger.Info("Starting blockchain event monitor")

	contracts := m.contracts.GetContracts()
	if len(contracts) == 0 {
		return fmt.Errorf("no contracts available for monitoring")
	}
	logger.Info("Found %d contracts to monitor", len(contracts))

	currentBlock, err := m.block.GetCurrentBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to blockchain: %w", err)
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	startBlock := m.resolveStartBlock(ctx, contracts)
	m.updateStartBlockNum(startBlock)
	logger.Info("Starting monitor from block %d", startBlock)

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.loop(loopCtx)

	return nil
}

// Stop 停止监控并等待循环退出
func (m *EventMonitor) Stop() {
	logger.Info("Stopping blockchain event monitor")
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// loop 监控循环，出错后按退避时间等待
func (m *EventMonitor) loop(ctx context.Context) {
	defer close(m.done)

	wait := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-time.After(wait):
		}

		if err := m.poll(ctx); err != nil {
			wait = m.handleError(err)
			continue
		}
		m.resetError()
		wait = m.interval
	}
}

// poll 处理从起始区块到最新区块的所有批次
func (m *EventMonitor) poll(ctx context.Context) error {
	currentBlock, err := m.block.GetCurrentBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current block number: %w", err)
	}
	logger.Debug("Current block number: %d", currentBlock)

	return m.processBlocksInBatches(ctx, m.getStartBlockNum(), currentBlock)
}

// processBlocksInBatches 分批处理区块，每批结束后推进起始区块并刷新被标脏的镜像
func (m *EventMonitor) processBlocksInBatches(ctx context.Context, fromBlock, toBlock int64) error {
	if fromBlock > toBlock {
		return nil
	}
	logger.Debug("Processing blocks from %d to %d", fromBlock, toBlock)

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += m.batchSize {
		currentTo := currentFrom + m.batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		if err := m.processBatchBlocks(ctx, currentFrom, currentTo); err != nil {
			return fmt.Errorf("blocks %d-%d: %w", currentFrom, currentTo, err)
		}
		m.updateStartBlockNum(currentTo + 1)
		m.refreshDirty(ctx)

		if currentTo < toBlock && m.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}
	return nil
}

// processBatchBlocks 拉取一批区块的日志并按合约并发处理
func (m *EventMonitor) processBatchBlocks(ctx context.Context, fromBlock, toBlock int64) error {
	addresses, contractMap := m.getDeployedContracts(ctx, toBlock)
	if len(addresses) == 0 {
		logger.Debug("No deployed contracts for blocks %d-%d", fromBlock, toBlock)
		return nil
	}

	logs, err := m.block.GetBatchBlockLogs(ctx, addresses, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs: %w", err)
	}

	// 同一批次内新建的项目，其日志需要用同样的区块范围补拉
	if created := m.createdCampaigns(logs, contractMap); len(created) > 0 {
		createdLogs, err := m.block.GetBatchBlockLogs(ctx, created, fromBlock, toBlock)
		if err != nil {
			return fmt.Errorf("error getting logs of %d new campaigns: %w", len(created), err)
		}
		logs = append(logs, createdLogs...)
	}
	if len(logs) == 0 {
		return nil
	}
	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	logsByContract := groupLogsByContract(logs)
	size := len(logsByContract)
	if size > m.groupLimit {
		size = m.groupLimit
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return fmt.Errorf("failed to create pool for %d groups: %w", size, err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for address, contractLogs := range logsByContract {
		contract := contractMap[address]
		if contract == nil {
			logger.Warn("Unknown contract address: %s", address.Hex())
			continue
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			m.processContractLogs(ctx, contract, contractLogs)
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// createdCampaigns 从工厂的 CampaignCreated 日志中找出尚未监控的项目地址，并登记到 contractMap
func (m *EventMonitor) createdCampaigns(logs []types.Log, contractMap map[common.Address]*chain.Contract) []common.Address {
	var created []common.Address
	for _, log := range logs {
		factory := contractMap[log.Address]
		if factory == nil || factory.GetName() != config.ContractCampaignFactory {
			continue
		}
		eventData, err := factory.ParseEvent(log)
		if err != nil || eventData["eventName"] != model.EventCampaignCreated {
			continue
		}
		address, ok := eventData["campaignAddress"].(common.Address)
		if !ok {
			continue
		}
		if _, known := contractMap[address]; known {
			continue
		}
		contractMap[address] = m.contracts.GetCampaignContract(address)
		created = append(created, address)
	}
	return created
}

// processContractLogs 解析、保存并分发一个合约的日志
func (m *EventMonitor) processContractLogs(ctx context.Context, contract *chain.Contract, logs []types.Log) {
	for _, log := range logs {
		eventData, err := contract.ParseEvent(log)
		if err != nil {
			logger.Error("Error parsing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		eventDataJSON, err := json.Marshal(eventData)
		if err != nil {
			logger.Error("Failed to marshal event data to JSON: %v", err)
			continue
		}

		eventType, _ := eventData["eventName"].(string)
		record := &model.EventModel{
			ContractAddress: contract.GetAddress().Hex(),
			ContractName:    contract.GetName(),
			EventType:       eventType,
			Subject:         event.SubjectOf(contract.GetAddress(), eventData),
			BlockNum:        int64(log.BlockNumber),
			TxHash:          log.TxHash.Hex(),
			LogIndex:        int64(log.Index),
			Data:            string(eventDataJSON),
		}

		inserted, err := m.events.Save(ctx, record)
		if err != nil {
			logger.Error("Failed to save event %s of %s: %v", eventType, contract.GetName(), err)
		} else if !inserted {
			logger.Debug("Event %s:%d already stored", record.TxHash, record.LogIndex)
		}

		if err := m.processors.ProcessEvent(ctx, record, eventData); err != nil {
			logger.Error("Error processing event for contract %s: %v", contract.GetName(), err)
			continue
		}

		logger.Debug("Processed %s for contract %s at block %d", eventType, contract.GetName(), log.BlockNumber)
	}
}

// refreshDirty 批次之间只整体刷新一次
func (m *EventMonitor) refreshDirty(ctx context.Context) {
	for _, r := range m.refreshers {
		if _, err := r.RefreshIfDirty(ctx); err != nil {
			logger.Warn("Refetch after events failed: %v", err)
		}
	}
}

// resolveStartBlock 取配置的最小部署区块与已保存事件最大区块+1 中的较大者
func (m *EventMonitor) resolveStartBlock(ctx context.Context, contracts map[string]*chain.Contract) int64 {
	minDeployBlock := int64(-1)
	for _, contract := range contracts {
		if minDeployBlock < 0 || contract.GetBlockNum() < minDeployBlock {
			minDeployBlock = contract.GetBlockNum()
		}
	}
	if minDeployBlock < 0 {
		minDeployBlock = 0
	}

	maxProcessedBlock, err := m.events.MaxBlockNum(ctx)
	if err != nil {
		logger.Error("Failed to get max processed block number: %v", err)
		return minDeployBlock
	}

	startBlock := minDeployBlock
	if maxProcessedBlock >= minDeployBlock && maxProcessedBlock > 0 {
		startBlock = maxProcessedBlock + 1
	}
	logger.Info("Final start block: %d (config: %d, db: %d)", startBlock, minDeployBlock, maxProcessedBlock)
	return startBlock
}

// getDeployedContracts 到 toBlock 为止已部署的合约，加上当前已知的项目合约
func (m *EventMonitor) getDeployedContracts(ctx context.Context, toBlock int64) ([]common.Address, map[common.Address]*chain.Contract) {
	var addresses []common.Address
	contractMap := make(map[common.Address]*chain.Contract)

	for name, contract := range m.contracts.GetContracts() {
		if toBlock < contract.GetBlockNum() {
			logger.Debug("Skipping contract %s until block %d", name, contract.GetBlockNum())
			continue
		}
		addresses = append(addresses, contract.GetAddress())
		contractMap[contract.GetAddress()] = contract
	}

	if m.campaigns != nil {
		campaigns, err := m.campaigns.List(ctx)
		if err != nil {
			logger.Warn("Campaign contracts not monitored this batch: %v", err)
		}
		for _, c := range campaigns {
			if _, ok := contractMap[c.Address]; ok {
				continue
			}
			addresses = append(addresses, c.Address)
			contractMap[c.Address] = m.contracts.GetCampaignContract(c.Address)
		}
	}

	return addresses, contractMap
}

func (m *EventMonitor) getStartBlockNum() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startBlockNum
}

func (m *EventMonitor) updateStartBlockNum(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
	metrics.MonitorBlock.Set(float64(blockNum))
}

// handleError 记录错误并返回下一次重试前的等待时间
func (m *EventMonitor) handleError(err error) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.retryCount++
	m.lastError = err.Error()

	backoff := time.Duration(m.retryCount) * initialBackoff
	if isRateLimitError(err) {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	logger.Error("Monitor encountered error (retry %d, next in %s): %v", m.retryCount, backoff, err)
	return backoff
}

func (m *EventMonitor) resetError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryCount = 0
	m.lastError = ""
}

// GetStatus 获取监控状态
func (m *EventMonitor) GetStatus() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"next_block":     m.startBlockNum,
		"contract_count": len(m.contracts.GetContracts()),
		"retry_count":    m.retryCount,
		"last_error":     m.lastError,
		"batch_size":     m.batchSize,
	}
}

// isRateLimitError 检查是否为节点限流错误
func isRateLimitError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Too Many Requests") || strings.Contains(msg, "429")
}

// groupLogsByContract 按合约地址分组日志
func groupLogsByContract(logs []types.Log) map[common.Address][]types.Log {
	logsByContract := make(map[common.Address][]types.Log)
	for _, log := range logs {
		logsByContract[log.Address] = append(logsByContract[log.Address], log)
	}
	return logsByContract
}
