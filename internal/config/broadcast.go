package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blues/fundchain/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Foundry 部署输出中的合约名称
const (
	broadcastUserRegistry    = "UserRegistry"
	broadcastCampaignFactory = "CampaignFactory"
)

type broadcastFile struct {
	Transactions []broadcastTx      `json:"transactions"`
	Receipts     []broadcastReceipt `json:"receipts"`
}

type broadcastTx struct {
	Hash            string `json:"hash"`
	TransactionType string `json:"transactionType"`
	ContractName    string `json:"contractName"`
	ContractAddress string `json:"contractAddress"`
}

type broadcastReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
	ContractAddress string `json:"contractAddress"`
}

// DeployedContract 部署输出中解析出的合约
type DeployedContract struct {
	Address  common.Address
	BlockNum int64
}

// ParseBroadcast 解析 Foundry 的 run-latest.json，返回 contractName -> 部署信息
func ParseBroadcast(data []byte) (map[string]DeployedContract, error) {
	var file broadcastFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse broadcast file: %w", err)
	}

	blocks := make(map[string]int64, len(file.Receipts))
	for _, r := range file.Receipts {
		n, err := parseHexInt(r.BlockNumber)
		if err != nil {
			continue
		}
		blocks[strings.ToLower(r.TransactionHash)] = n
	}

	deployed := make(map[string]DeployedContract)
	for _, tx := range file.Transactions {
		if tx.TransactionType != "CREATE" || tx.ContractName == "" {
			continue
		}
		if !common.IsHexAddress(tx.ContractAddress) {
			return nil, fmt.Errorf("broadcast entry %s has invalid address %q", tx.ContractName, tx.ContractAddress)
		}
		deployed[tx.ContractName] = DeployedContract{
			Address:  common.HexToAddress(tx.ContractAddress),
			BlockNum: blocks[strings.ToLower(tx.Hash)],
		}
	}
	return deployed, nil
}

// ApplyBroadcast 用部署输出覆盖合约地址，不写回任何文件
func ApplyBroadcast(cfg *ChainConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read broadcast file %s: %w", path, err)
	}

	deployed, err := ParseBroadcast(data)
	if err != nil {
		return err
	}

	mapping := map[string]string{
		broadcastUserRegistry:    ContractUserRegistry,
		broadcastCampaignFactory: ContractCampaignFactory,
	}

	if cfg.Contracts == nil {
		cfg.Contracts = make(map[string]ContractConfig)
	}
	for contractName, configName := range mapping {
		d, ok := deployed[contractName]
		if !ok {
			return fmt.Errorf("broadcast file %s has no %s deployment", path, contractName)
		}
		contractCfg := cfg.Contracts[configName]
		contractCfg.Address = d.Address.Hex()
		contractCfg.Enabled = true
		if contractCfg.BlockNum == 0 {
			contractCfg.BlockNum = d.BlockNum
		}
		cfg.Contracts[configName] = contractCfg
		logger.Info("Resolved %s from broadcast: %s (block %d)", contractName, d.Address.Hex(), contractCfg.BlockNum)
	}
	return nil
}

func parseHexInt(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseInt(s, 16, 64)
}
