package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blues/fundchain/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ContractCampaign 单个众筹项目合约，地址由工厂合约动态产生
const ContractCampaign = "campaign"

// 合约ABI定义，配置中未指定 abi_path 时使用
const CampaignFactoryABI = `[
	{"anonymous": false, "inputs": [
		{"indexed": false, "name": "campaignAddress", "type": "address"},
		{"indexed": false, "name": "creator", "type": "address"},
		{"indexed": false, "name": "title", "type": "string"},
		{"indexed": false, "name": "goal", "type": "uint256"}
	], "name": "CampaignCreated", "type": "event"},
	{"inputs": [
		{"name": "_title", "type": "string"},
		{"name": "_goal", "type": "uint256"},
		{"name": "_deadline", "type": "uint256"},
		{"name": "_category", "type": "string"},
		{"name": "_description", "type": "string"}
	], "name": "createCampaign", "outputs": [{"name": "", "type": "address"}], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "", "type": "uint256"}], "name": "deployedCampaigns", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "getDeployedCampaigns", "outputs": [{"name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_address", "type": "address"}], "name": "isAdmin", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "admin", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"}
]`

const CampaignABI = `[
	{"anonymous": false, "inputs": [
		{"indexed": false, "name": "contributor", "type": "address"},
		{"indexed": false, "name": "amount", "type": "uint256"}
	], "name": "Funded", "type": "event"},
	{"anonymous": false, "inputs": [], "name": "CampaignApproved", "type": "event"},
	{"anonymous": false, "inputs": [], "name": "CampaignCompleted", "type": "event"},
	{"inputs": [], "name": "approveCampaign", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [], "name": "contribute", "outputs": [], "stateMutability": "payable", "type": "function"},
	{"inputs": [], "name": "getCampaignDetails", "outputs": [
		{"name": "", "type": "address"},
		{"name": "", "type": "string"},
		{"name": "", "type": "string"},
		{"name": "", "type": "string"},
		{"name": "", "type": "uint256"},
		{"name": "", "type": "uint256"},
		{"name": "", "type": "uint256"},
		{"name": "", "type": "uint256"},
		{"name": "", "type": "bool"},
		{"name": "", "type": "bool"},
		{"name": "", "type": "uint256"}
	], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "getContributorsCount", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "withdrawFunds", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "", "type": "address"}], "name": "contributionsByAddress", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const UserRegistryABI = `[
	{"anonymous": false, "inputs": [
		{"indexed": true, "name": "user", "type": "address"},
		{"indexed": false, "name": "username", "type": "string"},
		{"indexed": false, "name": "role", "type": "uint8"}
	], "name": "UserRegistered", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "name": "user", "type": "address"},
		{"indexed": false, "name": "reason", "type": "string"}
	], "name": "UserBanned", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "name": "user", "type": "address"}
	], "name": "UserUnbanned", "type": "event"},
	{"anonymous": false, "inputs": [
		{"indexed": true, "name": "user", "type": "address"},
		{"indexed": false, "name": "newLevel", "type": "uint8"}
	], "name": "KYCLevelUpdated", "type": "event"},
	{"inputs": [], "name": "owner", "outputs": [{"name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}], "name": "isRegistered", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}], "name": "getUserProfile", "outputs": [
		{"name": "", "type": "tuple", "components": [
			{"name": "walletAddress", "type": "address"},
			{"name": "username", "type": "string"},
			{"name": "emailHash", "type": "bytes32"},
			{"name": "profileImageHash", "type": "string"},
			{"name": "kycLevel", "type": "uint8"},
			{"name": "primaryRole", "type": "uint8"},
			{"name": "registrationDate", "type": "uint256"},
			{"name": "lastLoginDate", "type": "uint256"},
			{"name": "isActive", "type": "bool"},
			{"name": "isBanned", "type": "bool"},
			{"name": "reputationScore", "type": "uint256"}
		]}
	], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_username", "type": "string"}], "name": "isUsernameAvailable", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}, {"name": "_requiredLevel", "type": "uint8"}], "name": "meetsKYCRequirement", "outputs": [{"name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "totalUsers", "outputs": [{"name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
	{"inputs": [{"name": "_offset", "type": "uint256"}, {"name": "_limit", "type": "uint256"}], "name": "getUsers", "outputs": [{"name": "", "type": "address[]"}], "stateMutability": "view", "type": "function"},
	{"inputs": [], "name": "getStats", "outputs": [
		{"name": "total", "type": "uint256"},
		{"name": "banned", "type": "uint256"},
		{"name": "active", "type": "uint256"}
	], "stateMutability": "view", "type": "function"},
	{"inputs": [
		{"name": "_username", "type": "string"},
		{"name": "_emailHash", "type": "bytes32"},
		{"name": "_profileImageHash", "type": "string"},
		{"name": "_role", "type": "uint8"}
	], "name": "registerUser", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}, {"name": "_level", "type": "uint8"}], "name": "setKYCLevel", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}, {"name": "_reason", "type": "string"}], "name": "banUser", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
	{"inputs": [{"name": "_user", "type": "address"}], "name": "unbanUser", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

// defaultABIs 配置名称 -> 内置ABI
var defaultABIs = map[string]string{
	config.ContractUserRegistry:    UserRegistryABI,
	config.ContractCampaignFactory: CampaignFactoryABI,
	ContractCampaign:               CampaignABI,
}

// ParseABI 解析ABI，支持完整编译输出 {"abi": [...]} 或直接的ABI数组
func ParseABI(data []byte) (abi.ABI, error) {
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	// 首先尝试解析为完整编译输出
	if err := json.Unmarshal(data, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsed, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsed, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}

// LoadABI 从文件加载ABI，路径为空时使用内置ABI
func LoadABI(name, path string) (abi.ABI, error) {
	if path == "" {
		def, ok := defaultABIs[name]
		if !ok {
			return abi.ABI{}, fmt.Errorf("no built-in ABI for contract %s", name)
		}
		return abi.JSON(strings.NewReader(def))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}
	return ParseABI(data)
}

// MustParseABI 解析内置ABI，失败时 panic
func MustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in ABI: %v", err))
	}
	return parsed
}
