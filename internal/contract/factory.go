package contract

import (
	"context"
	"math/big"

	"github.com/blues/fundchain/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// FactoryContract CampaignFactory 合约
type FactoryContract struct {
	*Contract
}

// NewFactoryContract 创建工厂合约绑定
func NewFactoryContract(address common.Address, parsedABI abi.ABI, caller bind.ContractCaller, transactor bind.ContractTransactor) *FactoryContract {
	return &FactoryContract{Contract: NewContract(config.ContractCampaignFactory, address, parsedABI, caller, transactor)}
}

// GetDeployedCampaigns 全部项目合约地址
func (f *FactoryContract) GetDeployedCampaigns(ctx context.Context) ([]common.Address, error) {
	return callOne[[]common.Address](ctx, f.Contract, "getDeployedCampaigns")
}

// Admin 链上记录的管理员，仅用于提示与配置不一致
func (f *FactoryContract) Admin(ctx context.Context) (common.Address, error) {
	return callOne[common.Address](ctx, f.Contract, "admin")
}

// IsAdmin 链上管理员判断
func (f *FactoryContract) IsAdmin(ctx context.Context, address common.Address) (bool, error) {
	return callOne[bool](ctx, f.Contract, "isAdmin", address)
}

// CreateCampaign 创建项目，deadlineDays 为持续天数
func (f *FactoryContract) CreateCampaign(ctx context.Context, tx *Transactor, title string, goalWei *big.Int, deadlineDays uint64, category, description string) (*Receipt, error) {
	return tx.Send(ctx, OpCreateCampaign, f.Contract, GasCreateCampaign, nil,
		"createCampaign", title, goalWei, new(big.Int).SetUint64(deadlineDays), category, description)
}
