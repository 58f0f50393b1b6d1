package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/fundchain/internal/chain"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// CampaignContract 单个项目合约
type CampaignContract struct {
	*Contract
}

// NewCampaignContract 按地址创建项目合约绑定
func NewCampaignContract(address common.Address, parsedABI abi.ABI, caller bind.ContractCaller, transactor bind.ContractTransactor) *CampaignContract {
	return &CampaignContract{Contract: NewContract(chain.ContractCampaign, address, parsedABI, caller, transactor)}
}

// GetCampaignDetails 读取项目详情并转换为投影
func (c *CampaignContract) GetCampaignDetails(ctx context.Context) (*model.Campaign, error) {
	out, err := c.call(ctx, "getCampaignDetails")
	if err != nil {
		return nil, err
	}
	if len(out) != 11 {
		return nil, fmt.Errorf("getCampaignDetails returned %d values, want 11", len(out))
	}

	deadline := *abi.ConvertType(out[5], new(*big.Int)).(**big.Int)
	backers := *abi.ConvertType(out[7], new(*big.Int)).(**big.Int)

	return &model.Campaign{
		Address:     c.address,
		Creator:     *abi.ConvertType(out[0], new(common.Address)).(*common.Address),
		Title:       *abi.ConvertType(out[1], new(string)).(*string),
		Category:    *abi.ConvertType(out[2], new(string)).(*string),
		Description: *abi.ConvertType(out[3], new(string)).(*string),
		Goal:        FromWei(*abi.ConvertType(out[4], new(*big.Int)).(**big.Int)),
		Deadline:    time.Unix(deadline.Int64(), 0).UTC(),
		TotalRaised: FromWei(*abi.ConvertType(out[6], new(*big.Int)).(**big.Int)),
		Backers:     backers.Uint64(),
		IsApproved:  *abi.ConvertType(out[8], new(bool)).(*bool),
		IsActive:    *abi.ConvertType(out[9], new(bool)).(*bool),
		Balance:     FromWei(*abi.ConvertType(out[10], new(*big.Int)).(**big.Int)),
	}, nil
}

// ContributionOf 某地址在该项目的累计出资（wei）
func (c *CampaignContract) ContributionOf(ctx context.Context, backer common.Address) (*big.Int, error) {
	return callOne[*big.Int](ctx, c.Contract, "contributionsByAddress", backer)
}

// Contribute 出资，valueWei 随交易转入
func (c *CampaignContract) Contribute(ctx context.Context, tx *Transactor, valueWei *big.Int) (*Receipt, error) {
	return tx.Send(ctx, OpContribute, c.Contract, GasContribute, valueWei, "contribute")
}

// ApproveCampaign 审批项目，链上只允许管理员
func (c *CampaignContract) ApproveCampaign(ctx context.Context, tx *Transactor) (*Receipt, error) {
	return tx.Send(ctx, OpApprove, c.Contract, GasApprove, nil, "approveCampaign")
}
