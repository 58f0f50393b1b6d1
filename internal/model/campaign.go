package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Campaign 链上众筹项目的只读投影，来自 getCampaignDetails
type Campaign struct {
	Address     common.Address  `json:"address"`
	Creator     common.Address  `json:"creator"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Goal        decimal.Decimal `json:"goal"`        // ETH
	TotalRaised decimal.Decimal `json:"totalRaised"` // ETH
	Balance     decimal.Decimal `json:"balance"`     // ETH
	Deadline    time.Time       `json:"deadline"`
	Backers     uint64          `json:"backers"`
	IsApproved  bool            `json:"isApproved"`
	IsActive    bool            `json:"isActive"`
}

// CampaignStatus 项目展示状态
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"   // 待审批
	CampaignStatusCompleted CampaignStatus = "completed" // 已达成目标
	CampaignStatusExpired   CampaignStatus = "expired"   // 已过期
	CampaignStatusActive    CampaignStatus = "active"    // 进行中
)

// CampaignStatuses 全部状态，按展示顺序
var CampaignStatuses = []CampaignStatus{
	CampaignStatusPending,
	CampaignStatusActive,
	CampaignStatusCompleted,
	CampaignStatusExpired,
}

// IsCreatedBy 判断项目是否由该钱包创建
func (c *Campaign) IsCreatedBy(wallet common.Address) bool {
	return c.Creator == wallet
}
