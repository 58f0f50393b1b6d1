package logic

import (
	"context"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// 创建与出资的金额/期限限制
var (
	MinGoal         = decimal.RequireFromString("0.01")
	MinContribution = decimal.RequireFromString("0.001")
)

const (
	MinDurationDays = 1
	MaxDurationDays = 365

	// 计算出资项目数时的并发读取数
	backedReadLimit = 8
)

// CreateCampaignRequest 创建项目参数
type CreateCampaignRequest struct {
	Title        string `json:"title" binding:"required,max=120"`
	Description  string `json:"description" binding:"required"`
	Category     string `json:"category" binding:"required,fc_category"`
	Goal         string `json:"goal" binding:"required"` // ETH
	DurationDays int    `json:"durationDays" binding:"required,min=1,max=365"`
}

// TxResult 写操作结果
type TxResult struct {
	Receipt  *contract.Receipt `json:"receipt"`
	Campaign *CampaignView     `json:"campaign,omitempty"`
}

// CampaignLogic 项目业务逻辑
type CampaignLogic struct {
	chain     ChainGateway
	campaigns CampaignMirror
	admin     common.Address
	now       func() time.Time
}

// NewCampaignLogic 创建项目业务逻辑，admin 为配置的管理员地址
func NewCampaignLogic(chain ChainGateway, campaigns CampaignMirror, admin common.Address) *CampaignLogic {
	return &CampaignLogic{
		chain:     chain,
		campaigns: campaigns,
		admin:     admin,
		now:       time.Now,
	}
}

// Discover 获取项目列表
func (c *CampaignLogic) Discover(ctx context.Context, q DiscoveryQuery) ([]CampaignView, error) {
	campaigns, err := c.campaigns.List(ctx)
	if err != nil {
		return nil, err
	}
	return Discover(BuildViews(campaigns, c.now()), q), nil
}

// GetCampaign 获取单个项目，镜像中没有时直接读链
func (c *CampaignLogic) GetCampaign(ctx context.Context, address common.Address) (*CampaignView, error) {
	campaign, err := c.campaigns.Get(ctx, address)
	if err != nil {
		logger.Warn("Campaign list unavailable, reading %s from chain: %v", address.Hex(), err)
	}
	if campaign == nil {
		campaign, err = c.chain.GetCampaignDetails(ctx, address)
		if err != nil {
			return nil, campaignReadError(address, err)
		}
	}

	view := NewCampaignView(*campaign, c.now())
	return &view, nil
}

// Refresh 手动触发全量刷新
func (c *CampaignLogic) Refresh(ctx context.Context) error {
	return c.campaigns.Refresh(ctx)
}

// CreateCampaign 创建项目：本地校验 → 管理员拦截 → 注册/KYC 预检 → 上链 → 刷新
func (c *CampaignLogic) CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*TxResult, error) {
	goal, err := validateCreate(&req)
	if err != nil {
		return nil, err
	}

	operator, err := c.chain.Operator(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpCreateCampaign, err)
	}
	if IsAdvisoryAdmin(operator.Hex(), c.admin.Hex()) {
		return nil, contract.Denied(contract.OpCreateCampaign, "Admin cannot create campaigns. Admin role is only for verification and approval.")
	}

	in, err := gateInputFor(ctx, c.chain, contract.OpCreateCampaign, operator)
	if err != nil {
		return nil, err
	}
	in.Action = ActionCreateCampaign
	if d := CheckGate(in); !d.Allowed {
		return nil, contract.Denied(contract.OpCreateCampaign, d.Reason)
	}
	if ok, err := c.chain.MeetsKYCRequirement(ctx, operator, model.KYCBasic); err != nil {
		logger.Warn("Failed to cross-check KYC level of %s: %v", operator.Hex(), err)
	} else if !ok {
		return nil, contract.Denied(contract.OpCreateCampaign, "KYC level is not enough to create campaigns, "+model.KYCBasic.String()+" or higher is required")
	}

	receipt, err := c.chain.CreateCampaign(ctx, req.Title, contract.ToWei(goal), uint64(req.DurationDays), req.Category, req.Description)
	recordTx(contract.OpCreateCampaign, err)
	if err != nil {
		return nil, err
	}
	logger.Info("Campaign %q created in tx %s", req.Title, receipt.TxHash.Hex())

	c.refetch(ctx, contract.OpCreateCampaign)
	return &TxResult{Receipt: receipt}, nil
}

func validateCreate(req *CreateCampaignRequest) (decimal.Decimal, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	if req.Title == "" {
		return decimal.Zero, contract.Validation("Title is required")
	}
	if req.Description == "" {
		return decimal.Zero, contract.Validation("Description is required")
	}
	if !isCategory(req.Category) {
		return decimal.Zero, contract.Validation("Please select a valid category")
	}
	goal, err := contract.ParseEther(req.Goal)
	if err != nil {
		return decimal.Zero, err
	}
	if goal.LessThan(MinGoal) {
		return decimal.Zero, contract.Validation("Goal must be at least " + MinGoal.String() + " ETH")
	}
	if req.DurationDays < MinDurationDays || req.DurationDays > MaxDurationDays {
		return decimal.Zero, contract.Validation("Duration must be between 1 and 365 days")
	}
	return goal, nil
}

func isCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Contribute 出资：金额校验 → 管理员拦截 → 项目状态 → 预检 → 余额 → 上链 → 刷新
func (c *CampaignLogic) Contribute(ctx context.Context, address common.Address, amount string) (*TxResult, error) {
	value, err := contract.ParseEther(amount)
	if err != nil {
		return nil, err
	}
	if value.LessThan(MinContribution) {
		return nil, contract.Validation("Minimum contribution is " + MinContribution.String() + " ETH")
	}

	operator, err := c.chain.Operator(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpContribute, err)
	}
	if IsAdvisoryAdmin(operator.Hex(), c.admin.Hex()) {
		return nil, contract.Denied(contract.OpContribute, "Admin cannot contribute to campaigns. Admin role is only for verification and approval.")
	}

	campaign, err := c.GetCampaign(ctx, address)
	if err != nil {
		return nil, err
	}
	if !CanContribute(&campaign.Campaign, c.now()) {
		return nil, contract.Denied(contract.OpContribute, "This campaign is not accepting contributions")
	}

	in, err := gateInputFor(ctx, c.chain, contract.OpContribute, operator)
	if err != nil {
		return nil, err
	}
	in.Action = ActionContribute
	in.CampaignCreator = campaign.Creator.Hex()
	if d := CheckGate(in); !d.Allowed {
		return nil, contract.Denied(contract.OpContribute, d.Reason)
	}

	valueWei := contract.ToWei(value)
	balance, err := c.chain.OperatorBalance(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpContribute, err)
	}
	if balance.Cmp(valueWei) < 0 {
		return nil, contract.Validation("Insufficient balance: operator wallet holds " + contract.FromWei(balance).String() + " ETH")
	}

	receipt, err := c.chain.Contribute(ctx, address, valueWei)
	recordTx(contract.OpContribute, err)
	if err != nil {
		return nil, err
	}
	logger.Info("Contributed %s ETH to %s in tx %s", value.String(), address.Hex(), receipt.TxHash.Hex())

	c.refetch(ctx, contract.OpContribute)
	return &TxResult{Receipt: receipt, Campaign: c.viewAfterWrite(ctx, address)}, nil
}

// ApproveCampaign 审批：管理员提示检查 → 重复审批预检 → 上链 → 刷新
func (c *CampaignLogic) ApproveCampaign(ctx context.Context, address common.Address) (*TxResult, error) {
	operator, err := c.chain.Operator(ctx)
	if err != nil {
		return nil, contract.Classify(contract.OpApprove, err)
	}
	if !IsAdvisoryAdmin(operator.Hex(), c.admin.Hex()) {
		return nil, contract.Denied(contract.OpApprove, "Only admin can approve campaigns")
	}

	current, err := c.chain.GetCampaignDetails(ctx, address)
	if err != nil {
		return nil, campaignReadError(address, err)
	}
	if current.IsApproved {
		return nil, contract.Classify(contract.OpApprove, errAlreadyApproved)
	}

	receipt, err := c.chain.ApproveCampaign(ctx, address)
	recordTx(contract.OpApprove, err)
	if err != nil {
		return nil, err
	}
	logger.Info("Campaign %s approved in tx %s", address.Hex(), receipt.TxHash.Hex())

	c.refetch(ctx, contract.OpApprove)
	return &TxResult{Receipt: receipt, Campaign: c.viewAfterWrite(ctx, address)}, nil
}

// Capabilities 钱包能力提示，只读，各项读取互不依赖
func (c *CampaignLogic) Capabilities(ctx context.Context, wallet common.Address) (*Capabilities, error) {
	campaigns, err := c.campaigns.List(ctx)
	if err != nil {
		return nil, err
	}

	var factoryAdmin, registryOwner common.Address
	backed := make([]bool, len(campaigns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backedReadLimit)
	g.Go(func() error {
		addr, err := c.chain.FactoryAdmin(gctx)
		if err != nil {
			logger.Warn("Failed to read factory admin: %v", err)
			return nil
		}
		factoryAdmin = addr
		return nil
	})
	g.Go(func() error {
		addr, err := c.chain.RegistryOwner(gctx)
		if err != nil {
			logger.Warn("Failed to read registry owner: %v", err)
			return nil
		}
		registryOwner = addr
		return nil
	})
	for i := range campaigns {
		g.Go(func() error {
			amount, err := c.chain.ContributionOf(gctx, campaigns[i].Address, wallet)
			if err != nil {
				logger.Warn("Failed to read contribution of %s to %s: %v", wallet.Hex(), campaigns[i].Address.Hex(), err)
				return nil
			}
			backed[i] = amount.Sign() > 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	backedCount := 0
	for _, b := range backed {
		if b {
			backedCount++
		}
	}

	in := CapabilityInput{
		Wallet:        wallet.Hex(),
		AdminConstant: c.admin.Hex(),
		Campaigns:     campaigns,
		BackedCount:   backedCount,
	}
	if factoryAdmin != (common.Address{}) {
		in.FactoryAdmin = factoryAdmin.Hex()
	}
	if registryOwner != (common.Address{}) {
		in.RegistryOwner = registryOwner.Hex()
	}
	caps := ClassifyCapabilities(in)
	if caps.AdminMismatch {
		logger.Warn("Factory admin %s differs from configured admin %s", in.FactoryAdmin, in.AdminConstant)
	}
	return &caps, nil
}

// refetch 写入成功后全量刷新，失败只记录日志
func (c *CampaignLogic) refetch(ctx context.Context, op string) {
	if err := c.campaigns.Refresh(ctx); err != nil {
		logger.Warn("Failed to refetch campaigns after %s: %v", op, err)
	}
}

func (c *CampaignLogic) viewAfterWrite(ctx context.Context, address common.Address) *CampaignView {
	view, err := c.GetCampaign(ctx, address)
	if err != nil {
		return nil
	}
	return view
}
