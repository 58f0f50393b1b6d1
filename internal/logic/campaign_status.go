package logic

import (
	"time"

	"github.com/blues/fundchain/internal/model"
	"github.com/shopspring/decimal"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

var hundred = decimal.NewFromInt(100)

// CampaignState 项目派生状态
type CampaignState struct {
	Status     model.CampaignStatus `json:"status"`
	Percentage float64              `json:"percentage"` // [0,100]
	DaysLeft   int64                `json:"daysLeft"`   // >= 0
}

// ClassifyCampaign 计算项目状态，优先级：待审批 > 已完成 > 已过期 > 进行中
func ClassifyCampaign(c *model.Campaign, now time.Time) CampaignState {
	progress := Progress(c)
	daysLeft := DaysLeft(c.Deadline, now)

	state := CampaignState{
		Percentage: clampPercentage(progress),
		DaysLeft:   daysLeft,
	}
	if state.DaysLeft < 0 {
		state.DaysLeft = 0
	}

	switch {
	case !c.IsApproved:
		state.Status = model.CampaignStatusPending
	case progress.GreaterThanOrEqual(hundred):
		state.Status = model.CampaignStatusCompleted
	case daysLeft <= 0:
		state.Status = model.CampaignStatusExpired
	default:
		state.Status = model.CampaignStatusActive
	}
	return state
}

// Progress 筹款进度百分比，未截断；目标为 0 时有筹款即视为 100
func Progress(c *model.Campaign) decimal.Decimal {
	if !c.Goal.IsPositive() {
		if c.TotalRaised.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return c.TotalRaised.Div(c.Goal).Mul(hundred)
}

// DaysLeft ceil((deadline - now) / 1 天)，可能为负
func DaysLeft(deadline, now time.Time) int64 {
	diff := deadline.Sub(now).Milliseconds()
	if diff > 0 {
		return (diff + dayMillis - 1) / dayMillis
	}
	return -((-diff) / dayMillis)
}

func clampPercentage(progress decimal.Decimal) float64 {
	switch {
	case progress.IsNegative():
		return 0
	case progress.GreaterThan(hundred):
		return 100
	}
	return progress.Round(2).InexactFloat64()
}

// IsDiscoverable 公开列表只展示已审批且有效的项目
func IsDiscoverable(c *model.Campaign) bool {
	return c.IsApproved && c.IsActive
}

// CanContribute 只有进行中的项目接受出资
func CanContribute(c *model.Campaign, now time.Time) bool {
	return c.IsActive && ClassifyCampaign(c, now).Status == model.CampaignStatusActive
}
