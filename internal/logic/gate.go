package logic

import (
	"fmt"

	"github.com/blues/fundchain/internal/model"
)

// GateAction 需要预检的写操作
type GateAction string

const (
	ActionCreateCampaign GateAction = "create_campaign"
	ActionContribute     GateAction = "contribute"
)

// ParseGateAction 校验操作名
func ParseGateAction(s string) (GateAction, error) {
	switch GateAction(s) {
	case ActionCreateCampaign, ActionContribute:
		return GateAction(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// GateInput 注册/KYC 预检输入
type GateInput struct {
	Wallet          string
	IsRegistered    bool
	KYCLevel        model.KYCLevel
	IsBanned        bool
	Action          GateAction
	CampaignCreator string // contribute 时的项目创建者
}

// Decision 预检结果
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CheckGate 乐观预检，只为节省 gas，合约仍会再次校验
func CheckGate(in GateInput) Decision {
	if !in.IsRegistered {
		return deny("You must register before you can continue")
	}
	if in.IsBanned {
		return deny("Your account has been banned")
	}

	switch in.Action {
	case ActionCreateCampaign:
		if in.KYCLevel < model.KYCBasic {
			return deny(fmt.Sprintf("KYC level %s is not enough to create campaigns, %s or higher is required", in.KYCLevel, model.KYCBasic))
		}
	case ActionContribute:
		if SameAddress(in.Wallet, in.CampaignCreator) {
			return deny("You cannot contribute to your own campaign")
		}
	}
	return allow()
}
