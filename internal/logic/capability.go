package logic

import (
	"strings"

	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// CapabilityInput 角色判断所需的全部输入
type CapabilityInput struct {
	Wallet        string           // 当前钱包
	AdminConstant string           // 配置的管理员地址，唯一的管理员来源
	FactoryAdmin  string           // 链上工厂合约的 admin，仅用于不一致提示
	RegistryOwner string           // 链上注册合约的 owner
	Campaigns     []model.Campaign // 当前项目列表
	BackedCount   int              // 该钱包出资过的项目数
}

// Capabilities 钱包在界面上的能力，仅作提示，链上合约是最终权威
type Capabilities struct {
	Wallet        string `json:"wallet"`
	IsAdmin       bool   `json:"isAdmin"`
	IsOwner       bool   `json:"isOwner"`
	IsCreator     bool   `json:"isCreator"`
	IsBacker      bool   `json:"isBacker"`
	CreatedCount  int    `json:"createdCount"`
	BackedCount   int    `json:"backedCount"`
	AdminMismatch bool   `json:"adminMismatch"`
	FactoryAdmin  string `json:"factoryAdmin,omitempty"`
}

// SameAddress 大小写不敏感的地址比较，空地址永远不相等
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsAdvisoryAdmin 管理员判断只看配置常量，不看链上地址
func IsAdvisoryAdmin(wallet, adminConstant string) bool {
	return SameAddress(wallet, adminConstant)
}

// ClassifyCapabilities 纯函数，相同输入总是得到相同结果
func ClassifyCapabilities(in CapabilityInput) Capabilities {
	created := 0
	if common.IsHexAddress(in.Wallet) {
		wallet := common.HexToAddress(in.Wallet)
		for i := range in.Campaigns {
			if in.Campaigns[i].IsCreatedBy(wallet) {
				created++
			}
		}
	}

	caps := Capabilities{
		Wallet:       in.Wallet,
		IsAdmin:      IsAdvisoryAdmin(in.Wallet, in.AdminConstant),
		IsOwner:      SameAddress(in.Wallet, in.RegistryOwner),
		IsCreator:    created > 0,
		IsBacker:     in.BackedCount > 0,
		CreatedCount: created,
		BackedCount:  in.BackedCount,
		FactoryAdmin: in.FactoryAdmin,
	}
	if in.FactoryAdmin != "" && !SameAddress(in.FactoryAdmin, in.AdminConstant) {
		caps.AdminMismatch = true
	}
	return caps
}
