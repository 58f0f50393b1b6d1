package contract

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// EtherDecimals 1 ETH = 10^18 wei
const EtherDecimals = 18

// FromWei wei -> ETH
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}

// ToWei ETH -> wei，超出精度的部分截断
func ToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(EtherDecimals).Truncate(0).BigInt()
}

// ParseEther 解析 ETH 金额字符串，必须为正数
func ParseEther(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validation("Invalid amount: " + s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, Validation("Amount must be greater than zero")
	}
	if amount.Exponent() < -EtherDecimals {
		return decimal.Zero, Validation("Amount has more than 18 decimal places")
	}
	return amount, nil
}
