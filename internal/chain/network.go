package chain

import (
	"context"
	"fmt"
	"math/big"
)

// ChainIDReader 能返回链ID的客户端
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

var networkNames = map[int64]string{
	1:        "Ethereum Mainnet",
	11155111: "Sepolia",
	17000:    "Holesky",
	31337:    "Anvil",
}

// NetworkName 链ID对应的网络名称
func NetworkName(chainId int64) string {
	if name, ok := networkNames[chainId]; ok {
		return name
	}
	return fmt.Sprintf("chain %d", chainId)
}

// CheckChainID 确认节点所在链与配置一致
func CheckChainID(ctx context.Context, client ChainIDReader, expected int64) error {
	id, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Int64() != expected {
		return fmt.Errorf("%w: connected to %s, switch to %s (%d)",
			ErrWrongNetwork, NetworkName(id.Int64()), NetworkName(expected), expected)
	}
	return nil
}
