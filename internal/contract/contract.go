package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Contract 统一合约包装器
type Contract struct {
	contract *bind.BoundContract
	address  common.Address
	abi      abi.ABI
	name     string
}

// NewContract 创建合约绑定，只读场景 transactor 可以为 nil
func NewContract(name string, address common.Address, parsedABI abi.ABI, caller bind.ContractCaller, transactor bind.ContractTransactor) *Contract {
	return &Contract{
		contract: bind.NewBoundContract(address, parsedABI, caller, transactor, nil),
		address:  address,
		abi:      parsedABI,
		name:     name,
	}
}

// GetAddress 获取合约地址
func (c *Contract) GetAddress() common.Address {
	return c.address
}

// GetABI 获取合约ABI
func (c *Contract) GetABI() abi.ABI {
	return c.abi
}

// GetName 获取合约名称
func (c *Contract) GetName() string {
	return c.name
}

// call 调用只读方法
func (c *Contract) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", c.name, method, err)
	}
	return out, nil
}

// callOne 调用只返回一个值的只读方法
func callOne[T any](ctx context.Context, c *Contract, method string, params ...interface{}) (T, error) {
	var zero T
	out, err := c.call(ctx, method, params...)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, fmt.Errorf("%s.%s: empty result", c.name, method)
	}
	return *abi.ConvertType(out[0], new(T)).(*T), nil
}
