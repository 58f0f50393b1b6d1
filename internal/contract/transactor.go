package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// 各写操作的 gas 上限
const (
	GasCreateCampaign uint64 = 1_000_000
	GasContribute     uint64 = 1_000_000
	GasApprove        uint64 = 1_000_000
	GasRegisterUser   uint64 = 500_000
	GasAdminAction    uint64 = 300_000
)

// Backend 写操作需要的链接口，ethclient.Client 实现了它
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// SignerFunc 返回运营钱包的签名参数
type SignerFunc func(ctx context.Context) (*bind.TransactOpts, error)

// Receipt 交易确认结果
type Receipt struct {
	TxHash      common.Hash `json:"txHash"`
	BlockNumber uint64      `json:"blockNumber"`
	GasUsed     uint64      `json:"gasUsed"`
}

// Transactor 模拟执行 -> 发送 -> 等待 1 个确认，不重试
type Transactor struct {
	backend        Backend
	signer         SignerFunc
	confirmTimeout time.Duration
}

// NewTransactor 创建交易发送器
func NewTransactor(backend Backend, signer SignerFunc, confirmTimeout time.Duration) *Transactor {
	return &Transactor{
		backend:        backend,
		signer:         signer,
		confirmTimeout: confirmTimeout,
	}
}

// Backend 返回底层链接口
func (t *Transactor) Backend() Backend {
	return t.backend
}

// Operator 运营钱包地址，未配置私钥时返回 chain.ErrNoOperator
func (t *Transactor) Operator(ctx context.Context) (common.Address, error) {
	opts, err := t.signer(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return opts.From, nil
}

// Balance 查询运营钱包余额
func (t *Transactor) Balance(ctx context.Context) (*big.Int, error) {
	operator, err := t.Operator(ctx)
	if err != nil {
		return nil, err
	}
	return t.backend.BalanceAt(ctx, operator, nil)
}

// Send 发送交易并等待确认，返回的错误都已分类
func (t *Transactor) Send(ctx context.Context, op string, c *Contract, gasLimit uint64, value *big.Int, method string, params ...interface{}) (*Receipt, error) {
	opts, err := t.signer(ctx)
	if err != nil {
		return nil, Classify(op, err)
	}

	input, err := c.abi.Pack(method, params...)
	if err != nil {
		return nil, Classify(op, fmt.Errorf("failed to pack %s: %w", method, err))
	}

	// 先模拟执行，拿到 revert 原因
	to := c.address
	msg := ethereum.CallMsg{From: opts.From, To: &to, Value: value, Data: input}
	if _, err := t.backend.CallContract(ctx, msg, nil); err != nil {
		logger.Warn("Simulation of %s.%s failed: %v", c.name, method, err)
		return nil, Classify(op, err)
	}

	opts.GasLimit = gasLimit
	opts.Value = value
	tx, err := c.contract.Transact(opts, method, params...)
	if err != nil {
		return nil, Classify(op, err)
	}
	logger.Info("Transaction sent: %s.%s tx=%s", c.name, method, tx.Hash().Hex())

	waitCtx := ctx
	if t.confirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.confirmTimeout)
		defer cancel()
	}
	receipt, err := bind.WaitMined(waitCtx, t.backend, tx)
	if err != nil {
		return nil, Classify(op, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, Classify(op, fmt.Errorf("execution reverted: tx %s failed in block %d", tx.Hash().Hex(), receipt.BlockNumber.Uint64()))
	}

	logger.Info("Transaction confirmed: %s.%s tx=%s block=%d", c.name, method, tx.Hash().Hex(), receipt.BlockNumber.Uint64())
	return &Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
