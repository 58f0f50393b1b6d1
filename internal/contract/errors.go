package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/fundchain/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// Kind 错误分类
type Kind string

const (
	KindWallet     Kind = "wallet"     // 钱包/网络错误，附带处理建议
	KindRejected   Kind = "rejected"   // 合约拒绝（revert）
	KindValidation Kind = "validation" // 本地校验失败，未上链
	KindDenied     Kind = "denied"     // 本地预检拒绝，未上链
)

// 操作名称，用于错误信息
const (
	OpCreateCampaign = "create campaign"
	OpContribute     = "contribute"
	OpApprove        = "approve campaign"
	OpRegister       = "register user"
	OpSetKYC         = "set KYC levels"
	OpBan            = "ban users"
	OpUnban          = "unban users"
	OpRead           = "read contract"
)

// Error 面向用户的分类错误
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Hint   string
	Err    error
}

func (e *Error) Error() string {
	return e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 本地校验错误
func Validation(reason string) *Error {
	return &Error{Kind: KindValidation, Reason: reason}
}

// Denied 本地预检拒绝
func Denied(op, reason string) *Error {
	return &Error{Kind: KindDenied, Op: op, Reason: reason}
}

// KindOf 返回错误分类，非 *Error 返回空
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

type revertRule struct {
	substr string
	kind   Kind
	reason func(op string) string
	hint   string
}

func fixed(reason string) func(string) string {
	return func(string) string { return reason }
}

// 按顺序匹配 revert / 节点错误信息
var revertRules = []revertRule{
	{substr: "user rejected", kind: KindWallet, reason: fixed("Transaction was rejected by user"), hint: "Resubmit and approve the transaction"},
	{substr: "insufficient funds", kind: KindWallet, reason: fixed("Insufficient funds for transaction"), hint: "Fund the operator wallet with Sepolia ETH"},
	{substr: "already approved", kind: KindRejected, reason: fixed("This campaign is already approved")},
	{substr: "Only admin can approve", kind: KindRejected, reason: fixed("Only admin can approve campaigns. Make sure the contract was deployed with this address as admin.")},
	{substr: "Admin cannot", kind: KindRejected, reason: fixed("Admin cannot create or fund campaigns")},
	{substr: "Already registered", kind: KindRejected, reason: fixed("This wallet is already registered")},
	{substr: "Username already taken", kind: KindRejected, reason: fixed("Username is already taken. Please choose another one.")},
	{substr: "Username must be 3-20 characters", kind: KindRejected, reason: fixed("Username must be between 3 and 20 characters")},
	{substr: "Username can only contain", kind: KindRejected, reason: fixed("Username can only contain lowercase letters, numbers, and underscores")},
	{substr: "User not registered", kind: KindRejected, reason: fixed("User is not registered")},
	{substr: "Ownable: caller is not the owner", kind: KindRejected, reason: func(op string) string { return "Only contract owner can " + op }},
	{substr: "OwnableUnauthorizedAccount", kind: KindRejected, reason: func(op string) string { return "Only contract owner can " + op }},
	{substr: "banned", kind: KindRejected, reason: fixed("This account is banned")},
	{substr: "KYC", kind: KindRejected, reason: fixed("Insufficient KYC level for this action")},
	{substr: "own campaign", kind: KindRejected, reason: fixed("You cannot contribute to your own campaign")},
	{substr: "Creator cannot", kind: KindRejected, reason: fixed("You cannot contribute to your own campaign")},
	{substr: "not active", kind: KindRejected, reason: fixed("This campaign is not accepting contributions")},
	{substr: "not approved", kind: KindRejected, reason: fixed("This campaign has not been approved yet")},
	{substr: "deadline", kind: KindRejected, reason: fixed("This campaign has ended")},
	{substr: "connection refused", kind: KindWallet, reason: fixed("Cannot reach the Ethereum node"), hint: "Check chain.rpc_url"},
	{substr: "no such host", kind: KindWallet, reason: fixed("Cannot reach the Ethereum node"), hint: "Check chain.rpc_url"},
}

// Classify 在调用点把任意错误转换为分类错误，不做重试
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return err
	}

	switch {
	case errors.Is(err, chain.ErrNoOperator):
		return &Error{Kind: KindWallet, Op: op, Reason: "No operator wallet configured", Hint: "Set chain.private_key to enable write operations", Err: err}
	case errors.Is(err, chain.ErrWrongNetwork):
		return &Error{Kind: KindWallet, Op: op, Reason: err.Error(), Hint: "Switch the RPC endpoint to the configured network", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindWallet, Op: op, Reason: "Timed out waiting for confirmation", Hint: "The transaction may still be mined, check the explorer before resubmitting", Err: err}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, rule := range revertRules {
		if strings.Contains(lower, strings.ToLower(rule.substr)) {
			return &Error{Kind: rule.kind, Op: op, Reason: rule.reason(op), Hint: rule.hint, Err: err}
		}
	}

	return &Error{Kind: KindRejected, Op: op, Reason: fmt.Sprintf("Failed to %s: transaction failed: %s", op, revertText(msg)), Err: err}
}

// IsNotFound 地址上没有合约，或读取被 revert / 返回空结果
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, bind.ErrNoCode) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") ||
		strings.Contains(msg, "empty result") ||
		strings.Contains(msg, "unmarshal an empty string")
}

// revertText 去掉节点返回的 "execution reverted:" 前缀
func revertText(msg string) string {
	if i := strings.Index(msg, "execution reverted"); i >= 0 {
		rest := strings.TrimSpace(msg[i+len("execution reverted"):])
		rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		if rest != "" {
			return rest
		}
		return "execution reverted"
	}
	return msg
}
