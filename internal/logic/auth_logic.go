package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/model"
	"github.com/blues/fundchain/internal/session"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthorized 签名、nonce 或令牌无效
var ErrUnauthorized = errors.New("unauthorized")

// NonceIssuer 一次性登录 nonce
type NonceIssuer interface {
	IssueNonce(ctx context.Context, wallet string) (string, string, error)
	ConsumeNonce(ctx context.Context, wallet, nonce string) error
}

// NonceResult 待签名的登录消息
type NonceResult struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// AuthResult 登录结果
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Session   *model.Session `json:"session"`
}

// Tokens HS256 令牌签发与校验，subject 为钱包地址
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens 创建令牌签发器
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 为钱包签发令牌
func (t *Tokens) Issue(wallet common.Address) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   wallet.Hex(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse 校验令牌并返回钱包地址
func (t *Tokens) Parse(token string) (common.Address, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !common.IsHexAddress(claims.Subject) {
		return common.Address{}, fmt.Errorf("%w: token subject is not a wallet", ErrUnauthorized)
	}
	return common.HexToAddress(claims.Subject), nil
}

// AuthLogic 钱包签名登录
type AuthLogic struct {
	chain    ChainGateway
	nonces   NonceIssuer
	sessions SessionStore
	tokens   *Tokens
}

// NewAuthLogic 创建登录逻辑
func NewAuthLogic(chain ChainGateway, nonces NonceIssuer, sessions SessionStore, tokens *Tokens) *AuthLogic {
	return &AuthLogic{chain: chain, nonces: nonces, sessions: sessions, tokens: tokens}
}

// Nonce 签发登录 nonce
func (a *AuthLogic) Nonce(ctx context.Context, wallet common.Address) (*NonceResult, error) {
	nonce, message, err := a.nonces.IssueNonce(ctx, wallet.Hex())
	if err != nil {
		return nil, err
	}
	return &NonceResult{Nonce: nonce, Message: message}, nil
}

// Verify 校验 personal_sign 签名，要求钱包已注册且未被封禁
func (a *AuthLogic) Verify(ctx context.Context, wallet common.Address, nonce, signature string) (*AuthResult, error) {
	if err := a.nonces.ConsumeNonce(ctx, wallet.Hex(), nonce); err != nil {
		if errors.Is(err, session.ErrInvalidNonce) {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return nil, err
	}

	signer, err := RecoverSigner(session.SignInMessage(wallet.Hex(), nonce), signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if signer != wallet {
		return nil, fmt.Errorf("%w: signature does not match wallet", ErrUnauthorized)
	}

	registered, err := a.chain.IsRegistered(ctx, wallet)
	if err != nil {
		return nil, contract.Classify(contract.OpRead, err)
	}
	if !registered {
		return nil, contract.Denied(contract.OpRead, "You must register before you can continue")
	}
	profile, err := a.chain.GetUserProfile(ctx, wallet)
	if err != nil {
		return nil, contract.Classify(contract.OpRead, err)
	}
	if profile.IsBanned {
		if err := a.sessions.Delete(ctx, wallet.Hex()); err != nil {
			logger.Warn("Failed to drop session of banned wallet %s: %v", wallet.Hex(), err)
		}
		return nil, contract.Denied(contract.OpRead, "Your account has been banned")
	}

	s, err := a.sessions.Create(ctx, profile)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := a.tokens.Issue(wallet)
	if err != nil {
		return nil, err
	}
	logger.Info("Wallet %s signed in", wallet.Hex())
	return &AuthResult{Token: token, ExpiresAt: expiresAt, Session: s}, nil
}

// Session 读取本地会话并与链上资料校正
func (a *AuthLogic) Session(ctx context.Context, wallet common.Address) (*model.Session, error) {
	s, err := a.sessions.Load(ctx, wallet.Hex())
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}

	var profile *model.UserProfile
	registered, err := a.chain.IsRegistered(ctx, wallet)
	if err != nil {
		logger.Warn("Failed to confirm registration of %s, using cached session: %v", wallet.Hex(), err)
		return s, nil
	}
	if registered {
		profile, err = a.chain.GetUserProfile(ctx, wallet)
		if err != nil {
			logger.Warn("Failed to read profile of %s, using cached session: %v", wallet.Hex(), err)
			return s, nil
		}
	}
	return a.sessions.Reconcile(ctx, wallet.Hex(), profile)
}

// Logout 删除本地会话
func (a *AuthLogic) Logout(ctx context.Context, wallet common.Address) error {
	return a.sessions.Delete(ctx, wallet.Hex())
}

// ParseToken 校验令牌
func (a *AuthLogic) ParseToken(token string) (common.Address, error) {
	return a.tokens.Parse(token)
}

// RecoverSigner 从 personal_sign 签名恢复地址，v 可以是 0/1 或 27/28
func RecoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(strings.TrimSpace(signature))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
