package handler

import (
	"context"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/logic"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
)

// CampaignService 由 logic.CampaignLogic 实现
type CampaignService interface {
	Discover(ctx context.Context, q logic.DiscoveryQuery) ([]logic.CampaignView, error)
	GetCampaign(ctx context.Context, address common.Address) (*logic.CampaignView, error)
	Refresh(ctx context.Context) error
	CreateCampaign(ctx context.Context, req logic.CreateCampaignRequest) (*logic.TxResult, error)
	Contribute(ctx context.Context, address common.Address, amount string) (*logic.TxResult, error)
	ApproveCampaign(ctx context.Context, address common.Address) (*logic.TxResult, error)
	Capabilities(ctx context.Context, wallet common.Address) (*logic.Capabilities, error)
}

// UserService 由 logic.UserLogic 实现
type UserService interface {
	GetUser(ctx context.Context, wallet common.Address) (*logic.UserView, error)
	ListUsers(ctx context.Context, offset, limit int) (*logic.UserPage, error)
	GetStats(ctx context.Context) (*model.UserStats, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
	Register(ctx context.Context, req logic.RegisterRequest) (*logic.RegisterResult, error)
	SetKYCLevel(ctx context.Context, user common.Address, level model.KYCLevel) (*contract.Receipt, error)
	BanUser(ctx context.Context, user common.Address, reason string) (*contract.Receipt, error)
	UnbanUser(ctx context.Context, user common.Address) (*contract.Receipt, error)
	CheckGate(ctx context.Context, wallet common.Address, action logic.GateAction, creator string) (logic.Decision, error)
}

// AuthService 由 logic.AuthLogic 实现
type AuthService interface {
	TokenParser
	Nonce(ctx context.Context, wallet common.Address) (*logic.NonceResult, error)
	Verify(ctx context.Context, wallet common.Address, nonce, signature string) (*logic.AuthResult, error)
	Session(ctx context.Context, wallet common.Address) (*model.Session, error)
	Logout(ctx context.Context, wallet common.Address) error
}

// EventService 由 logic.EventLogic 实现
type EventService interface {
	GetEvents(ctx context.Context, eventType, subject string, page, pageSize int) (*logic.EventPage, error)
	GetEventsByTxHash(ctx context.Context, txHash string) ([]model.EventModel, error)
	GetLastProcessedBlock(ctx context.Context) (int64, error)
}

// StatsService 由 logic.StatsLogic 实现
type StatsService interface {
	GetStats(ctx context.Context) (*logic.Stats, error)
}
