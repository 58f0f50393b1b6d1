package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/blues/fundchain/internal/chain"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCaller 按方法名返回打包好的输出
type fakeCaller struct {
	abi     abi.ABI
	outputs map[string][]interface{}
	errs    map[string]error
	calls   []string
}

func newFakeCaller(def string) *fakeCaller {
	return &fakeCaller{
		abi:     chain.MustParseABI(def),
		outputs: map[string][]interface{}{},
		errs:    map[string]error{},
	}
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, method.Name)
	if err := f.errs[method.Name]; err != nil {
		return nil, err
	}
	values, ok := f.outputs[method.Name]
	if !ok {
		return nil, fmt.Errorf("no output configured for %s", method.Name)
	}
	return method.Outputs.Pack(values...)
}

func eth(s string) *big.Int {
	return ToWei(decimal.RequireFromString(s))
}

func TestCampaignDetailsDecode(t *testing.T) {
	caller := newFakeCaller(chain.CampaignABI)
	creator := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	deadline := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	caller.outputs["getCampaignDetails"] = []interface{}{
		creator, "Solar Farm", "Energy", "Panels for the village",
		eth("10"), big.NewInt(deadline.Unix()), eth("2.5"), big.NewInt(3),
		true, true, eth("2.5"),
	}

	address := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	c := NewCampaignContract(address, caller.abi, caller, nil)

	campaign, err := c.GetCampaignDetails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, address, campaign.Address)
	assert.Equal(t, creator, campaign.Creator)
	assert.Equal(t, "Solar Farm", campaign.Title)
	assert.Equal(t, "Energy", campaign.Category)
	assert.Equal(t, "Panels for the village", campaign.Description)
	assert.True(t, decimal.RequireFromString("10").Equal(campaign.Goal))
	assert.True(t, decimal.RequireFromString("2.5").Equal(campaign.TotalRaised))
	assert.Equal(t, deadline, campaign.Deadline)
	assert.Equal(t, uint64(3), campaign.Backers)
	assert.True(t, campaign.IsApproved)
	assert.True(t, campaign.IsActive)
}

func TestCampaignContributionOf(t *testing.T) {
	caller := newFakeCaller(chain.CampaignABI)
	caller.outputs["contributionsByAddress"] = []interface{}{eth("0.75")}
	c := NewCampaignContract(common.HexToAddress("0xa1"), caller.abi, caller, nil)

	amount, err := c.ContributionOf(context.Background(), common.HexToAddress("0xb1"))
	require.NoError(t, err)
	assert.Equal(t, eth("0.75"), amount)
}

func TestFactoryReads(t *testing.T) {
	caller := newFakeCaller(chain.CampaignFactoryABI)
	addrs := []common.Address{common.HexToAddress("0xa1"), common.HexToAddress("0xa2")}
	admin := common.HexToAddress("0x1b4709064B3050d11Ba2540AbA8B3B4412159697")
	caller.outputs["getDeployedCampaigns"] = []interface{}{addrs}
	caller.outputs["admin"] = []interface{}{admin}
	caller.outputs["isAdmin"] = []interface{}{true}

	f := NewFactoryContract(common.HexToAddress("0xf1"), caller.abi, caller, nil)
	ctx := context.Background()

	got, err := f.GetDeployedCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, addrs, got)

	gotAdmin, err := f.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, admin, gotAdmin)

	isAdmin, err := f.IsAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestRegistryProfileDecode(t *testing.T) {
	caller := newFakeCaller(chain.UserRegistryABI)
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	emailHash := crypto.Keccak256Hash([]byte("alice@example.com"))
	caller.outputs["getUserProfile"] = []interface{}{registryProfile{
		WalletAddress:    wallet,
		Username:         "alice",
		EmailHash:        emailHash,
		ProfileImageHash: "ipfs://avatar",
		KycLevel:         2,
		PrimaryRole:      1,
		RegistrationDate: big.NewInt(1_700_000_000),
		LastLoginDate:    big.NewInt(0),
		IsActive:         true,
		IsBanned:         false,
		ReputationScore:  big.NewInt(1200),
	}}
	caller.outputs["getStats"] = []interface{}{big.NewInt(10), big.NewInt(2), big.NewInt(8)}

	r := NewRegistryContract(common.HexToAddress("0xe1"), caller.abi, caller, nil)
	ctx := context.Background()

	profile, err := r.GetUserProfile(ctx, wallet)
	require.NoError(t, err)
	assert.Equal(t, wallet, profile.WalletAddress)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, emailHash, profile.EmailHash)
	assert.Equal(t, model.KYCIntermediate, profile.KYCLevel)
	assert.Equal(t, model.RoleCreator, profile.PrimaryRole)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), profile.RegistrationDate)
	assert.True(t, profile.LastLoginDate.IsZero())
	assert.Equal(t, uint16(model.MaxReputationScore), profile.ReputationScore)

	stats, err := r.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.UserStats{TotalUsers: 10, BannedUsers: 2, ActiveUsers: 8}, stats)
}

func TestRegistryProfileRejectsUnknownKYC(t *testing.T) {
	caller := newFakeCaller(chain.UserRegistryABI)
	caller.outputs["getUserProfile"] = []interface{}{registryProfile{
		KycLevel:         7,
		RegistrationDate: big.NewInt(0),
		LastLoginDate:    big.NewInt(0),
		ReputationScore:  big.NewInt(0),
	}}
	r := NewRegistryContract(common.HexToAddress("0xe1"), caller.abi, caller, nil)

	_, err := r.GetUserProfile(context.Background(), common.HexToAddress("0xaa"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kyc level 7")
}

func TestReadErrorIsWrapped(t *testing.T) {
	caller := newFakeCaller(chain.UserRegistryABI)
	caller.errs["isRegistered"] = errors.New("dial tcp 127.0.0.1:8545: connection refused")
	r := NewRegistryContract(common.HexToAddress("0xe1"), caller.abi, caller, nil)

	_, err := r.IsRegistered(context.Background(), common.HexToAddress("0xaa"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_registry.isRegistered")
}

// fakeBackend 只实现模拟执行与余额查询，其余方法不应被调用
type fakeBackend struct {
	Backend
	simulateErr error
	balance     *big.Int
	simulated   []ethereum.CallMsg
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.simulated = append(f.simulated, call)
	return nil, f.simulateErr
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func testSigner(t *testing.T) SignerFunc {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return func(ctx context.Context) (*bind.TransactOpts, error) {
		opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(11155111))
		if err != nil {
			return nil, err
		}
		opts.Context = ctx
		return opts, nil
	}
}

func TestSendStopsOnSimulatedRevert(t *testing.T) {
	backend := &fakeBackend{simulateErr: errors.New("execution reverted: Already registered")}
	tx := NewTransactor(backend, testSigner(t), time.Minute)
	registry := NewRegistryContract(common.HexToAddress("0xe1"), chain.MustParseABI(chain.UserRegistryABI), backend, backend)

	_, err := registry.RegisterUser(context.Background(), tx, "alice", common.Hash{}, "", model.RoleBacker)
	require.Error(t, err)

	var classified *Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, KindRejected, classified.Kind)
	assert.Equal(t, "This wallet is already registered", classified.Reason)
	require.Len(t, backend.simulated, 1)
	assert.Equal(t, registry.GetAddress(), *backend.simulated[0].To)
}

func TestSendSimulatesWithValue(t *testing.T) {
	backend := &fakeBackend{simulateErr: errors.New("execution reverted: Campaign is not active")}
	tx := NewTransactor(backend, testSigner(t), time.Minute)
	campaign := NewCampaignContract(common.HexToAddress("0xa1"), chain.MustParseABI(chain.CampaignABI), backend, backend)

	_, err := campaign.Contribute(context.Background(), tx, eth("1.5"))
	require.Error(t, err)
	assert.Equal(t, "This campaign is not accepting contributions", err.Error())
	assert.Equal(t, eth("1.5"), backend.simulated[0].Value)
}

func TestSendWithoutOperator(t *testing.T) {
	backend := &fakeBackend{}
	noKey := func(context.Context) (*bind.TransactOpts, error) { return nil, chain.ErrNoOperator }
	tx := NewTransactor(backend, noKey, time.Minute)
	campaign := NewCampaignContract(common.HexToAddress("0xa1"), chain.MustParseABI(chain.CampaignABI), backend, backend)

	_, err := campaign.ApproveCampaign(context.Background(), tx)
	require.Error(t, err)
	assert.Equal(t, KindWallet, KindOf(err))
	assert.Empty(t, backend.simulated)
}

func TestBalance(t *testing.T) {
	backend := &fakeBackend{balance: eth("3")}
	tx := NewTransactor(backend, testSigner(t), time.Minute)

	balance, err := tx.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, eth("3"), balance)
}
