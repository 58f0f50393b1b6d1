package logic

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	operatorAddr = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	creatorAddr  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	campaignAddr = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	ownerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

type sentTx struct {
	op   string
	args []interface{}
}

// fakeGateway 可配置的链上读写
type fakeGateway struct {
	mu sync.Mutex

	operator      common.Address
	operatorErr   error
	balance       *big.Int
	registered    map[common.Address]bool
	profiles      map[common.Address]*model.UserProfile
	campaigns     map[common.Address]*model.Campaign
	contributions map[common.Address]*big.Int
	takenNames    map[string]bool
	factoryAdmin  common.Address
	owner         common.Address
	sendErr       error
	detailsErr    error
	kycRevoked    bool
	kycErr        error

	sent []sentTx
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		operator:      operatorAddr,
		balance:       contract.ToWei(decimal.NewFromInt(10)),
		registered:    map[common.Address]bool{},
		profiles:      map[common.Address]*model.UserProfile{},
		campaigns:     map[common.Address]*model.Campaign{},
		contributions: map[common.Address]*big.Int{},
		takenNames:    map[string]bool{},
		owner:         ownerAddr,
	}
}

func (f *fakeGateway) register(addr common.Address, level model.KYCLevel) {
	f.registered[addr] = true
	f.profiles[addr] = &model.UserProfile{WalletAddress: addr, Username: "user", KYCLevel: level, IsActive: true}
}

func (f *fakeGateway) record(op string, args ...interface{}) (*contract.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, contract.Classify(op, f.sendErr)
	}
	f.sent = append(f.sent, sentTx{op: op, args: args})
	return &contract.Receipt{TxHash: common.HexToHash("0x01"), BlockNumber: 10}, nil
}

func (f *fakeGateway) GetCampaignDetails(_ context.Context, address common.Address) (*model.Campaign, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	c, ok := f.campaigns[address]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeGateway) ContributionOf(_ context.Context, campaign, _ common.Address) (*big.Int, error) {
	if v, ok := f.contributions[campaign]; ok {
		return v, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeGateway) IsRegistered(_ context.Context, user common.Address) (bool, error) {
	return f.registered[user], nil
}

func (f *fakeGateway) GetUserProfile(_ context.Context, user common.Address) (*model.UserProfile, error) {
	p, ok := f.profiles[user]
	if !ok {
		return nil, errors.New("execution reverted: User not registered")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeGateway) MeetsKYCRequirement(_ context.Context, user common.Address, level model.KYCLevel) (bool, error) {
	if f.kycErr != nil {
		return false, f.kycErr
	}
	p, ok := f.profiles[user]
	return ok && !f.kycRevoked && p.KYCLevel >= level, nil
}

func (f *fakeGateway) IsUsernameAvailable(_ context.Context, username string) (bool, error) {
	return !f.takenNames[username], nil
}

func (f *fakeGateway) GetUserStats(context.Context) (*model.UserStats, error) {
	return &model.UserStats{TotalUsers: uint64(len(f.registered))}, nil
}

func (f *fakeGateway) RegistryOwner(context.Context) (common.Address, error) {
	return f.owner, nil
}

func (f *fakeGateway) FactoryAdmin(context.Context) (common.Address, error) {
	return f.factoryAdmin, nil
}

func (f *fakeGateway) Operator(context.Context) (common.Address, error) {
	return f.operator, f.operatorErr
}

func (f *fakeGateway) OperatorBalance(context.Context) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeGateway) CreateCampaign(_ context.Context, title string, goalWei *big.Int, deadlineDays uint64, category, description string) (*contract.Receipt, error) {
	return f.record(contract.OpCreateCampaign, title, goalWei, deadlineDays, category, description)
}

func (f *fakeGateway) Contribute(_ context.Context, campaign common.Address, valueWei *big.Int) (*contract.Receipt, error) {
	return f.record(contract.OpContribute, campaign, valueWei)
}

func (f *fakeGateway) ApproveCampaign(_ context.Context, campaign common.Address) (*contract.Receipt, error) {
	return f.record(contract.OpApprove, campaign)
}

func (f *fakeGateway) RegisterUser(_ context.Context, username string, emailHash common.Hash, imageRef string, role model.UserRole) (*contract.Receipt, error) {
	r, err := f.record(contract.OpRegister, username, emailHash, imageRef, role)
	if err == nil {
		f.registered[f.operator] = true
		f.profiles[f.operator] = &model.UserProfile{WalletAddress: f.operator, Username: username, PrimaryRole: role, IsActive: true}
	}
	return r, err
}

func (f *fakeGateway) SetKYCLevel(_ context.Context, user common.Address, level model.KYCLevel) (*contract.Receipt, error) {
	return f.record(contract.OpSetKYC, user, level)
}

func (f *fakeGateway) BanUser(_ context.Context, user common.Address, reason string) (*contract.Receipt, error) {
	return f.record(contract.OpBan, user, reason)
}

func (f *fakeGateway) UnbanUser(_ context.Context, user common.Address) (*contract.Receipt, error) {
	return f.record(contract.OpUnban, user)
}

// fakeMirror 直接读 fakeGateway 的项目
type fakeMirror struct {
	gw        *fakeGateway
	refreshes int
	listErr   error
}

func (m *fakeMirror) List(context.Context) ([]model.Campaign, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Campaign, 0, len(m.gw.campaigns))
	for _, c := range m.gw.campaigns {
		out = append(out, *c)
	}
	return out, nil
}

func (m *fakeMirror) Get(_ context.Context, address common.Address) (*model.Campaign, error) {
	c, ok := m.gw.campaigns[address]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *fakeMirror) Refresh(context.Context) error {
	m.refreshes++
	return nil
}

func (m *fakeMirror) Page(_ context.Context, offset, limit int) ([]model.UserProfile, int, error) {
	return []model.UserProfile{}, offset + limit, nil
}

type fakeSessions struct {
	created []*model.UserProfile
	deleted []string
	stored  map[string]*model.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{stored: map[string]*model.Session{}}
}

func (s *fakeSessions) Create(_ context.Context, profile *model.UserProfile) (*model.Session, error) {
	s.created = append(s.created, profile)
	session := model.NewSession(profile, time.Now())
	s.stored[profile.WalletAddress.Hex()] = session
	return session, nil
}

func (s *fakeSessions) Load(_ context.Context, wallet string) (*model.Session, error) {
	return s.stored[wallet], nil
}

func (s *fakeSessions) Reconcile(_ context.Context, wallet string, profile *model.UserProfile) (*model.Session, error) {
	current := s.stored[wallet]
	if current == nil {
		return nil, nil
	}
	if profile == nil || profile.IsBanned {
		delete(s.stored, wallet)
		return nil, nil
	}
	return current, nil
}

func (s *fakeSessions) Delete(_ context.Context, wallet string) error {
	s.deleted = append(s.deleted, wallet)
	delete(s.stored, wallet)
	return nil
}

func openCampaign(creator common.Address) *model.Campaign {
	return &model.Campaign{
		Address:    campaignAddr,
		Creator:    creator,
		Title:      "School library",
		Category:   "Education",
		Goal:       decimal.NewFromInt(5),
		Deadline:   testNow.Add(10 * 24 * time.Hour),
		IsApproved: true,
		IsActive:   true,
	}
}

func newCampaignLogic(gw *fakeGateway) (*CampaignLogic, *fakeMirror) {
	mirror := &fakeMirror{gw: gw}
	l := NewCampaignLogic(gw, mirror, common.HexToAddress(testAdmin))
	l.now = func() time.Time { return testNow }
	return l, mirror
}

func validCreateRequest() CreateCampaignRequest {
	return CreateCampaignRequest{
		Title:        "  School library ",
		Description:  "Books for the village school",
		Category:     "Education",
		Goal:         "0.5",
		DurationDays: 30,
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	gw := newFakeGateway()
	gw.register(operatorAddr, model.KYCBasic)
	l, _ := newCampaignLogic(gw)

	cases := map[string]func(*CreateCampaignRequest){
		"goal below minimum": func(r *CreateCampaignRequest) { r.Goal = "0.009" },
		"goal not a number":  func(r *CreateCampaignRequest) { r.Goal = "lots" },
		"zero duration":      func(r *CreateCampaignRequest) { r.DurationDays = 0 },
		"too long":           func(r *CreateCampaignRequest) { r.DurationDays = 366 },
		"unknown category":   func(r *CreateCampaignRequest) { r.Category = "Gaming" },
		"blank title":        func(r *CreateCampaignRequest) { r.Title = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreateRequest()
			mutate(&req)
			_, err := l.CreateCampaign(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, contract.KindValidation, contract.KindOf(err))
		})
	}
	assert.Empty(t, gw.sent)
}

func TestCreateCampaignBlocksAdmin(t *testing.T) {
	gw := newFakeGateway()
	gw.operator = common.HexToAddress(testAdmin)
	gw.register(gw.operator, model.KYCAdvanced)
	l, _ := newCampaignLogic(gw)

	_, err := l.CreateCampaign(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, contract.KindDenied, contract.KindOf(err))
	assert.Contains(t, err.Error(), "Admin cannot create campaigns")
	assert.Empty(t, gw.sent)
}

func TestCreateCampaignGate(t *testing.T) {
	gw := newFakeGateway()
	l, _ := newCampaignLogic(gw)

	_, err := l.CreateCampaign(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, "You must register before you can continue", err.Error())

	gw.register(operatorAddr, model.KYCNone)
	_, err = l.CreateCampaign(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, contract.KindDenied, contract.KindOf(err))
	assert.Empty(t, gw.sent)
}

func TestCreateCampaignCrossChecksKYCOnChain(t *testing.T) {
	gw := newFakeGateway()
	gw.register(operatorAddr, model.KYCBasic)
	gw.kycRevoked = true
	l, _ := newCampaignLogic(gw)

	_, err := l.CreateCampaign(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, contract.KindDenied, contract.KindOf(err))
	assert.Contains(t, err.Error(), "KYC level is not enough")
	assert.Empty(t, gw.sent)

	gw.kycRevoked = false
	gw.kycErr = errors.New("registry.meetsKYCRequirement: execution reverted")
	_, err = l.CreateCampaign(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Len(t, gw.sent, 1)
}

func TestCreateCampaignSendsAndRefetches(t *testing.T) {
	gw := newFakeGateway()
	gw.register(operatorAddr, model.KYCBasic)
	l, mirror := newCampaignLogic(gw)

	result, err := l.CreateCampaign(context.Background(), validCreateRequest())
	require.NoError(t, err)
	require.NotNil(t, result.Receipt)

	require.Len(t, gw.sent, 1)
	args := gw.sent[0].args
	assert.Equal(t, "School library", args[0])
	assert.Equal(t, "500000000000000000", args[1].(*big.Int).String())
	assert.Equal(t, uint64(30), args[2])
	assert.Equal(t, 1, mirror.refreshes)
}

func TestCreateCampaignRevertIsClassified(t *testing.T) {
	gw := newFakeGateway()
	gw.register(operatorAddr, model.KYCBasic)
	gw.sendErr = errors.New("execution reverted: Admin cannot create campaigns")
	l, mirror := newCampaignLogic(gw)

	_, err := l.CreateCampaign(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, contract.KindRejected, contract.KindOf(err))
	assert.Zero(t, mirror.refreshes)
}

func TestContribute(t *testing.T) {
	ctx := context.Background()

	t.Run("below minimum", func(t *testing.T) {
		gw := newFakeGateway()
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.0009")
		assert.Equal(t, contract.KindValidation, contract.KindOf(err))
	})

	t.Run("admin blocked", func(t *testing.T) {
		gw := newFakeGateway()
		gw.operator = common.HexToAddress(testAdmin)
		gw.campaigns[campaignAddr] = openCampaign(creatorAddr)
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		assert.Equal(t, contract.KindDenied, contract.KindOf(err))
	})

	t.Run("unknown campaign", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCNone)
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})

	t.Run("closed campaign", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCNone)
		c := openCampaign(creatorAddr)
		c.Deadline = testNow.Add(-time.Hour)
		gw.campaigns[campaignAddr] = c
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		require.Error(t, err)
		assert.Equal(t, "This campaign is not accepting contributions", err.Error())
	})

	t.Run("own campaign", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCAdvanced)
		gw.campaigns[campaignAddr] = openCampaign(operatorAddr)
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		require.Error(t, err)
		assert.Equal(t, "You cannot contribute to your own campaign", err.Error())
		assert.Empty(t, gw.sent)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCNone)
		gw.campaigns[campaignAddr] = openCampaign(creatorAddr)
		gw.balance = big.NewInt(1)
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		require.Error(t, err)
		assert.Equal(t, contract.KindValidation, contract.KindOf(err))
		assert.Contains(t, err.Error(), "Insufficient balance")
		assert.Empty(t, gw.sent)
	})

	t.Run("node unreachable", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCNone)
		gw.detailsErr = errors.New("campaign.getCampaignDetails: dial tcp 127.0.0.1:8545: connect: connection refused")
		l, _ := newCampaignLogic(gw)
		_, err := l.Contribute(ctx, campaignAddr, "0.1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCampaignNotFound)
		assert.Equal(t, contract.KindWallet, contract.KindOf(err))
		var ce *contract.Error
		require.ErrorAs(t, err, &ce)
		assert.NotEmpty(t, ce.Hint)
	})

	t.Run("sends value in wei", func(t *testing.T) {
		gw := newFakeGateway()
		gw.register(operatorAddr, model.KYCNone)
		gw.campaigns[campaignAddr] = openCampaign(creatorAddr)
		l, mirror := newCampaignLogic(gw)
		result, err := l.Contribute(ctx, campaignAddr, "0.25")
		require.NoError(t, err)
		require.Len(t, gw.sent, 1)
		assert.Equal(t, "250000000000000000", gw.sent[0].args[1].(*big.Int).String())
		assert.Equal(t, 1, mirror.refreshes)
		require.NotNil(t, result.Campaign)
		assert.Equal(t, model.CampaignStatusActive, result.Campaign.Status)
	})
}

func TestApproveCampaign(t *testing.T) {
	ctx := context.Background()

	gw := newFakeGateway()
	c := openCampaign(creatorAddr)
	c.IsApproved = false
	gw.campaigns[campaignAddr] = c
	l, mirror := newCampaignLogic(gw)

	_, err := l.ApproveCampaign(ctx, campaignAddr)
	require.Error(t, err)
	assert.Equal(t, contract.KindDenied, contract.KindOf(err))

	gw.operator = common.HexToAddress("0x1B4709064b3050D11ba2540aba8b3b4412159697")
	result, err := l.ApproveCampaign(ctx, campaignAddr)
	require.NoError(t, err)
	assert.NotNil(t, result.Receipt)
	assert.Equal(t, 1, mirror.refreshes)

	c.IsApproved = true
	_, err = l.ApproveCampaign(ctx, campaignAddr)
	require.Error(t, err)
	assert.Equal(t, contract.KindRejected, contract.KindOf(err))
	assert.Equal(t, "This campaign is already approved", err.Error())
	assert.Len(t, gw.sent, 1)

	_, err = l.ApproveCampaign(ctx, common.HexToAddress("0x0f09"))
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	gw.detailsErr = errors.New("campaign.getCampaignDetails: dial tcp 127.0.0.1:8545: connect: connection refused")
	_, err = l.ApproveCampaign(ctx, campaignAddr)
	assert.Equal(t, contract.KindWallet, contract.KindOf(err))
	assert.Len(t, gw.sent, 1)
}

func TestCapabilities(t *testing.T) {
	gw := newFakeGateway()
	gw.factoryAdmin = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	gw.campaigns[campaignAddr] = openCampaign(creatorAddr)
	other := openCampaign(operatorAddr)
	other.Address = common.HexToAddress("0x0000000000000000000000000000000000000f02")
	gw.campaigns[other.Address] = other
	gw.contributions[campaignAddr] = big.NewInt(1)
	l, _ := newCampaignLogic(gw)

	caps, err := l.Capabilities(context.Background(), operatorAddr)
	require.NoError(t, err)
	assert.True(t, caps.IsCreator)
	assert.Equal(t, 1, caps.CreatedCount)
	assert.True(t, caps.IsBacker)
	assert.Equal(t, 1, caps.BackedCount)
	assert.False(t, caps.IsAdmin)
	assert.False(t, caps.IsOwner)
	assert.True(t, caps.AdminMismatch)
}

func TestGetCampaignFallsBackToChain(t *testing.T) {
	gw := newFakeGateway()
	l, _ := newCampaignLogic(gw)
	mirror := &fakeMirror{gw: newFakeGateway()}
	l.campaigns = mirror
	gw.campaigns[campaignAddr] = openCampaign(creatorAddr)

	view, err := l.GetCampaign(context.Background(), campaignAddr)
	require.NoError(t, err)
	assert.Equal(t, "school-library", view.Slug)

	_, err = l.GetCampaign(context.Background(), common.HexToAddress("0x09"))
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	gw.detailsErr = errors.New("campaign.getCampaignDetails: dial tcp: lookup rpc.example: no such host")
	_, err = l.GetCampaign(context.Background(), common.HexToAddress("0x09"))
	assert.NotErrorIs(t, err, ErrCampaignNotFound)
	assert.Equal(t, contract.KindWallet, contract.KindOf(err))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.takenNames["bob"] = true
	mirror := &fakeMirror{gw: gw}
	sessions := newFakeSessions()
	l := NewUserLogic(gw, mirror, sessions)

	_, err := l.Register(ctx, RegisterRequest{Username: "ab", Email: "a@b.co"})
	assert.Equal(t, contract.KindValidation, contract.KindOf(err))

	_, err = l.Register(ctx, RegisterRequest{Username: "Bob", Email: "a@b.co"})
	require.Error(t, err)
	assert.Equal(t, "Username is already taken. Please choose another one.", err.Error())

	result, err := l.Register(ctx, RegisterRequest{Username: "Alice_1", Email: " Alice@Example.COM ", Role: model.RoleCreator})
	require.NoError(t, err)
	require.Len(t, gw.sent, 1)
	assert.Equal(t, "alice_1", gw.sent[0].args[0])
	assert.Equal(t, EmailHash("alice@example.com"), gw.sent[0].args[1])
	assert.Equal(t, 1, mirror.refreshes)
	require.NotNil(t, result.Session)
	assert.Equal(t, "alice_1", result.Session.Username)
	assert.Equal(t, model.RoleCreator, result.Session.Role)

	_, err = l.Register(ctx, RegisterRequest{Username: "alice_2", Email: "a@b.co"})
	require.Error(t, err)
	assert.Equal(t, "This wallet is already registered", err.Error())
}

func TestEmailHashIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, EmailHash("USER@mail.com"), EmailHash("user@MAIL.com"))
	assert.NotEqual(t, EmailHash("user@mail.com"), EmailHash("other@mail.com"))
}

func TestOwnerWrites(t *testing.T) {
	ctx := context.Background()
	target := common.HexToAddress("0x00000000000000000000000000000000000000d1")

	gw := newFakeGateway()
	mirror := &fakeMirror{gw: gw}
	sessions := newFakeSessions()
	l := NewUserLogic(gw, mirror, sessions)

	_, err := l.BanUser(ctx, target, "   ")
	assert.Equal(t, contract.KindValidation, contract.KindOf(err))

	_, err = l.BanUser(ctx, target, "spam")
	require.Error(t, err)
	assert.Equal(t, "Only contract owner can ban users", err.Error())

	gw.operator = ownerAddr
	_, err = l.BanUser(ctx, target, "spam")
	require.NoError(t, err)
	_, err = l.SetKYCLevel(ctx, target, model.KYCIntermediate)
	require.NoError(t, err)
	_, err = l.UnbanUser(ctx, target)
	require.NoError(t, err)

	require.Len(t, gw.sent, 3)
	assert.Equal(t, contract.OpBan, gw.sent[0].op)
	assert.Equal(t, model.KYCIntermediate, gw.sent[1].args[1])
	assert.Equal(t, 3, mirror.refreshes)
	assert.Equal(t, []string{target.Hex(), target.Hex(), target.Hex()}, sessions.deleted)

	_, err = l.SetKYCLevel(ctx, target, model.KYCLevel(9))
	assert.Equal(t, contract.KindValidation, contract.KindOf(err))
}

func TestGetUserReconcilesSession(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	sessions := newFakeSessions()
	l := NewUserLogic(gw, &fakeMirror{gw: gw}, sessions)

	gw.register(creatorAddr, model.KYCBasic)
	_, err := sessions.Create(ctx, gw.profiles[creatorAddr])
	require.NoError(t, err)

	view, err := l.GetUser(ctx, creatorAddr)
	require.NoError(t, err)
	assert.True(t, view.Registered)
	assert.NotNil(t, view.Session)

	gw.profiles[creatorAddr].IsBanned = true
	view, err = l.GetUser(ctx, creatorAddr)
	require.NoError(t, err)
	assert.Nil(t, view.Session)
	assert.Empty(t, sessions.stored)
}

func TestUserGateAndAvailability(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	gw.takenNames["alice"] = true
	l := NewUserLogic(gw, &fakeMirror{gw: gw}, newFakeSessions())

	d, err := l.CheckGate(ctx, creatorAddr, ActionCreateCampaign, "")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	gw.register(creatorAddr, model.KYCBasic)
	d, err = l.CheckGate(ctx, creatorAddr, ActionCreateCampaign, "")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	available, err := l.IsUsernameAvailable(ctx, "ALICE")
	require.NoError(t, err)
	assert.False(t, available)

	_, err = l.IsUsernameAvailable(ctx, "no spaces")
	assert.Equal(t, contract.KindValidation, contract.KindOf(err))

	page, err := l.ListUsers(ctx, -5, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, MaxUserLimit, page.Limit)
}
