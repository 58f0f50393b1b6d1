package logic

import (
	"fmt"
	"testing"
	"time"

	"github.com/blues/fundchain/internal/contract"
	"github.com/blues/fundchain/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func testCampaign(goal, raised string, approved bool, deadline time.Time) *model.Campaign {
	return &model.Campaign{
		Goal:        decimal.RequireFromString(goal),
		TotalRaised: decimal.RequireFromString(raised),
		IsApproved:  approved,
		IsActive:    true,
		Deadline:    deadline,
	}
}

func TestClassifyCampaignScenarios(t *testing.T) {
	future := testNow.Add(10 * 24 * time.Hour)
	yesterday := testNow.Add(-24 * time.Hour)

	state := ClassifyCampaign(testCampaign("10", "10", true, future), testNow)
	assert.Equal(t, model.CampaignStatusCompleted, state.Status)
	assert.Equal(t, 100.0, state.Percentage)

	state = ClassifyCampaign(testCampaign("10", "3", true, yesterday), testNow)
	assert.Equal(t, model.CampaignStatusExpired, state.Status)
	assert.Equal(t, 30.0, state.Percentage)
	assert.Equal(t, int64(0), state.DaysLeft)

	state = ClassifyCampaign(testCampaign("10", "5", false, testNow.Add(365*24*time.Hour)), testNow)
	assert.Equal(t, model.CampaignStatusPending, state.Status)
	assert.Equal(t, 50.0, state.Percentage)

	state = ClassifyCampaign(testCampaign("10", "4", true, future), testNow)
	assert.Equal(t, model.CampaignStatusActive, state.Status)
	assert.Equal(t, int64(10), state.DaysLeft)
}

func TestClassifyCampaignProperties(t *testing.T) {
	goals := []string{"0.5", "1", "10", "250"}
	raised := []string{"0", "0.1", "0.5", "1", "9.99", "10", "300"}
	deadlines := []time.Duration{-48 * time.Hour, -time.Millisecond, time.Millisecond, 72 * time.Hour}

	for _, g := range goals {
		for _, r := range raised {
			for _, d := range deadlines {
				for _, approved := range []bool{true, false} {
					c := testCampaign(g, r, approved, testNow.Add(d))
					state := ClassifyCampaign(c, testNow)
					name := fmt.Sprintf("goal=%s raised=%s deadline=%s approved=%v", g, r, d, approved)

					funded := c.TotalRaised.Div(c.Goal).GreaterThanOrEqual(decimal.NewFromInt(1))
					if !approved {
						assert.Equal(t, model.CampaignStatusPending, state.Status, name)
					}
					assert.Equal(t, funded && approved, state.Status == model.CampaignStatusCompleted, name)
					if approved && !funded && d < 0 {
						assert.Equal(t, model.CampaignStatusExpired, state.Status, name)
					}
					assert.GreaterOrEqual(t, state.Percentage, 0.0, name)
					assert.LessOrEqual(t, state.Percentage, 100.0, name)
					assert.GreaterOrEqual(t, state.DaysLeft, int64(0), name)
				}
			}
		}
	}
}

func TestClassifyCampaignZeroGoal(t *testing.T) {
	future := testNow.Add(24 * time.Hour)

	state := ClassifyCampaign(testCampaign("0", "0.1", true, future), testNow)
	assert.Equal(t, model.CampaignStatusCompleted, state.Status)
	assert.Equal(t, 100.0, state.Percentage)

	state = ClassifyCampaign(testCampaign("0", "0", true, future), testNow)
	assert.Equal(t, model.CampaignStatusActive, state.Status)
	assert.Equal(t, 0.0, state.Percentage)

	state = ClassifyCampaign(testCampaign("0", "0", true, testNow.Add(-time.Hour)), testNow)
	assert.Equal(t, model.CampaignStatusExpired, state.Status)

	state = ClassifyCampaign(testCampaign("0", "0", false, future), testNow)
	assert.Equal(t, model.CampaignStatusPending, state.Status)
}

func TestDaysLeft(t *testing.T) {
	assert.Equal(t, int64(1), DaysLeft(testNow.Add(time.Millisecond), testNow))
	assert.Equal(t, int64(1), DaysLeft(testNow.Add(24*time.Hour), testNow))
	assert.Equal(t, int64(2), DaysLeft(testNow.Add(24*time.Hour+time.Second), testNow))
	assert.Equal(t, int64(0), DaysLeft(testNow, testNow))
	assert.Equal(t, int64(0), DaysLeft(testNow.Add(-time.Hour), testNow))
	assert.Equal(t, int64(-1), DaysLeft(testNow.Add(-25*time.Hour), testNow))
}

func TestCanContribute(t *testing.T) {
	future := testNow.Add(24 * time.Hour)
	assert.True(t, CanContribute(testCampaign("10", "1", true, future), testNow))
	assert.False(t, CanContribute(testCampaign("10", "1", false, future), testNow))
	assert.False(t, CanContribute(testCampaign("10", "10", true, future), testNow))
	assert.False(t, CanContribute(testCampaign("10", "1", true, testNow.Add(-time.Hour)), testNow))

	closed := testCampaign("10", "1", true, future)
	closed.IsActive = false
	assert.False(t, CanContribute(closed, testNow))
}

const testAdmin = "0x1b4709064B3050d11Ba2540AbA8B3B4412159697"

func TestClassifyCapabilitiesAdminCaseInsensitive(t *testing.T) {
	for _, wallet := range []string{testAdmin, "0x1B4709064B3050D11BA2540ABA8B3B4412159697", "0x1b4709064b3050d11ba2540aba8b3b4412159697"} {
		caps := ClassifyCapabilities(CapabilityInput{Wallet: wallet, AdminConstant: testAdmin})
		assert.True(t, caps.IsAdmin, wallet)
	}

	caps := ClassifyCapabilities(CapabilityInput{Wallet: "0x00000000000000000000000000000000000000aa", AdminConstant: testAdmin})
	assert.False(t, caps.IsAdmin)
}

func TestClassifyCapabilitiesFactoryAdminIsNeverAuthority(t *testing.T) {
	factoryAdmin := "0x00000000000000000000000000000000000000f0"
	caps := ClassifyCapabilities(CapabilityInput{
		Wallet:        factoryAdmin,
		AdminConstant: testAdmin,
		FactoryAdmin:  factoryAdmin,
	})
	assert.False(t, caps.IsAdmin)
	assert.True(t, caps.AdminMismatch)

	caps = ClassifyCapabilities(CapabilityInput{Wallet: testAdmin, AdminConstant: testAdmin, FactoryAdmin: testAdmin})
	assert.True(t, caps.IsAdmin)
	assert.False(t, caps.AdminMismatch)
}

func TestClassifyCapabilitiesRoles(t *testing.T) {
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	other := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	in := CapabilityInput{
		Wallet:        "0x00000000000000000000000000000000000000AA",
		AdminConstant: testAdmin,
		RegistryOwner: wallet.Hex(),
		Campaigns: []model.Campaign{
			{Creator: wallet}, {Creator: other}, {Creator: wallet},
		},
		BackedCount: 1,
	}

	caps := ClassifyCapabilities(in)
	assert.True(t, caps.IsOwner)
	assert.True(t, caps.IsCreator)
	assert.Equal(t, 2, caps.CreatedCount)
	assert.True(t, caps.IsBacker)
	assert.Equal(t, caps, ClassifyCapabilities(in))

	in.Campaigns = []model.Campaign{{Creator: other}}
	in.BackedCount = 0
	caps = ClassifyCapabilities(in)
	assert.False(t, caps.IsCreator)
	assert.False(t, caps.IsBacker)
}

func TestCheckGateCreateCampaignByKYC(t *testing.T) {
	for _, level := range []model.KYCLevel{model.KYCNone, model.KYCBasic, model.KYCIntermediate, model.KYCAdvanced} {
		d := CheckGate(GateInput{IsRegistered: true, KYCLevel: level, Action: ActionCreateCampaign})
		assert.Equal(t, level >= model.KYCBasic, d.Allowed, level.String())
	}

	d := CheckGate(GateInput{IsRegistered: true, KYCLevel: model.KYCNone, Action: ActionCreateCampaign})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "KYC level")
}

func TestCheckGateOrder(t *testing.T) {
	d := CheckGate(GateInput{IsRegistered: false, IsBanned: true, Action: ActionCreateCampaign})
	assert.Contains(t, d.Reason, "must register")

	d = CheckGate(GateInput{IsRegistered: true, IsBanned: true, KYCLevel: model.KYCAdvanced, Action: ActionCreateCampaign})
	assert.Contains(t, d.Reason, "banned")
}

func TestCheckGateSelfContributionAlwaysDenied(t *testing.T) {
	wallet := "0x00000000000000000000000000000000000000aa"
	for _, registered := range []bool{true, false} {
		for _, banned := range []bool{true, false} {
			for _, level := range []model.KYCLevel{model.KYCNone, model.KYCBasic, model.KYCIntermediate, model.KYCAdvanced} {
				d := CheckGate(GateInput{
					Wallet:          wallet,
					IsRegistered:    registered,
					IsBanned:        banned,
					KYCLevel:        level,
					Action:          ActionContribute,
					CampaignCreator: "0x00000000000000000000000000000000000000AA",
				})
				assert.False(t, d.Allowed)
			}
		}
	}

	d := CheckGate(GateInput{
		Wallet:          wallet,
		IsRegistered:    true,
		Action:          ActionContribute,
		CampaignCreator: "0x00000000000000000000000000000000000000bb",
	})
	assert.True(t, d.Allowed)
}

func TestParseGateAction(t *testing.T) {
	action, err := ParseGateAction("contribute")
	require.NoError(t, err)
	assert.Equal(t, ActionContribute, action)

	_, err = ParseGateAction("withdraw")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	creator := common.HexToAddress("0x00000000000000000000000000000000000000c1")
	campaigns := []model.Campaign{
		{Title: "Clinic Roof", Description: "repair", Category: "Medical", IsApproved: true, IsActive: true,
			Goal: decimal.NewFromInt(10), TotalRaised: decimal.NewFromInt(2), Backers: 5, Deadline: testNow.Add(48 * time.Hour), Creator: creator},
		{Title: "School Books", Description: "Library for kids", Category: "Education", IsApproved: true, IsActive: true,
			Goal: decimal.NewFromInt(10), TotalRaised: decimal.NewFromInt(7), Backers: 2, Deadline: testNow.Add(24 * time.Hour)},
		{Title: "Hidden", Description: "not approved", Category: "Medical", IsApproved: false, IsActive: true,
			Goal: decimal.NewFromInt(10), Deadline: testNow.Add(72 * time.Hour)},
	}
	views := BuildViews(campaigns, testNow)

	got := Discover(views, DiscoveryQuery{Sort: SortNewest})
	require.Len(t, got, 2)
	assert.Equal(t, "Clinic Roof", got[0].Title)
	assert.Equal(t, "clinic-roof", got[0].Slug)

	got = Discover(views, DiscoveryQuery{Sort: SortEnding})
	assert.Equal(t, "School Books", got[0].Title)

	got = Discover(views, DiscoveryQuery{Sort: SortMostFunded})
	assert.Equal(t, "School Books", got[0].Title)

	got = Discover(views, DiscoveryQuery{Sort: SortMostBackers})
	assert.Equal(t, "Clinic Roof", got[0].Title)

	got = Discover(views, DiscoveryQuery{Search: "LIBRARY"})
	require.Len(t, got, 1)
	assert.Equal(t, "School Books", got[0].Title)

	got = Discover(views, DiscoveryQuery{Category: "Medical", ShowAll: true})
	assert.Len(t, got, 2)

	got = Discover(views, DiscoveryQuery{Category: "All", Creator: creator.Hex()})
	require.Len(t, got, 1)

	got = Discover(views, DiscoveryQuery{ShowAll: true, Status: model.CampaignStatusPending})
	require.Len(t, got, 1)
	assert.Equal(t, "Hidden", got[0].Title)

	counts := CountByStatus(views)
	assert.Equal(t, 2, counts[model.CampaignStatusActive])
	assert.Equal(t, 1, counts[model.CampaignStatusPending])
	assert.Equal(t, 0, counts[model.CampaignStatusExpired])
}

func TestValidateUsernameAndEmail(t *testing.T) {
	assert.NoError(t, ValidateUsername("alice_01"))
	for _, bad := range []string{"", "ab", "this_username_is_too_long", "Alice", "al ice", "bob!"} {
		err := ValidateUsername(bad)
		require.Error(t, err, bad)
		assert.Equal(t, contract.KindValidation, contract.KindOf(err), bad)
	}

	assert.NoError(t, ValidateEmail("alice@example.com"))
	for _, bad := range []string{"", "alice", "alice@example", "a b@example.com"} {
		assert.Error(t, ValidateEmail(bad), bad)
	}
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
}

func TestRegisterValidators(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type form struct {
		Username string `validate:"fc_username"`
		Email    string `validate:"fc_email"`
		Category string `validate:"fc_category"`
	}
	assert.NoError(t, v.Struct(form{Username: "alice", Email: "a@b.co", Category: "Medical"}))
	assert.Error(t, v.Struct(form{Username: "Al", Email: "a@b.co", Category: "Medical"}))
	assert.Error(t, v.Struct(form{Username: "alice", Email: "a@b.co", Category: "Games"}))
}
