package engine_test

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/ledger/memory"
)

func TestRegistry_CreateNewCampaignValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	type fields struct {
		name, description, artistName, artistBio string
		fees, nbTiers                            uint8
		objectif                                 *big.Int
	}
	valid := fields{
		name:        "First Solo Album",
		description: "Help record and master a debut solo album.",
		artistName:  "Jane Doe",
		artistBio:   "Indie multi-instrumentalist from Lyon.",
		fees:        5,
		nbTiers:     3,
		objectif:    big.NewInt(150_000_000),
	}

	tests := []struct {
		name    string
		mutate  func(v *fields)
		wantErr error
	}{
		{"name_too_short", func(v *fields) { v.name = "Demo" }, domain.ErrNameTooShort},
		{"name_too_long", func(v *fields) { v.name = strings.Repeat("a", 21) }, domain.ErrNameTooLong},
		{"description_too_short", func(v *fields) { v.description = "too short" }, domain.ErrDescriptionTooShort},
		{"wrong_fees_option", func(v *fields) { v.fees = 3 }, domain.ErrWrongFeesOption},
		{"artist_name_too_short", func(v *fields) { v.artistName = "Jane" }, domain.ErrNameTooShort},
		{"bio_too_short", func(v *fields) { v.artistBio = "short bio" }, domain.ErrBioTooShort},
		{"zero_tiers", func(v *fields) { v.nbTiers = 0 }, domain.ErrNotEnoughTiers},
		{"too_many_tiers", func(v *fields) { v.nbTiers = 11 }, domain.ErrTooManyTiers},
		{"objectif_below_floor", func(v *fields) { v.objectif = big.NewInt(99_999_999) }, domain.ErrObjectifTooLow},
		{"nil_objectif", func(v *fields) { v.objectif = nil }, domain.ErrObjectifTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valid
			tt.mutate(&v)
			_, err := f.registry.CreateNewCampaign(ctx, artist, v.name, v.description,
				v.fees, v.artistName, v.artistBio, v.nbTiers, v.objectif, "https://meta.example/")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing registered by the failed attempts.
	assert.Zero(t, f.registry.CampaignCount())
	assert.False(t, f.registry.IsArtist(artist))
}

func TestRegistry_ArtistDirectory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.registry.IsArtist(artist))
	assert.True(t, f.registry.GetArtist(artist).IsZero())

	first := f.create(t)

	require.True(t, f.registry.IsArtist(artist))
	a := f.registry.GetArtist(artist)
	assert.Equal(t, "Jane Doe", a.Name)
	assert.Equal(t, "Indie multi-instrumentalist from Lyon.", a.Bio)
	assert.Equal(t, uint8(5), a.FeesPercent)
	require.Len(t, a.Campaigns, 1)
	assert.Equal(t, first.Address(), a.Campaigns[0])

	// Second creation appends; directory fields stay frozen even when the
	// caller supplies different artist info.
	second, err := f.registry.CreateNewCampaign(ctx, artist,
		"Winter Tour 2026", "Fund the van, the crew, and the merch run.", 10,
		"Different Name", "A completely different artist bio.", 2,
		big.NewInt(200_000_000), "https://meta.example/")
	require.NoError(t, err)

	a = f.registry.GetArtist(artist)
	assert.Equal(t, "Jane Doe", a.Name)
	require.Len(t, a.Campaigns, 2)
	assert.Equal(t, second.Address(), a.Campaigns[1])

	assert.Equal(t, 1, f.registry.ArtistCount())
	assert.Equal(t, 2, f.registry.CampaignCount())

	byArtist := f.registry.ListByArtist(artist)
	require.Len(t, byArtist, 2)
	assert.Equal(t, first.Address(), byArtist[0].Address)
	assert.Equal(t, second.Address(), byArtist[1].Address)
	assert.Empty(t, f.registry.ListByArtist(supporter))
}

func TestRegistry_MaxCampaignsPerArtist(t *testing.T) {
	params := engine.DefaultParams()
	params.MaxCampaignsPerArtist = 2
	f := newFixtureWith(t, params, memory.NewReward())
	ctx := context.Background()

	f.create(t)
	f.create(t)

	_, err := f.registry.CreateNewCampaign(ctx, artist,
		"First Solo Album", "Help record and master a debut solo album.", 5,
		"Jane Doe", "Indie multi-instrumentalist from Lyon.", 3,
		big.NewInt(150_000_000), "https://meta.example/")
	assert.ErrorIs(t, err, domain.ErrMaxCampaigns)

	// Other artists are unaffected by the cap.
	_, err = f.registry.CreateNewCampaign(ctx, artist2,
		"Debut EP Session", "Five tracks recorded live at the studio.", 0,
		"The Collective", "Four-piece band from Marseille.", 1,
		big.NewInt(100_000_000), "https://meta.example/")
	assert.NoError(t, err)
}

func TestRegistry_CampaignLookup(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	got, err := f.registry.Campaign(c.Address())
	require.NoError(t, err)
	assert.Equal(t, c.Address(), got.Address())

	s, ok := f.registry.GetOneCampaign(c.Address())
	require.True(t, ok)
	assert.Equal(t, "First Solo Album", s.Name)
	assert.Equal(t, domain.CampaignStatusDraft, s.Status)

	unknown := common.HexToAddress("0xdead000000000000000000000000000000000000")
	_, err = f.registry.Campaign(unknown)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, ok = f.registry.GetOneCampaign(unknown)
	assert.False(t, ok)

	// Forwarders surface the same lookup failure.
	assert.ErrorIs(t, f.registry.StartCampaign(context.Background(), artist, unknown), domain.ErrNotFound)
	assert.ErrorIs(t, f.registry.Mint(context.Background(), supporter, unknown, 1, 1), domain.ErrNotFound)
}

func TestRegistry_ListCampaignsOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	oldest := f.create(t)
	f.clock.Advance(time.Hour)
	middle := f.create(t)
	f.clock.Advance(time.Hour)
	newest := f.create(t)

	list := f.registry.ListCampaigns(domain.ListOpts{})
	require.Len(t, list, 3)
	assert.Equal(t, newest.Address(), list[0].Address)
	assert.Equal(t, middle.Address(), list[1].Address)
	assert.Equal(t, oldest.Address(), list[2].Address)

	// A boosted campaign jumps the queue regardless of age.
	f.priceAndStart(t, oldest)
	f.fund(artist, registryAddr, usdc(10))
	require.NoError(t, f.registry.SetBoost(ctx, artist, oldest.Address(), usdc(10)))

	list = f.registry.ListCampaigns(domain.ListOpts{})
	require.Len(t, list, 3)
	assert.Equal(t, oldest.Address(), list[0].Address)
	assert.Equal(t, newest.Address(), list[1].Address)

	// The boost wears off after its duration.
	f.clock.Advance(engine.DefaultBoostDuration + time.Second)
	list = f.registry.ListCampaigns(domain.ListOpts{})
	assert.Equal(t, newest.Address(), list[0].Address)

	// Pagination windows.
	page := f.registry.ListCampaigns(domain.ListOpts{Limit: 2})
	assert.Len(t, page, 2)
	page = f.registry.ListCampaigns(domain.ListOpts{Offset: 2})
	assert.Len(t, page, 1)
	assert.Empty(t, f.registry.ListCampaigns(domain.ListOpts{Offset: 5}))
}

func TestRegistry_SetBoost(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)

	assert.ErrorIs(t, f.registry.SetBoost(ctx, supporter, c.Address(), usdc(10)), domain.ErrNotCampaignArtist)
	assert.ErrorIs(t, f.registry.SetBoost(ctx, artist, c.Address(), usdc(9)), domain.ErrWrongValue)
	assert.ErrorIs(t, f.registry.SetBoost(ctx, artist, c.Address(), nil), domain.ErrWrongValue)

	// Fee must be pre-approved to the registry.
	f.token.Faucet(artist, usdc(10))
	assert.ErrorIs(t, f.registry.SetBoost(ctx, artist, c.Address(), usdc(10)), domain.ErrInsufficientFunds)

	f.token.Approve(artist, registryAddr, usdc(10))
	require.NoError(t, f.registry.SetBoost(ctx, artist, c.Address(), usdc(10)))

	assert.True(t, c.IsBoosted())
	assert.Zero(t, f.balance(t, registryAddr).Cmp(usdc(10)))
	assert.Zero(t, f.balance(t, artist).Sign())
}

func TestRegistry_SetBoostRefundsOnRejection(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	// Still in draft: the campaign rejects the boost after the fee is pulled.
	f.fund(artist, registryAddr, usdc(10))
	err := f.registry.SetBoost(ctx, artist, c.Address(), usdc(10))
	assert.ErrorIs(t, err, domain.ErrNotStarted)

	assert.Zero(t, f.balance(t, artist).Cmp(usdc(10)))
	assert.Zero(t, f.balance(t, registryAddr).Sign())
	assert.False(t, c.IsBoosted())
}

func TestRegistry_OwnerWithdraw(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(artist, registryAddr, usdc(10))
	require.NoError(t, f.registry.SetBoost(ctx, artist, c.Address(), usdc(10)))

	_, err := f.registry.Withdraw(ctx, artist)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	amount, err := f.registry.Withdraw(ctx, platform)
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(usdc(10)))
	assert.Zero(t, f.balance(t, platform).Cmp(usdc(10)))

	// Sweeping an empty balance is a no-op, not an error.
	amount, err = f.registry.Withdraw(ctx, platform)
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())
}

func TestRegistry_UpdateCampaignInfo(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	err := f.registry.UpdateCampaignInfo(ctx, supporter, c.Address(), "Second Album", "A different description.", 0)
	assert.ErrorIs(t, err, domain.ErrNotCampaignArtist)

	require.NoError(t, f.registry.UpdateCampaignInfo(ctx, artist, c.Address(), "Second Album", "A different description.", 0))

	s, ok := f.registry.GetOneCampaign(c.Address())
	require.True(t, ok)
	assert.Equal(t, "Second Album", s.Name)
	assert.Equal(t, uint8(0), s.FeesPercent)
}

func TestRegistry_MintThroughRegistry(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(100))

	require.NoError(t, f.registry.Mint(ctx, supporter, c.Address(), 1, 2))

	held, err := f.rewards.BalanceOf(ctx, supporter, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), held)

	require.NoError(t, f.registry.CloseCampaign(ctx, artist, c.Address()))
	amount, err := f.registry.WithdrawCampaign(ctx, artist, c.Address())
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(usdc(10)))
}
