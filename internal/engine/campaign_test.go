package engine_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
)

func TestCampaign_SetTierPriceGuards(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  common.Address
		tier    uint8
		price   *big.Int
		wantErr error
	}{
		{"not_artist", supporter, 1, usdc(5), domain.ErrNotCampaignArtist},
		{"tier_zero", artist, 0, usdc(5), domain.ErrTierNotFound},
		{"tier_out_of_range", artist, 4, usdc(5), domain.ErrTierNotFound},
		{"nil_price", artist, 1, nil, domain.ErrPriceTooLow},
		{"below_floor", artist, 1, big.NewInt(0), domain.ErrPriceTooLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.registry.SetTierPrice(ctx, tt.caller, c.Address(), tt.tier, tt.price)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCampaign_TierLadder(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	// Fill out of order: the middle tier first.
	require.NoError(t, c.SetTierPrice(ctx, artist, 2, usdc(15)))

	// Tier 1 must stay strictly below tier 2.
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 1, usdc(15)), domain.ErrPriceAboveNext)
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 1, usdc(20)), domain.ErrPriceAboveNext)
	require.NoError(t, c.SetTierPrice(ctx, artist, 1, usdc(5)))

	// Tier 3 must stay strictly above tier 2.
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 3, usdc(15)), domain.ErrPriceBelowPrevious)
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 3, usdc(10)), domain.ErrPriceBelowPrevious)
	require.NoError(t, c.SetTierPrice(ctx, artist, 3, usdc(50)))

	// Repricing an already-set tier still honours both neighbours.
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 2, usdc(5)), domain.ErrPriceBelowPrevious)
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 2, usdc(50)), domain.ErrPriceAboveNext)
	require.NoError(t, c.SetTierPrice(ctx, artist, 2, usdc(20)))

	p, err := c.TierPrice(2)
	require.NoError(t, err)
	assert.Zero(t, p.Cmp(usdc(20)))
}

func TestCampaign_StartRequiresAllTiers(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	require.NoError(t, c.SetTierPrice(ctx, artist, 1, usdc(5)))
	require.NoError(t, c.SetTierPrice(ctx, artist, 3, usdc(50)))

	assert.ErrorIs(t, c.Start(ctx, artist), domain.ErrMissingTierPrices)
	assert.Equal(t, domain.CampaignStatusDraft, c.Status())

	require.NoError(t, c.SetTierPrice(ctx, artist, 2, usdc(15)))
	assert.ErrorIs(t, c.Start(ctx, supporter), domain.ErrNotCampaignArtist)
	require.NoError(t, c.Start(ctx, artist))

	assert.Equal(t, domain.CampaignStatusActive, c.Status())
	assert.True(t, c.InProgress())

	// Pricing and restarting are both frozen once live.
	assert.ErrorIs(t, c.SetTierPrice(ctx, artist, 1, usdc(6)), domain.ErrAlreadyStarted)
	assert.ErrorIs(t, c.Start(ctx, artist), domain.ErrAlreadyStarted)
}

func TestCampaign_Mint(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Mint(ctx, supporter, 1, 1), domain.ErrNotStarted)

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(1_000))

	assert.ErrorIs(t, c.Mint(ctx, supporter, 0, 1), domain.ErrTierNotFound)
	assert.ErrorIs(t, c.Mint(ctx, supporter, 4, 1), domain.ErrTierNotFound)
	assert.ErrorIs(t, c.Mint(ctx, supporter, 1, 0), domain.ErrInvalidQuantity)

	require.NoError(t, c.Mint(ctx, supporter, 2, 2))

	held, err := f.rewards.BalanceOf(ctx, supporter, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), held)
	assert.Zero(t, f.balance(t, c.Address()).Cmp(usdc(30)))
	assert.Zero(t, f.balance(t, supporter).Cmp(usdc(970)))
}

func TestCampaign_MintWithoutAllowance(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.token.Faucet(supporter, usdc(1_000))

	err := c.Mint(ctx, supporter, 1, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)

	// Nothing moved and nothing was minted.
	assert.Zero(t, f.balance(t, supporter).Cmp(usdc(1_000)))
	held, err := f.rewards.BalanceOf(ctx, supporter, 1)
	require.NoError(t, err)
	assert.Zero(t, held)
}

func TestCampaign_MintRefundsPaymentWhenRewardFails(t *testing.T) {
	f := newFixtureWith(t, engine.DefaultParams(), failingRewards{})
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(1_000))

	err := c.Mint(ctx, supporter, 3, 1)
	require.Error(t, err)

	// The already-pulled payment was returned to the supporter.
	assert.Zero(t, f.balance(t, supporter).Cmp(usdc(1_000)))
	assert.Zero(t, f.balance(t, c.Address()).Sign())
}

func TestCampaign_CloseStopsMinting(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Close(ctx, artist), domain.ErrNotStarted)

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(100))
	require.NoError(t, c.Mint(ctx, supporter, 1, 1))

	assert.ErrorIs(t, c.Close(ctx, supporter), domain.ErrNotCampaignArtist)
	require.NoError(t, c.Close(ctx, artist))

	assert.Equal(t, domain.CampaignStatusClosed, c.Status())
	assert.ErrorIs(t, c.Mint(ctx, supporter, 1, 1), domain.ErrCampaignClosed)
	assert.ErrorIs(t, c.Close(ctx, artist), domain.ErrCampaignClosed)
}

func TestCampaign_FundingWindowExpiry(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(100))
	require.NoError(t, c.Mint(ctx, supporter, 1, 1))

	f.clock.Advance(engine.DefaultFundingWindow + time.Second)

	assert.Equal(t, domain.CampaignStatusExpired, c.Status())
	assert.False(t, c.InProgress())
	assert.ErrorIs(t, c.Mint(ctx, supporter, 1, 1), domain.ErrCampaignEnded)
	assert.ErrorIs(t, c.Close(ctx, artist), domain.ErrCampaignEnded)
}

func TestCampaign_Withdraw(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(100))
	require.NoError(t, c.Mint(ctx, supporter, 1, 3))
	require.NoError(t, c.Mint(ctx, supporter, 2, 1))

	// 3x5 + 1x15 USDC raised.
	raised := usdc(30)

	_, err := c.WithdrawAs(ctx, artist)
	assert.ErrorIs(t, err, domain.ErrInProgress)

	require.NoError(t, c.Close(ctx, artist))

	_, err = c.WithdrawAs(ctx, supporter)
	assert.ErrorIs(t, err, domain.ErrNotCampaignArtist)

	amount, err := c.WithdrawAs(ctx, artist)
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(raised))
	assert.Zero(t, f.balance(t, artist).Cmp(raised))
	assert.Zero(t, f.balance(t, c.Address()).Sign())
	assert.Equal(t, domain.CampaignStatusWithdrawn, c.Status())

	_, err = c.WithdrawAs(ctx, artist)
	assert.ErrorIs(t, err, domain.ErrAlreadyWithdrawn)
}

func TestCampaign_WithdrawAfterExpiry(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	f.priceAndStart(t, c)
	f.fund(supporter, c.Address(), usdc(100))
	require.NoError(t, c.Mint(ctx, supporter, 1, 1))

	// No explicit close: the elapsed window alone releases the funds.
	f.clock.Advance(engine.DefaultFundingWindow + time.Minute)

	amount, err := c.WithdrawAs(ctx, artist)
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(usdc(5)))
}

func TestCampaign_UpdateInfo(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.UpdateInfo(ctx, supporter, "Second Album", "A different description.", 0), domain.ErrNotOwner)
	assert.ErrorIs(t, c.UpdateInfo(ctx, artist, "x", "A different description.", 0), domain.ErrNameTooShort)
	assert.ErrorIs(t, c.UpdateInfo(ctx, artist, "Second Album", "short", 0), domain.ErrDescriptionTooShort)
	assert.ErrorIs(t, c.UpdateInfo(ctx, artist, "Second Album", "A different description.", 7), domain.ErrWrongFeesOption)

	require.NoError(t, c.UpdateInfo(ctx, artist, "Second Album", "A different description.", 10))
	assert.Equal(t, "Second Album", c.Name())
	assert.Equal(t, uint8(10), c.FeesPercent())

	f.priceAndStart(t, c)
	assert.ErrorIs(t, c.UpdateInfo(ctx, artist, "Third Album!", "Yet another description.", 0), domain.ErrAlreadyStarted)
}

func TestCampaign_URI(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	uri, err := c.URI(2)
	require.NoError(t, err)
	assert.Equal(t, "https://metadata.fanfare.live/2.json", uri)

	_, err = c.URI(0)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
	_, err = c.URI(4)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}

func TestCampaign_TierPriceUnset(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)

	_, err := c.TierPrice(1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.TierPrice(4)
	assert.ErrorIs(t, err, domain.ErrTierNotFound)
}
