package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// Campaign owns one fundraising effort: tier price table, lifecycle state,
// fund custody on the token ledger, and the boost flag. All mutating calls
// hold the campaign mutex for their full duration so concurrent callers
// observe a consistent balance and an all-or-nothing outcome.
//
// Lifecycle: draft (pricing) -> active (start) -> closed (close) or expired
// (funding window elapses) -> withdrawn (withdraw). Expiry is derived from
// startedAt and the clock on every call.
type Campaign struct {
	mu sync.Mutex

	addr     common.Address
	registry common.Address // owner contract acting on the artist's behalf
	artist   common.Address

	name        string
	description string
	fees        uint8
	nbTiers     uint8
	baseURI     string
	objectif    *big.Int

	prices []*big.Int // index tier-1; nil until priced

	createdAt      time.Time
	startedAt      time.Time
	endsAt         time.Time
	closedAt       time.Time
	boostExpiry    time.Time
	fundsWithdrawn bool

	window     time.Duration
	priceFloor *big.Int

	token   domain.TokenLedger
	rewards domain.RewardLedger
	clock   Clock
	events  *Emitter
	logger  *slog.Logger
}

// SetTierPrice sets the price of one tier while the campaign is in draft.
// The assignment is rejected if it would break the strictly increasing
// ladder against whichever neighbours are already priced, so the ladder is
// guaranteed once every tier is set, regardless of fill order.
func (c *Campaign) SetTierPrice(ctx context.Context, caller common.Address, tierID uint8, price *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.artist {
		return domain.ErrNotCampaignArtist
	}
	if !c.startedAt.IsZero() {
		return domain.ErrAlreadyStarted
	}
	if tierID < 1 || tierID > c.nbTiers {
		return domain.ErrTierNotFound
	}
	if price == nil || price.Cmp(c.priceFloor) < 0 {
		return domain.ErrPriceTooLow
	}
	if tierID > 1 {
		if prev := c.prices[tierID-2]; prev != nil && price.Cmp(prev) <= 0 {
			return domain.ErrPriceBelowPrevious
		}
	}
	if tierID < c.nbTiers {
		if next := c.prices[tierID]; next != nil && price.Cmp(next) >= 0 {
			return domain.ErrPriceAboveNext
		}
	}

	c.prices[tierID-1] = new(big.Int).Set(price)

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventTierPriceSet,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"tier":  tierID,
			"price": price.String(),
		},
	})
	return nil
}

// Start opens the funding window. Every tier must be priced first.
func (c *Campaign) Start(ctx context.Context, caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.artist {
		return domain.ErrNotCampaignArtist
	}
	if !c.startedAt.IsZero() {
		return domain.ErrAlreadyStarted
	}
	for _, p := range c.prices {
		if p == nil {
			return domain.ErrMissingTierPrices
		}
	}

	now := c.clock()
	c.startedAt = now
	c.endsAt = now.Add(c.window)

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignStarted,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"started_at": now.UTC(),
			"ends_at":    c.endsAt.UTC(),
		},
	})
	return nil
}

// Close ends the campaign before its natural expiry.
func (c *Campaign) Close(ctx context.Context, caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.artist {
		return domain.ErrNotCampaignArtist
	}
	if c.startedAt.IsZero() {
		return domain.ErrNotStarted
	}
	if !c.closedAt.IsZero() {
		return domain.ErrCampaignClosed
	}
	now := c.clock()
	if now.After(c.endsAt) {
		return domain.ErrCampaignEnded
	}

	c.closedAt = now

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignClosed,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"closed_at": now.UTC(),
			"ends_at":   c.endsAt.UTC(),
		},
	})
	return nil
}

// Mint sells quantity units of a tier's reward to the caller. Payment is
// pulled from the caller's pre-approved token allowance; the reward credit
// and the payment commit or roll back together.
func (c *Campaign) Mint(ctx context.Context, caller common.Address, tierID uint8, quantity uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.startedAt.IsZero() {
		return domain.ErrNotStarted
	}
	if !c.closedAt.IsZero() {
		return domain.ErrCampaignClosed
	}
	if c.clock().After(c.endsAt) {
		return domain.ErrCampaignEnded
	}
	if tierID < 1 || tierID > c.nbTiers {
		return domain.ErrTierNotFound
	}
	if quantity == 0 {
		return domain.ErrInvalidQuantity
	}

	cost := new(big.Int).Mul(c.prices[tierID-1], new(big.Int).SetUint64(quantity))

	// Pull payment first; nothing local has mutated yet, so a failed
	// transfer aborts the whole call.
	if err := c.token.TransferFrom(ctx, c.addr, caller, c.addr, cost); err != nil {
		return fmt.Errorf("campaign %s: mint tier %d: %w", c.addr.Hex(), tierID, err)
	}

	if err := c.rewards.Mint(ctx, caller, tierID, quantity); err != nil {
		// Compensate the already-confirmed payment before surfacing.
		if refundErr := c.token.Transfer(ctx, c.addr, caller, cost); refundErr != nil {
			c.logger.ErrorContext(ctx, "campaign: mint refund failed",
				slog.String("campaign", c.addr.Hex()),
				slog.String("supporter", caller.Hex()),
				slog.String("amount", cost.String()),
				slog.String("error", refundErr.Error()),
			)
		}
		return fmt.Errorf("campaign %s: reward mint tier %d: %w", c.addr.Hex(), tierID, err)
	}

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventMint,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"to":       caller.Hex(),
			"tier":     tierID,
			"quantity": quantity,
			"cost":     cost.String(),
		},
	})
	return nil
}

// Withdraw sweeps the campaign's entire token balance to the artist, once,
// after the campaign has ended. The fee option on the campaign is
// informational; no platform cut is taken here.
func (c *Campaign) Withdraw(ctx context.Context) (*big.Int, error) {
	return c.withdrawAs(ctx, c.artist)
}

// WithdrawAs is Withdraw with an explicit caller, for callers that are not
// already authenticated as the artist.
func (c *Campaign) WithdrawAs(ctx context.Context, caller common.Address) (*big.Int, error) {
	return c.withdrawAs(ctx, caller)
}

func (c *Campaign) withdrawAs(ctx context.Context, caller common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.artist {
		return nil, domain.ErrNotCampaignArtist
	}
	if c.startedAt.IsZero() {
		return nil, domain.ErrNotStarted
	}
	if c.inProgress(c.clock()) {
		return nil, domain.ErrInProgress
	}
	if c.fundsWithdrawn {
		return nil, domain.ErrAlreadyWithdrawn
	}

	balance, err := c.token.BalanceOf(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("campaign %s: read balance: %w", c.addr.Hex(), err)
	}
	if balance.Sign() > 0 {
		if err := c.token.Transfer(ctx, c.addr, c.artist, balance); err != nil {
			return nil, fmt.Errorf("campaign %s: withdraw transfer: %w", c.addr.Hex(), err)
		}
	}

	// The flag commits only after the transfer is confirmed.
	c.fundsWithdrawn = true

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventFundsWithdrawn,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"amount": balance.String(),
		},
	})
	return balance, nil
}

// UpdateInfo replaces the campaign metadata while still in draft. The artist
// may call directly, or the registry on the artist's behalf.
func (c *Campaign) UpdateInfo(ctx context.Context, caller common.Address, name, description string, feesPercent uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.artist && caller != c.registry {
		return domain.ErrNotOwner
	}
	if !c.startedAt.IsZero() {
		return domain.ErrAlreadyStarted
	}
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return err
	}
	if err := domain.ValidateFees(feesPercent); err != nil {
		return err
	}

	c.name = name
	c.description = description
	c.fees = feesPercent

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignInfoUpdated,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"name":         name,
			"description":  description,
			"fees_percent": feesPercent,
		},
	})
	return nil
}

// SetBoost stores the boost expiry. Only the registry, as delegated owner,
// may call; the campaign must be live.
func (c *Campaign) SetBoost(ctx context.Context, caller common.Address, expiry time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.registry {
		return domain.ErrNotOwner
	}
	if c.startedAt.IsZero() {
		return domain.ErrNotStarted
	}
	if !c.closedAt.IsZero() {
		return domain.ErrCampaignClosed
	}
	if c.clock().After(c.endsAt) {
		return domain.ErrCampaignEnded
	}

	c.boostExpiry = expiry

	c.events.Emit(ctx, domain.Event{
		Type:     domain.EventBoosted,
		Campaign: c.addr,
		Artist:   c.artist,
		Payload: map[string]any{
			"boost_expiry": expiry.UTC(),
		},
	})
	return nil
}

// inProgress must be called with the mutex held.
func (c *Campaign) inProgress(now time.Time) bool {
	return !c.startedAt.IsZero() && c.closedAt.IsZero() && !now.After(c.endsAt)
}

// InProgress reports whether minting is currently allowed.
func (c *Campaign) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress(c.clock())
}

// IsBoosted reports whether the campaign's boost is live.
func (c *Campaign) IsBoosted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.boostExpiry.IsZero() && c.boostExpiry.After(c.clock())
}

// Status derives the lifecycle state from stored timestamps and the clock.
func (c *Campaign) Status() domain.CampaignStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status(c.clock())
}

func (c *Campaign) status(now time.Time) domain.CampaignStatus {
	switch {
	case c.fundsWithdrawn:
		return domain.CampaignStatusWithdrawn
	case c.startedAt.IsZero():
		return domain.CampaignStatusDraft
	case !c.closedAt.IsZero():
		return domain.CampaignStatusClosed
	case now.After(c.endsAt):
		return domain.CampaignStatusExpired
	default:
		return domain.CampaignStatusActive
	}
}

// TierPrice returns the price set for a tier, or ErrTierNotFound /
// ErrNotFound when the tier is out of range or unpriced.
func (c *Campaign) TierPrice(tierID uint8) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tierID < 1 || tierID > c.nbTiers {
		return nil, domain.ErrTierNotFound
	}
	p := c.prices[tierID-1]
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return new(big.Int).Set(p), nil
}

// URI returns the tier's off-chain metadata address,
// {metadataBaseUri}{tierId}.json. The content is never fetched or validated.
func (c *Campaign) URI(tierID uint8) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tierID < 1 || tierID > c.nbTiers {
		return "", domain.ErrTierNotFound
	}
	return fmt.Sprintf("%s%d.json", c.baseURI, tierID), nil
}

// Address returns the campaign handle.
func (c *Campaign) Address() common.Address { return c.addr }

// Artist returns the owning artist's address.
func (c *Campaign) Artist() common.Address { return c.artist }

// Name returns the campaign name.
func (c *Campaign) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Description returns the campaign description.
func (c *Campaign) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}

// FeesPercent returns the campaign's fee option.
func (c *Campaign) FeesPercent() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fees
}

// NbTiers returns the tier count fixed at creation.
func (c *Campaign) NbTiers() uint8 { return c.nbTiers }

// Objectif returns the informational funding target.
func (c *Campaign) Objectif() *big.Int {
	return new(big.Int).Set(c.objectif)
}

// MetadataBaseURI returns the base URI tier descriptors hang off.
func (c *Campaign) MetadataBaseURI() string { return c.baseURI }

// FundsWithdrawn reports whether the artist has swept the raised funds.
func (c *Campaign) FundsWithdrawn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fundsWithdrawn
}

// Summary snapshots the campaign into the registry's projection shape.
func (c *Campaign) Summary() domain.CampaignSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	return domain.CampaignSummary{
		Address:     c.addr,
		Name:        c.name,
		Description: c.description,
		FeesPercent: c.fees,
		NbTiers:     c.nbTiers,
		Artist:      c.artist,
		Objectif:    new(big.Int).Set(c.objectif),
		BoostExpiry: c.boostExpiry,
		Status:      c.status(now),
		StartedAt:   c.startedAt,
		ClosedAt:    c.closedAt,
		CreatedAt:   c.createdAt,
		UpdatedAt:   now,
	}
}
