// Package engine implements the campaign lifecycle and accounting engine:
// the per-campaign tiered-pricing/minting/withdrawal state machine plus the
// factory and registry that gate who may create and administer campaigns.
// Every mutating call is atomic: it either fully applies or returns an error
// with zero state mutation.
package engine

import (
	"math/big"
	"time"
)

const (
	// DefaultFundingWindow is how long minting stays open after start.
	DefaultFundingWindow = 8 * 7 * 24 * time.Hour

	// DefaultBoostDuration is how long a paid boost stays live.
	DefaultBoostDuration = 7 * 24 * time.Hour

	// MinTiers and MaxTiers bound the tier count at creation.
	MinTiers uint8 = 1
	MaxTiers uint8 = 10

	// MaxCampaignsPerArtist caps the directory entry for one address.
	MaxCampaignsPerArtist = 10
)

// Params carries the platform tunables. Amounts are USDC micro-units.
type Params struct {
	FundingWindow         time.Duration
	BoostDuration         time.Duration
	BoostFee              *big.Int
	PriceFloor            *big.Int
	ObjectifFloor         *big.Int
	MinTiers              uint8
	MaxTiers              uint8
	MaxCampaignsPerArtist int
}

// DefaultParams returns the production platform parameters: 8-week funding
// window, 7-day boost for 10 USDC, 1 micro-unit price floor, 100 USDC
// objectif floor, at most 10 campaigns per artist.
func DefaultParams() Params {
	return Params{
		FundingWindow:         DefaultFundingWindow,
		BoostDuration:         DefaultBoostDuration,
		BoostFee:              big.NewInt(10_000_000),
		PriceFloor:            big.NewInt(1),
		ObjectifFloor:         big.NewInt(100_000_000),
		MinTiers:              MinTiers,
		MaxTiers:              MaxTiers,
		MaxCampaignsPerArtist: MaxCampaignsPerArtist,
	}
}

// Clock supplies the engine's wall-clock reads. Expiry is always evaluated
// lazily against the clock, never stored.
type Clock func() time.Time
