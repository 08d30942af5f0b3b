package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CampaignStatus is the externally visible lifecycle state of a campaign.
// "expired" is derived from timestamps, never stored.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusClosed    CampaignStatus = "closed"
	CampaignStatusExpired   CampaignStatus = "expired"
	CampaignStatusWithdrawn CampaignStatus = "withdrawn"
)

// Tier is a priced reward level. Prices are USDC micro-units (6 decimals)
// and strictly increase by tier id once the campaign starts.
type Tier struct {
	ID    uint8    `json:"id"`
	Price *big.Int `json:"price"`
}

// CampaignSummary is the registry's cached projection of a campaign, kept in
// sync by the campaign's own mutating calls routed through the registry.
type CampaignSummary struct {
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	FeesPercent uint8          `json:"fees_percent"`
	NbTiers     uint8          `json:"nb_tiers"`
	Artist      common.Address `json:"artist"`
	Objectif    *big.Int       `json:"objectif"`
	BoostExpiry time.Time      `json:"boost_expiry"`
	Status      CampaignStatus `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	ClosedAt    time.Time      `json:"closed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsBoosted reports whether the summary's boost is live at the given time.
func (s CampaignSummary) IsBoosted(now time.Time) bool {
	return !s.BoostExpiry.IsZero() && s.BoostExpiry.After(now)
}
