package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies an engine event. The frontend reconstructs campaign
// state from this stream, so names and payload keys are part of the API.
type EventType string

const (
	EventTierPriceSet        EventType = "tier_price_set"
	EventCampaignStarted     EventType = "campaign_started"
	EventCampaignClosed      EventType = "campaign_closed"
	EventCampaignInfoUpdated EventType = "campaign_info_updated"
	EventMint                EventType = "mint"
	EventFundsWithdrawn      EventType = "funds_withdrawn"
	EventBoosted             EventType = "boosted"
	EventArtistCreated       EventType = "artist_created"
	EventCampaignCreated     EventType = "campaign_created"
	EventCampaignAdded       EventType = "campaign_added"
	EventCampaignUpdated     EventType = "campaign_updated"
	EventCampaignBoosted     EventType = "campaign_boosted"
	EventOwnerContractSet    EventType = "owner_contract_updated"
)

// Event is a single engine emission. Campaign is zero for registry-level
// events that concern no single campaign (artist_created, owner updates).
type Event struct {
	ID       string         `json:"id"`
	Type     EventType      `json:"type"`
	Campaign common.Address `json:"campaign"`
	Artist   common.Address `json:"artist"`
	Payload  map[string]any `json:"payload,omitempty"`
	At       time.Time      `json:"at"`
}

// EventsChannel is the pub/sub channel carrying every engine event.
const EventsChannel = "ch:events"

// CampaignChannel returns the per-campaign pub/sub channel for addr.
func CampaignChannel(addr common.Address) string {
	return "ch:campaign:" + addr.Hex()
}
