package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// ArtistStore persists the artist directory.
type ArtistStore interface {
	Upsert(ctx context.Context, artist Artist) error
	GetByAddress(ctx context.Context, addr common.Address) (Artist, error)
	List(ctx context.Context, opts ListOpts) ([]Artist, error)
	Count(ctx context.Context) (int64, error)
}

// CampaignStore persists campaign summaries, the queryable projection of
// engine state. The engine remains authoritative; writes here are
// best-effort and repaired on the next mutation.
type CampaignStore interface {
	Upsert(ctx context.Context, summary CampaignSummary) error
	GetByAddress(ctx context.Context, addr common.Address) (CampaignSummary, error)
	ListByArtist(ctx context.Context, artist common.Address) ([]CampaignSummary, error)
	// List returns summaries ordered boosted-first, newest-first.
	List(ctx context.Context, now time.Time, opts ListOpts) ([]CampaignSummary, error)
	Count(ctx context.Context) (int64, error)
}

// EventStore persists the append-only event journal consumed by the
// frontend for state reconstruction.
type EventStore interface {
	Append(ctx context.Context, event Event) error
	ListByCampaign(ctx context.Context, campaign common.Address, opts ListOpts) ([]Event, error)
	List(ctx context.Context, opts ListOpts) ([]Event, error)
}
