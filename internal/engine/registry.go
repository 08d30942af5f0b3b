package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// Registry is the platform's front door: the artist directory, the campaign
// index, and the delegated administration path for every campaign. It is
// also the owner contract the factory trusts, and it custodies boost fees
// until the platform owner sweeps them.
//
// The registry is authoritative in memory. The optional stores and cache
// are write-through projections; their failures are logged and never abort
// an engine mutation.
type Registry struct {
	mu sync.Mutex

	addr  common.Address
	owner common.Address

	factory *Factory
	token   domain.TokenLedger
	rewards domain.RewardLedger

	artists   map[common.Address]*domain.Artist
	campaigns map[common.Address]*Campaign
	order     []common.Address // creation order, oldest first

	artistStore   domain.ArtistStore
	campaignStore domain.CampaignStore
	cache         domain.CampaignCache

	params Params
	clock  Clock
	events *Emitter
	logger *slog.Logger
}

// RegistryOpts carries the optional projection sinks. Any field may be nil.
type RegistryOpts struct {
	ArtistStore   domain.ArtistStore
	CampaignStore domain.CampaignStore
	Cache         domain.CampaignCache
}

// NewRegistry builds the registry and claims the factory's owner-contract
// slot, which requires deployer to be the factory's deployer.
func NewRegistry(ctx context.Context, addr, owner, deployer common.Address, factory *Factory, token domain.TokenLedger, rewards domain.RewardLedger, params Params, clock Clock, events *Emitter, logger *slog.Logger, opts RegistryOpts) (*Registry, error) {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := factory.SetOwnerContractAddr(ctx, deployer, addr); err != nil {
		return nil, fmt.Errorf("registry: claim factory: %w", err)
	}
	return &Registry{
		addr:          addr,
		owner:         owner,
		factory:       factory,
		token:         token,
		rewards:       rewards,
		artists:       make(map[common.Address]*domain.Artist),
		campaigns:     make(map[common.Address]*Campaign),
		artistStore:   opts.ArtistStore,
		campaignStore: opts.CampaignStore,
		cache:         opts.Cache,
		params:        params,
		clock:         clock,
		events:        events,
		logger:        logger,
	}, nil
}

// Address returns the registry's own handle.
func (r *Registry) Address() common.Address { return r.addr }

// CreateNewCampaign validates every creation field, registers the artist on
// first use, and asks the factory for a new campaign. Validation order is
// stable so callers always see the first failing field's reason.
func (r *Registry) CreateNewCampaign(ctx context.Context, caller common.Address, name, description string, feesPercent uint8, artistName, artistBio string, nbTiers uint8, objectif *big.Int, baseURI string) (*Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(description); err != nil {
		return nil, err
	}
	if err := domain.ValidateFees(feesPercent); err != nil {
		return nil, err
	}
	if err := domain.ValidateName(artistName); err != nil {
		return nil, err
	}
	if err := domain.ValidateBio(artistBio); err != nil {
		return nil, err
	}
	if nbTiers < r.params.MinTiers {
		return nil, domain.ErrNotEnoughTiers
	}
	if nbTiers > r.params.MaxTiers {
		return nil, domain.ErrTooManyTiers
	}
	if objectif == nil || objectif.Cmp(r.params.ObjectifFloor) < 0 {
		return nil, domain.ErrObjectifTooLow
	}

	artist, known := r.artists[caller]
	if known && len(artist.Campaigns) >= r.params.MaxCampaignsPerArtist {
		return nil, domain.ErrMaxCampaigns
	}

	campaign, err := r.factory.CreateCampaign(ctx, r.addr, r.rewards, CampaignSpec{
		Artist:      caller,
		Name:        name,
		Description: description,
		FeesPercent: feesPercent,
		NbTiers:     nbTiers,
		Objectif:    objectif,
		BaseURI:     baseURI,
	})
	if err != nil {
		return nil, err
	}

	if !known {
		artist = &domain.Artist{
			Address:     caller,
			Name:        artistName,
			Bio:         artistBio,
			FeesPercent: feesPercent,
			CreatedAt:   r.clock(),
		}
		r.artists[caller] = artist

		r.events.Emit(ctx, domain.Event{
			Type:   domain.EventArtistCreated,
			Artist: caller,
			Payload: map[string]any{
				"name": artistName,
			},
		})
	}
	artist.Campaigns = append(artist.Campaigns, campaign.Address())

	r.campaigns[campaign.Address()] = campaign
	r.order = append(r.order, campaign.Address())

	r.persistArtist(ctx, *artist)
	r.persistCampaign(ctx, campaign.Summary())

	r.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignAdded,
		Campaign: campaign.Address(),
		Artist:   caller,
		Payload: map[string]any{
			"name":   name,
			"artist": artistName,
		},
	})
	return campaign, nil
}

// GetArtist returns the directory entry for addr, or a zero value when the
// address has never created a campaign.
func (r *Registry) GetArtist(addr common.Address) domain.Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.artists[addr]
	if !ok {
		return domain.Artist{Address: addr}
	}
	out := *a
	out.Campaigns = append([]common.Address(nil), a.Campaigns...)
	return out
}

// IsArtist reports whether addr has ever created a campaign.
func (r *Registry) IsArtist(addr common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.artists[addr]
	return ok
}

// GetOneCampaign returns the summary for addr and whether it exists.
func (r *Registry) GetOneCampaign(addr common.Address) (domain.CampaignSummary, bool) {
	r.mu.Lock()
	c, ok := r.campaigns[addr]
	r.mu.Unlock()
	if !ok {
		return domain.CampaignSummary{}, false
	}
	return c.Summary(), true
}

// Campaign returns the live campaign instance for addr.
func (r *Registry) Campaign(addr common.Address) (*Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[addr]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// ListCampaigns returns summaries with boosted campaigns first, then
// newest-first within each group.
func (r *Registry) ListCampaigns(opts domain.ListOpts) []domain.CampaignSummary {
	r.mu.Lock()
	addrs := append([]common.Address(nil), r.order...)
	campaigns := make([]*Campaign, 0, len(addrs))
	for _, a := range addrs {
		campaigns = append(campaigns, r.campaigns[a])
	}
	r.mu.Unlock()

	now := r.clock()
	summaries := make([]domain.CampaignSummary, 0, len(campaigns))
	for _, c := range campaigns {
		summaries = append(summaries, c.Summary())
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		bi, bj := summaries[i].IsBoosted(now), summaries[j].IsBoosted(now)
		if bi != bj {
			return bi
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(summaries) {
			return nil
		}
		summaries = summaries[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(summaries) {
		summaries = summaries[:opts.Limit]
	}
	return summaries
}

// ListByArtist returns the artist's campaign summaries in creation order.
func (r *Registry) ListByArtist(artist common.Address) []domain.CampaignSummary {
	r.mu.Lock()
	a, ok := r.artists[artist]
	var campaigns []*Campaign
	if ok {
		campaigns = make([]*Campaign, 0, len(a.Campaigns))
		for _, addr := range a.Campaigns {
			campaigns = append(campaigns, r.campaigns[addr])
		}
	}
	r.mu.Unlock()

	summaries := make([]domain.CampaignSummary, 0, len(campaigns))
	for _, c := range campaigns {
		summaries = append(summaries, c.Summary())
	}
	return summaries
}

// SetTierPrice forwards to the campaign and refreshes projections.
func (r *Registry) SetTierPrice(ctx context.Context, caller, campaign common.Address, tierID uint8, price *big.Int) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if err := c.SetTierPrice(ctx, caller, tierID, price); err != nil {
		return err
	}
	r.refresh(ctx, c)
	return nil
}

// StartCampaign forwards to the campaign and refreshes projections.
func (r *Registry) StartCampaign(ctx context.Context, caller, campaign common.Address) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if err := c.Start(ctx, caller); err != nil {
		return err
	}
	r.refresh(ctx, c)
	return nil
}

// CloseCampaign forwards to the campaign and refreshes projections.
func (r *Registry) CloseCampaign(ctx context.Context, caller, campaign common.Address) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if err := c.Close(ctx, caller); err != nil {
		return err
	}
	r.refresh(ctx, c)
	return nil
}

// Mint forwards a supporter purchase to the campaign.
func (r *Registry) Mint(ctx context.Context, caller, campaign common.Address, tierID uint8, quantity uint64) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if err := c.Mint(ctx, caller, tierID, quantity); err != nil {
		return err
	}
	r.refresh(ctx, c)
	return nil
}

// WithdrawCampaign forwards the artist's fund sweep to the campaign.
func (r *Registry) WithdrawCampaign(ctx context.Context, caller, campaign common.Address) (*big.Int, error) {
	c, err := r.Campaign(campaign)
	if err != nil {
		return nil, err
	}
	amount, err := c.WithdrawAs(ctx, caller)
	if err != nil {
		return nil, err
	}
	r.refresh(ctx, c)
	return amount, nil
}

// UpdateCampaignInfo rewrites draft campaign metadata on the artist's
// behalf. The registry authenticates the artist and then acts as delegated
// owner on the campaign.
func (r *Registry) UpdateCampaignInfo(ctx context.Context, caller, campaign common.Address, name, description string, feesPercent uint8) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if caller != c.Artist() {
		return domain.ErrNotCampaignArtist
	}
	if err := c.UpdateInfo(ctx, r.addr, name, description, feesPercent); err != nil {
		return err
	}
	r.refresh(ctx, c)

	r.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignUpdated,
		Campaign: campaign,
		Artist:   caller,
	})
	return nil
}

// SetBoost charges the artist the flat boost fee and marks the campaign
// boosted for the configured duration. The fee is pulled from the artist's
// allowance into registry custody; the charge is refunded if the campaign
// rejects the boost.
func (r *Registry) SetBoost(ctx context.Context, caller, campaign common.Address, payment *big.Int) error {
	c, err := r.Campaign(campaign)
	if err != nil {
		return err
	}
	if caller != c.Artist() {
		return domain.ErrNotCampaignArtist
	}
	if payment == nil || payment.Cmp(r.params.BoostFee) != 0 {
		return domain.ErrWrongValue
	}

	if err := r.token.TransferFrom(ctx, r.addr, caller, r.addr, payment); err != nil {
		return fmt.Errorf("registry: boost fee: %w", err)
	}

	expiry := r.clock().Add(r.params.BoostDuration)
	if err := c.SetBoost(ctx, r.addr, expiry); err != nil {
		if refundErr := r.token.Transfer(ctx, r.addr, caller, payment); refundErr != nil {
			r.logger.ErrorContext(ctx, "registry: boost refund failed",
				slog.String("campaign", campaign.Hex()),
				slog.String("artist", caller.Hex()),
				slog.String("error", refundErr.Error()),
			)
		}
		return err
	}
	r.refresh(ctx, c)

	r.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignBoosted,
		Campaign: campaign,
		Artist:   caller,
		Payload: map[string]any{
			"boost_expiry": expiry.UTC(),
			"fee":          payment.String(),
		},
	})
	return nil
}

// Withdraw sweeps the registry's accumulated boost fees to the platform
// owner. Owner only.
func (r *Registry) Withdraw(ctx context.Context, caller common.Address) (*big.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.owner {
		return nil, domain.ErrNotOwner
	}

	balance, err := r.token.BalanceOf(ctx, r.addr)
	if err != nil {
		return nil, fmt.Errorf("registry: read balance: %w", err)
	}
	if balance.Sign() > 0 {
		if err := r.token.Transfer(ctx, r.addr, r.owner, balance); err != nil {
			return nil, fmt.Errorf("registry: owner withdraw: %w", err)
		}
	}

	r.events.Emit(ctx, domain.Event{
		Type:   domain.EventFundsWithdrawn,
		Artist: r.owner,
		Payload: map[string]any{
			"amount": balance.String(),
			"scope":  "platform",
		},
	})
	return balance, nil
}

// ArtistCount returns the number of registered artists.
func (r *Registry) ArtistCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.artists)
}

// CampaignCount returns the number of created campaigns.
func (r *Registry) CampaignCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.campaigns)
}

// refresh pushes the campaign's current summary to the store and cache.
func (r *Registry) refresh(ctx context.Context, c *Campaign) {
	r.persistCampaign(ctx, c.Summary())
}

func (r *Registry) persistCampaign(ctx context.Context, s domain.CampaignSummary) {
	if r.campaignStore != nil {
		if err := r.campaignStore.Upsert(ctx, s); err != nil {
			r.logger.WarnContext(ctx, "registry: campaign upsert failed",
				slog.String("campaign", s.Address.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, s); err != nil {
			r.logger.WarnContext(ctx, "registry: campaign cache set failed",
				slog.String("campaign", s.Address.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (r *Registry) persistArtist(ctx context.Context, a domain.Artist) {
	if r.artistStore == nil {
		return
	}
	if err := r.artistStore.Upsert(ctx, a); err != nil {
		r.logger.WarnContext(ctx, "registry: artist upsert failed",
			slog.String("artist", a.Address.Hex()),
			slog.String("error", err.Error()),
		)
	}
}
