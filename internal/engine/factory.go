package engine

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// Factory mints campaign instances with deterministic addresses derived from
// its own address and a creation nonce, so a handle can be predicted before
// the campaign exists. Only the designated owner contract (the registry) may
// create campaigns; only the deployer may re-point that designation.
type Factory struct {
	mu sync.Mutex

	addr          common.Address
	deployer      common.Address
	ownerContract common.Address
	nonce         uint64

	params Params
	token  domain.TokenLedger
	clock  Clock
	events *Emitter
	logger *slog.Logger
}

// NewFactory builds a factory owned by deployer. The owner contract starts
// unset; campaign creation fails until SetOwnerContractAddr designates one.
func NewFactory(addr, deployer common.Address, params Params, token domain.TokenLedger, clock Clock, events *Emitter, logger *slog.Logger) *Factory {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{
		addr:     addr,
		deployer: deployer,
		params:   params,
		token:    token,
		clock:    clock,
		events:   events,
		logger:   logger,
	}
}

// SetOwnerContractAddr designates the single address allowed to create
// campaigns. Deployer only.
func (f *Factory) SetOwnerContractAddr(ctx context.Context, caller, owner common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if caller != f.deployer {
		return domain.ErrNotOwner
	}
	f.ownerContract = owner

	f.events.Emit(ctx, domain.Event{
		Type: domain.EventOwnerContractSet,
		Payload: map[string]any{
			"owner_contract": owner.Hex(),
		},
	})
	return nil
}

// OwnerContract returns the current designated creator address.
func (f *Factory) OwnerContract() common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownerContract
}

// Address returns the factory's own handle.
func (f *Factory) Address() common.Address { return f.addr }

// CampaignSpec carries the creation-time fields of a campaign. Tier count
// and objectif are fixed for the campaign's lifetime.
type CampaignSpec struct {
	Artist      common.Address
	Name        string
	Description string
	FeesPercent uint8
	NbTiers     uint8
	Objectif    *big.Int
	BaseURI     string
}

// CreateCampaign builds a campaign at the next derived address and bumps the
// nonce. The caller must be the designated owner contract; field validation
// is the registry's job and is not repeated here.
func (f *Factory) CreateCampaign(ctx context.Context, caller common.Address, rewards domain.RewardLedger, spec CampaignSpec) (*Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ownerContract == (common.Address{}) || caller != f.ownerContract {
		return nil, domain.ErrNotOwner
	}

	addr := ethcrypto.CreateAddress(f.addr, f.nonce)
	f.nonce++

	c := &Campaign{
		addr:        addr,
		registry:    f.ownerContract,
		artist:      spec.Artist,
		name:        spec.Name,
		description: spec.Description,
		fees:        spec.FeesPercent,
		nbTiers:     spec.NbTiers,
		baseURI:     spec.BaseURI,
		objectif:    new(big.Int).Set(spec.Objectif),
		prices:      make([]*big.Int, spec.NbTiers),
		createdAt:   f.clock(),
		window:      f.params.FundingWindow,
		priceFloor:  new(big.Int).Set(f.params.PriceFloor),
		token:       f.token,
		rewards:     rewards,
		clock:       f.clock,
		events:      f.events,
		logger:      f.logger,
	}

	f.logger.InfoContext(ctx, "factory: campaign created",
		slog.String("campaign", addr.Hex()),
		slog.String("artist", spec.Artist.Hex()),
		slog.Uint64("nonce", f.nonce-1),
	)

	f.events.Emit(ctx, domain.Event{
		Type:     domain.EventCampaignCreated,
		Campaign: addr,
		Artist:   spec.Artist,
		Payload: map[string]any{
			"name":     spec.Name,
			"nb_tiers": spec.NbTiers,
			"objectif": spec.Objectif.String(),
		},
	})
	return c, nil
}
