package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/metadata"
)

// CampaignService defines the methods the campaign handler requires from the
// engine registry. It is declared locally so the handler package depends on
// behavior rather than the concrete registry type.
type CampaignService interface {
	CreateNewCampaign(ctx context.Context, caller common.Address, name, description string, feesPercent uint8, artistName, artistBio string, nbTiers uint8, objectif *big.Int, baseURI string) (*engine.Campaign, error)
	Campaign(addr common.Address) (*engine.Campaign, error)
	GetOneCampaign(addr common.Address) (domain.CampaignSummary, bool)
	ListCampaigns(opts domain.ListOpts) []domain.CampaignSummary
	CampaignCount() int

	SetTierPrice(ctx context.Context, caller, campaign common.Address, tierID uint8, price *big.Int) error
	StartCampaign(ctx context.Context, caller, campaign common.Address) error
	CloseCampaign(ctx context.Context, caller, campaign common.Address) error
	Mint(ctx context.Context, caller, campaign common.Address, tierID uint8, quantity uint64) error
	WithdrawCampaign(ctx context.Context, caller, campaign common.Address) (*big.Int, error)
	UpdateCampaignInfo(ctx context.Context, caller, campaign common.Address, name, description string, feesPercent uint8) error
	SetBoost(ctx context.Context, caller, campaign common.Address, payment *big.Int) error
}

// CampaignHandler serves campaign lifecycle HTTP endpoints.
type CampaignHandler struct {
	registry  CampaignService
	events    domain.EventStore    // optional
	publisher *metadata.Publisher  // optional
	logger    *slog.Logger
}

// NewCampaignHandler creates a CampaignHandler. events and publisher may be
// nil; the corresponding features degrade gracefully.
func NewCampaignHandler(registry CampaignService, events domain.EventStore, publisher *metadata.Publisher, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{
		registry:  registry,
		events:    events,
		publisher: publisher,
		logger:    logger,
	}
}

// createCampaignRequest is the body for POST /api/campaigns.
type createCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FeesPercent uint8  `json:"fees_percent"`
	ArtistName  string `json:"artist_name"`
	ArtistBio   string `json:"artist_bio"`
	NbTiers     uint8  `json:"nb_tiers"`
	Objectif    string `json:"objectif"`
	BaseURI     string `json:"base_uri,omitempty"`
}

// listCampaignsResponse wraps the list endpoint output with metadata.
type listCampaignsResponse struct {
	Campaigns []domain.CampaignSummary `json:"campaigns"`
	Total     int                      `json:"total"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

// ListCampaigns returns campaign summaries, boosted first.
// GET /api/campaigns?limit=50&offset=0
func (h *CampaignHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	campaigns := h.registry.ListCampaigns(opts)

	writeJSON(w, http.StatusOK, listCampaignsResponse{
		Campaigns: campaigns,
		Total:     h.registry.CampaignCount(),
		Limit:     opts.Limit,
		Offset:    opts.Offset,
	})
}

// CreateCampaign creates a new campaign for the calling artist.
// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddr(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Caller address")
		return
	}

	var req createCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	objectif, ok := parseAmount(req.Objectif)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid objectif amount")
		return
	}

	campaign, err := h.registry.CreateNewCampaign(r.Context(), caller,
		req.Name, req.Description, req.FeesPercent,
		req.ArtistName, req.ArtistBio, req.NbTiers, objectif, req.BaseURI,
	)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "handler: campaign created",
		slog.String("campaign", campaign.Address().Hex()),
		slog.String("artist", caller.Hex()),
	)
	writeJSON(w, http.StatusCreated, campaign.Summary())
}

// GetCampaign returns a single campaign summary.
// GET /api/campaigns/{addr}
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(r, "addr")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign address")
		return
	}
	summary, ok := h.registry.GetOneCampaign(addr)
	if !ok {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// updateCampaignRequest is the body for PUT /api/campaigns/{addr}.
type updateCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FeesPercent uint8  `json:"fees_percent"`
}

// UpdateCampaign rewrites draft campaign metadata.
// PUT /api/campaigns/{addr}
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	var req updateCampaignRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.registry.UpdateCampaignInfo(r.Context(), caller, addr, req.Name, req.Description, req.FeesPercent); err != nil {
		writeEngineError(w, err)
		return
	}
	summary, _ := h.registry.GetOneCampaign(addr)
	writeJSON(w, http.StatusOK, summary)
}

// tierResponse is one entry of the tiers listing.
type tierResponse struct {
	ID    uint8  `json:"id"`
	Price string `json:"price,omitempty"`
	URI   string `json:"uri"`
}

// ListTiers returns the campaign's tier table with prices and metadata URIs.
// GET /api/campaigns/{addr}/tiers
func (h *CampaignHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(r, "addr")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign address")
		return
	}
	campaign, err := h.registry.Campaign(addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	tiers := make([]tierResponse, 0, campaign.NbTiers())
	for id := uint8(1); id <= campaign.NbTiers(); id++ {
		t := tierResponse{ID: id}
		if price, err := campaign.TierPrice(id); err == nil {
			t.Price = price.String()
		}
		t.URI, _ = campaign.URI(id)
		tiers = append(tiers, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tiers": tiers})
}

// setTierPriceRequest is the body for PUT /api/campaigns/{addr}/tiers/{id}.
type setTierPriceRequest struct {
	Price       string `json:"price"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// SetTierPrice prices one tier of a draft campaign and publishes its metadata
// descriptor when a publisher is configured.
// PUT /api/campaigns/{addr}/tiers/{id}
func (h *CampaignHandler) SetTierPrice(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	tierID, ok := pathTier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid tier id")
		return
	}
	var req setTierPriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	price, ok := parseAmount(req.Price)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid price amount")
		return
	}

	if err := h.registry.SetTierPrice(r.Context(), caller, addr, tierID, price); err != nil {
		writeEngineError(w, err)
		return
	}

	if err := h.publisher.PublishTier(r.Context(), addr, metadata.TierDescriptor{
		Name:        req.Name,
		Description: req.Description,
		Campaign:    addr.Hex(),
		Tier:        tierID,
		Price:       price.String(),
		Image:       req.Image,
	}); err != nil {
		// Metadata publishing is best-effort; the price is already set.
		h.logger.WarnContext(r.Context(), "handler: tier metadata publish failed",
			slog.String("campaign", addr.Hex()),
			slog.Int("tier", int(tierID)),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tier":  tierID,
		"price": price.String(),
	})
}

// StartCampaign opens the funding window.
// POST /api/campaigns/{addr}/start
func (h *CampaignHandler) StartCampaign(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	if err := h.registry.StartCampaign(r.Context(), caller, addr); err != nil {
		writeEngineError(w, err)
		return
	}
	summary, _ := h.registry.GetOneCampaign(addr)
	writeJSON(w, http.StatusOK, summary)
}

// CloseCampaign ends the campaign early.
// POST /api/campaigns/{addr}/close
func (h *CampaignHandler) CloseCampaign(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	if err := h.registry.CloseCampaign(r.Context(), caller, addr); err != nil {
		writeEngineError(w, err)
		return
	}
	summary, _ := h.registry.GetOneCampaign(addr)
	writeJSON(w, http.StatusOK, summary)
}

// mintRequest is the body for POST /api/campaigns/{addr}/mint.
type mintRequest struct {
	Tier     uint8  `json:"tier"`
	Quantity uint64 `json:"quantity"`
}

// Mint sells tier rewards to the caller.
// POST /api/campaigns/{addr}/mint
func (h *CampaignHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.registry.Mint(r.Context(), caller, addr, req.Tier, req.Quantity); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":     req.Tier,
		"quantity": req.Quantity,
	})
}

// WithdrawCampaign sweeps raised funds to the artist.
// POST /api/campaigns/{addr}/withdraw
func (h *CampaignHandler) WithdrawCampaign(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	amount, err := h.registry.WithdrawCampaign(r.Context(), caller, addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount.String()})
}

// boostRequest is the body for POST /api/campaigns/{addr}/boost.
type boostRequest struct {
	Payment string `json:"payment"`
}

// Boost charges the flat boost fee and promotes the campaign.
// POST /api/campaigns/{addr}/boost
func (h *CampaignHandler) Boost(w http.ResponseWriter, r *http.Request) {
	caller, addr, ok := h.callerAndAddr(w, r)
	if !ok {
		return
	}
	var req boostRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payment, ok := parseAmount(req.Payment)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid payment amount")
		return
	}
	if err := h.registry.SetBoost(r.Context(), caller, addr, payment); err != nil {
		writeEngineError(w, err)
		return
	}
	summary, _ := h.registry.GetOneCampaign(addr)
	writeJSON(w, http.StatusOK, summary)
}

// ListEvents returns a campaign's journal entries in chronological order.
// GET /api/campaigns/{addr}/events
func (h *CampaignHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(r, "addr")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign address")
		return
	}
	if h.events == nil {
		writeError(w, http.StatusNotImplemented, "event journal not configured")
		return
	}
	events, err := h.events.ListByCampaign(r.Context(), addr, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list events failed",
			slog.String("campaign", addr.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// callerAndAddr resolves the caller identity and campaign address, writing
// the error response itself on failure.
func (h *CampaignHandler) callerAndAddr(w http.ResponseWriter, r *http.Request) (common.Address, common.Address, bool) {
	caller, ok := callerAddr(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Caller address")
		return common.Address{}, common.Address{}, false
	}
	addr, ok := pathAddr(r, "addr")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid campaign address")
		return common.Address{}, common.Address{}, false
	}
	return caller, addr, true
}
