package handler

import (
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// ArtistService defines the directory methods the artist handler needs.
type ArtistService interface {
	GetArtist(addr common.Address) domain.Artist
	IsArtist(addr common.Address) bool
	ListByArtist(artist common.Address) []domain.CampaignSummary
	ArtistCount() int
}

// ArtistHandler serves artist directory HTTP endpoints.
type ArtistHandler struct {
	registry ArtistService
	logger   *slog.Logger
}

// NewArtistHandler creates an ArtistHandler with the given registry and logger.
func NewArtistHandler(registry ArtistService, logger *slog.Logger) *ArtistHandler {
	return &ArtistHandler{registry: registry, logger: logger}
}

// artistResponse is the artist lookup output. Lookups for unknown addresses
// return registered=false with a zero-valued profile, mirroring the engine.
type artistResponse struct {
	Address     string                   `json:"address"`
	Registered  bool                     `json:"registered"`
	Name        string                   `json:"name,omitempty"`
	Bio         string                   `json:"bio,omitempty"`
	FeesPercent uint8                    `json:"fees_percent"`
	Campaigns   []domain.CampaignSummary `json:"campaigns"`
}

// GetArtist returns the directory entry and campaigns for an address.
// GET /api/artists/{addr}
func (h *ArtistHandler) GetArtist(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddr(r, "addr")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid artist address")
		return
	}

	artist := h.registry.GetArtist(addr)
	resp := artistResponse{
		Address:     addr.Hex(),
		Registered:  h.registry.IsArtist(addr),
		Name:        artist.Name,
		Bio:         artist.Bio,
		FeesPercent: artist.FeesPercent,
		Campaigns:   h.registry.ListByArtist(addr),
	}
	if resp.Campaigns == nil {
		resp.Campaigns = []domain.CampaignSummary{}
	}
	writeJSON(w, http.StatusOK, resp)
}
