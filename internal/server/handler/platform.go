package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// PlatformService defines the owner-level operations the platform handler
// forwards to the registry.
type PlatformService interface {
	Withdraw(ctx context.Context, caller common.Address) (*big.Int, error)
	ArtistCount() int
	CampaignCount() int
}

// PlatformHandler serves platform-owner HTTP endpoints.
type PlatformHandler struct {
	registry PlatformService
	logger   *slog.Logger
}

// NewPlatformHandler creates a PlatformHandler with the given registry and logger.
func NewPlatformHandler(registry PlatformService, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{registry: registry, logger: logger}
}

// Withdraw sweeps accumulated boost fees to the platform owner.
// POST /api/platform/withdraw
func (h *PlatformHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerAddr(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or invalid X-Caller address")
		return
	}
	amount, err := h.registry.Withdraw(r.Context(), caller)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "handler: platform withdraw",
		slog.String("owner", caller.Hex()),
		slog.String("amount", amount.String()),
	)
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount.String()})
}

// Stats returns platform-level counters.
// GET /api/platform/stats
func (h *PlatformHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"artists":   h.registry.ArtistCount(),
		"campaigns": h.registry.CampaignCount(),
	})
}
