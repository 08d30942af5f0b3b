package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/server/handler"
	"github.com/fanfare-live/fanfare/internal/server/middleware"
	"github.com/fanfare-live/fanfare/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per minute per client; 0 disables
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health    *handler.HealthHandler
	Campaigns *handler.CampaignHandler
	Artists   *handler.ArtistHandler
	Platform  *handler.PlatformHandler
}

// Server is the headless HTTP + WebSocket API server for the platform.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (logging, CORS, auth, rate limiting) and attaches
// the WebSocket hub. limiter may be nil, which disables rate limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Campaign endpoints.
	mux.HandleFunc("GET /api/campaigns", handlers.Campaigns.ListCampaigns)
	mux.HandleFunc("POST /api/campaigns", handlers.Campaigns.CreateCampaign)
	mux.HandleFunc("GET /api/campaigns/{addr}", handlers.Campaigns.GetCampaign)
	mux.HandleFunc("PUT /api/campaigns/{addr}", handlers.Campaigns.UpdateCampaign)
	mux.HandleFunc("GET /api/campaigns/{addr}/tiers", handlers.Campaigns.ListTiers)
	mux.HandleFunc("PUT /api/campaigns/{addr}/tiers/{id}", handlers.Campaigns.SetTierPrice)
	mux.HandleFunc("POST /api/campaigns/{addr}/start", handlers.Campaigns.StartCampaign)
	mux.HandleFunc("POST /api/campaigns/{addr}/close", handlers.Campaigns.CloseCampaign)
	mux.HandleFunc("POST /api/campaigns/{addr}/mint", handlers.Campaigns.Mint)
	mux.HandleFunc("POST /api/campaigns/{addr}/withdraw", handlers.Campaigns.WithdrawCampaign)
	mux.HandleFunc("POST /api/campaigns/{addr}/boost", handlers.Campaigns.Boost)
	mux.HandleFunc("GET /api/campaigns/{addr}/events", handlers.Campaigns.ListEvents)

	// Artist directory endpoints.
	mux.HandleFunc("GET /api/artists/{addr}", handlers.Artists.GetArtist)

	// Platform owner endpoints.
	mux.HandleFunc("POST /api/platform/withdraw", handlers.Platform.Withdraw)
	mux.HandleFunc("GET /api/platform/stats", handlers.Platform.Stats)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply per-client rate limiting when a limiter is available.
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, time.Minute)(h)
	}

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully wrapped root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
