package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/fanfare-live/fanfare/internal/server"
	"github.com/fanfare-live/fanfare/internal/server/handler"
	"github.com/fanfare-live/fanfare/internal/server/ws"
)

// ServeMode runs the HTTP + WebSocket API on top of the engine. It blocks
// until the context is cancelled or the server fails.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("owner", deps.Owner.Hex()),
	)

	g, ctx := errgroup.WithContext(ctx)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Campaigns: handler.NewCampaignHandler(deps.Registry, deps.EventStore, deps.Publisher, a.logger),
		Artists:   handler.NewArtistHandler(deps.Registry, a.logger),
		Platform:  handler.NewPlatformHandler(deps.Registry, a.logger),
	}

	// WebSocket hub — only useful with a signal bus behind it.
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SeedMode provisions a demonstration campaign end to end: a funded artist, a
// three-tier campaign with an ascending price ladder, and an open funding
// window. It exits once seeding completes.
func (a *App) SeedMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting seed mode")

	// Serialize seeders sharing one Redis so the demo data is created once.
	if deps.LockManager != nil {
		unlock, err := deps.LockManager.Acquire(ctx, "lock:seed", time.Minute)
		if err != nil {
			return fmt.Errorf("seed: acquire lock: %w", err)
		}
		defer unlock()
	}

	artist := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	supporter := common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")

	// Fund and pre-approve both accounts.
	grant := big.NewInt(1_000_000_000) // 1000 USDC
	deps.Token.Faucet(artist, grant)
	deps.Token.Faucet(supporter, grant)

	campaign, err := deps.Registry.CreateNewCampaign(ctx, artist,
		"First Solo Album", "Help record and master a debut solo album.",
		5, "Jane Doe", "Indie multi-instrumentalist from Lyon.",
		4, big.NewInt(150_000_000), a.cfg.Platform.MetadataBaseURI,
	)
	if err != nil {
		return err
	}
	addr := campaign.Address()

	// Pre-approve the campaign and registry as spenders.
	deps.Token.Approve(artist, addr, grant)
	deps.Token.Approve(artist, deps.Registry.Address(), grant)
	deps.Token.Approve(supporter, addr, grant)

	prices := []*big.Int{
		big.NewInt(5_000_000),   // 5 USDC
		big.NewInt(15_000_000),  // 15 USDC
		big.NewInt(50_000_000),  // 50 USDC
		big.NewInt(100_000_000), // 100 USDC
	}
	for i, price := range prices {
		if err := deps.Registry.SetTierPrice(ctx, artist, addr, uint8(i+1), price); err != nil {
			return err
		}
	}

	if err := deps.Registry.StartCampaign(ctx, artist, addr); err != nil {
		return err
	}

	// A couple of demo purchases so listings and balances are non-empty.
	if err := deps.Registry.Mint(ctx, supporter, addr, 1, 2); err != nil {
		return err
	}
	if err := deps.Registry.Mint(ctx, supporter, addr, 3, 1); err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "seed complete",
		slog.String("campaign", addr.Hex()),
		slog.String("artist", artist.Hex()),
		slog.String("supporter", supporter.Hex()),
	)
	return nil
}
