package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	s3blob "github.com/fanfare-live/fanfare/internal/blob/s3"
	"github.com/fanfare-live/fanfare/internal/cache/redis"
	"github.com/fanfare-live/fanfare/internal/config"
	fancrypto "github.com/fanfare-live/fanfare/internal/crypto"
	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/ledger/memory"
	"github.com/fanfare-live/fanfare/internal/metadata"
	"github.com/fanfare-live/fanfare/internal/notify"
	"github.com/fanfare-live/fanfare/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Engine
	Owner    common.Address
	Token    *memory.Token
	Rewards  *memory.Reward
	Factory  *engine.Factory
	Registry *engine.Registry
	Emitter  *engine.Emitter

	// Stores
	ArtistStore   domain.ArtistStore
	CampaignStore domain.CampaignStore
	EventStore    domain.EventStore

	// Caches
	CampaignCache domain.CampaignCache
	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	Publisher  *metadata.Publisher

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL projections (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.ArtistStore = postgres.NewArtistStore(pool)
		deps.CampaignStore = postgres.NewCampaignStore(pool)
		deps.EventStore = postgres.NewEventStore(pool)
	}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.CampaignCache = redis.NewCampaignCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- S3 metadata publishing (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Publisher = metadata.NewPublisher(deps.BlobWriter, cfg.Platform.MetadataBaseURI, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Owner identity ---
	owner, err := resolveOwner(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: owner key: %w", err)
	}
	deps.Owner = owner

	// --- Engine ---
	deps.Emitter = engine.NewEmitter(deps.SignalBus, deps.EventStore, logger)
	if len(senders) > 0 {
		deps.Emitter.WithAlerter(deps.Notifier)
	}

	deps.Token = memory.NewToken()
	deps.Rewards = memory.NewReward()

	params := engine.Params{
		FundingWindow:         cfg.Platform.FundingWindow.Duration,
		BoostDuration:         cfg.Platform.BoostDuration.Duration,
		BoostFee:              cfg.Platform.BoostFeeAmount(),
		PriceFloor:            cfg.Platform.PriceFloorAmount(),
		ObjectifFloor:         cfg.Platform.ObjectifFloorAmount(),
		MinTiers:              engine.MinTiers,
		MaxTiers:              engine.MaxTiers,
		MaxCampaignsPerArtist: cfg.Platform.MaxCampaignsPerArtist,
	}

	deps.Factory = engine.NewFactory(
		serviceAddress("fanfare/factory"), owner, params,
		deps.Token, time.Now, deps.Emitter, logger,
	)

	registry, err := engine.NewRegistry(ctx,
		serviceAddress("fanfare/registry"), owner, owner,
		deps.Factory, deps.Token, deps.Rewards, params, time.Now, deps.Emitter, logger,
		engine.RegistryOpts{
			ArtistStore:   deps.ArtistStore,
			CampaignStore: deps.CampaignStore,
			Cache:         deps.CampaignCache,
		},
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: registry: %w", err)
	}
	deps.Registry = registry

	return deps, cleanup, nil
}

// resolveOwner loads the platform owner key from config and derives its
// address. When no key source is configured the owner falls back to a
// deterministic service address, which still gates owner-only operations.
func resolveOwner(cfg *config.Config) (common.Address, error) {
	if cfg.Platform.OwnerPrivateKey == "" && cfg.Platform.EncryptedKeyPath == "" {
		return serviceAddress("fanfare/owner"), nil
	}
	key, err := fancrypto.LoadKey(fancrypto.KeyConfig{
		RawPrivateKey:    cfg.Platform.OwnerPrivateKey,
		EncryptedKeyPath: cfg.Platform.EncryptedKeyPath,
		KeyPassword:      cfg.Platform.KeyPassword,
	})
	if err != nil {
		return common.Address{}, err
	}
	return fancrypto.AddressFromKey(key)
}

// serviceAddress derives a stable address for a platform-internal account
// from its name.
func serviceAddress(name string) common.Address {
	return common.BytesToAddress(ethcrypto.Keccak256([]byte(name))[12:])
}
