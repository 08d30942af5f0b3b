package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FANFARE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FANFARE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Platform ──
	setStr(&cfg.Platform.OwnerPrivateKey, "FANFARE_PLATFORM_OWNER_PRIVATE_KEY")
	setStr(&cfg.Platform.EncryptedKeyPath, "FANFARE_PLATFORM_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Platform.KeyPassword, "FANFARE_PLATFORM_KEY_PASSWORD")
	setStr(&cfg.Platform.MetadataBaseURI, "FANFARE_PLATFORM_METADATA_BASE_URI")
	setInt64(&cfg.Platform.BoostFee, "FANFARE_PLATFORM_BOOST_FEE")
	setDuration(&cfg.Platform.BoostDuration, "FANFARE_PLATFORM_BOOST_DURATION")
	setDuration(&cfg.Platform.FundingWindow, "FANFARE_PLATFORM_FUNDING_WINDOW")
	setInt64(&cfg.Platform.ObjectifFloor, "FANFARE_PLATFORM_OBJECTIF_FLOOR")
	setInt64(&cfg.Platform.PriceFloor, "FANFARE_PLATFORM_PRICE_FLOOR")
	setInt(&cfg.Platform.MaxCampaignsPerArtist, "FANFARE_PLATFORM_MAX_CAMPAIGNS_PER_ARTIST")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "FANFARE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "FANFARE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "FANFARE_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "FANFARE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "FANFARE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "FANFARE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "FANFARE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "FANFARE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "FANFARE_POSTGRES_SSLMODE")
	setStr(&cfg.Postgres.SSLMode, "FANFARE_POSTGRES_SSL_MODE") // compatibility alias
	setInt(&cfg.Postgres.PoolMaxConns, "FANFARE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "FANFARE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "FANFARE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "FANFARE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "FANFARE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FANFARE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FANFARE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FANFARE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "FANFARE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "FANFARE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "FANFARE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "FANFARE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FANFARE_S3_REGION")
	setStr(&cfg.S3.Bucket, "FANFARE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FANFARE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FANFARE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FANFARE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FANFARE_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FANFARE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FANFARE_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "FANFARE_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "FANFARE_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "FANFARE_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "FANFARE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FANFARE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FANFARE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FANFARE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "FANFARE_MODE")
	setStr(&cfg.LogLevel, "FANFARE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
