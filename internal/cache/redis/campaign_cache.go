package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/fanfare-live/fanfare/internal/domain"
)

const campaignTTL = 5 * time.Minute

// CampaignCache implements domain.CampaignCache using Redis hashes with
// JSON-serialized summaries and a secondary artist index.
//
// Key schema:
//
//	campaign:{addr}        - hash with field "data" containing JSON
//	campaign:artist:{addr} - set of campaign addresses
type CampaignCache struct {
	rdb *redis.Client
}

// NewCampaignCache creates a CampaignCache backed by the given Client.
func NewCampaignCache(c *Client) *CampaignCache {
	return &CampaignCache{rdb: c.Underlying()}
}

func campaignKey(addr common.Address) string       { return "campaign:" + addr.Hex() }
func campaignArtistKey(addr common.Address) string { return "campaign:artist:" + addr.Hex() }

// Set stores a campaign summary with a 5-minute TTL and indexes it under its
// artist.
func (cc *CampaignCache) Set(ctx context.Context, summary domain.CampaignSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("redis: marshal campaign %s: %w", summary.Address.Hex(), err)
	}

	key := campaignKey(summary.Address)

	pipe := cc.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, campaignTTL)
	pipe.SAdd(ctx, campaignArtistKey(summary.Artist), summary.Address.Hex())
	pipe.Expire(ctx, campaignArtistKey(summary.Artist), campaignTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set campaign %s: %w", summary.Address.Hex(), err)
	}
	return nil
}

// Get retrieves a campaign summary by address.
// It returns domain.ErrNotFound when the key does not exist.
func (cc *CampaignCache) Get(ctx context.Context, addr common.Address) (domain.CampaignSummary, error) {
	data, err := cc.rdb.HGet(ctx, campaignKey(addr), "data").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CampaignSummary{}, domain.ErrNotFound
		}
		return domain.CampaignSummary{}, fmt.Errorf("redis: get campaign %s: %w", addr.Hex(), err)
	}

	var summary domain.CampaignSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.CampaignSummary{}, fmt.Errorf("redis: unmarshal campaign %s: %w", addr.Hex(), err)
	}
	return summary, nil
}

// Invalidate removes a campaign summary from the cache.
func (cc *CampaignCache) Invalidate(ctx context.Context, addr common.Address) error {
	if err := cc.rdb.Del(ctx, campaignKey(addr)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate campaign %s: %w", addr.Hex(), err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.CampaignCache = (*CampaignCache)(nil)
