package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// CampaignStore implements domain.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *pgxpool.Pool
}

// NewCampaignStore creates a new CampaignStore backed by the given connection pool.
func NewCampaignStore(pool *pgxpool.Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

const campaignColumns = `
	address, name, description, fees_percent, nb_tiers, artist,
	objectif, boost_expiry, status, started_at, closed_at, created_at, updated_at`

// Upsert inserts or updates a single campaign summary.
func (s *CampaignStore) Upsert(ctx context.Context, c domain.CampaignSummary) error {
	const query = `
		INSERT INTO campaigns (
			address, name, description, fees_percent, nb_tiers, artist,
			objectif, boost_expiry, status, started_at, closed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, NOW()
		)
		ON CONFLICT (address) DO UPDATE SET
			name         = EXCLUDED.name,
			description  = EXCLUDED.description,
			fees_percent = EXCLUDED.fees_percent,
			boost_expiry = EXCLUDED.boost_expiry,
			status       = EXCLUDED.status,
			started_at   = EXCLUDED.started_at,
			closed_at    = EXCLUDED.closed_at,
			updated_at   = NOW()`

	_, err := s.pool.Exec(ctx, query,
		c.Address.Hex(), c.Name, c.Description, int16(c.FeesPercent), int16(c.NbTiers),
		c.Artist.Hex(), c.Objectif.String(), nullTime(c.BoostExpiry), string(c.Status),
		nullTime(c.StartedAt), nullTime(c.ClosedAt), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert campaign %s: %w", c.Address.Hex(), err)
	}
	return nil
}

// GetByAddress returns a campaign summary, or domain.ErrNotFound.
func (s *CampaignStore) GetByAddress(ctx context.Context, addr common.Address) (domain.CampaignSummary, error) {
	query := "SELECT" + campaignColumns + " FROM campaigns WHERE address = $1"

	c, err := scanCampaign(s.pool.QueryRow(ctx, query, addr.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CampaignSummary{}, domain.ErrNotFound
		}
		return domain.CampaignSummary{}, fmt.Errorf("postgres: get campaign %s: %w", addr.Hex(), err)
	}
	return c, nil
}

// ListByArtist returns an artist's campaign summaries, oldest first.
func (s *CampaignStore) ListByArtist(ctx context.Context, artist common.Address) ([]domain.CampaignSummary, error) {
	query := "SELECT" + campaignColumns + " FROM campaigns WHERE artist = $1 ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, artist.Hex())
	if err != nil {
		return nil, fmt.Errorf("postgres: list campaigns by artist %s: %w", artist.Hex(), err)
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

// List returns campaign summaries ordered live-boosted first, then newest
// first within each group.
func (s *CampaignStore) List(ctx context.Context, now time.Time, opts domain.ListOpts) ([]domain.CampaignSummary, error) {
	query := "SELECT" + campaignColumns + ` FROM campaigns
		ORDER BY (boost_expiry IS NOT NULL AND boost_expiry > $1) DESC, created_at DESC`
	args := []any{now}
	query, args = applyWindow(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list campaigns: %w", err)
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

// Count returns the total number of campaigns.
func (s *CampaignStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM campaigns").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count campaigns: %w", err)
	}
	return n, nil
}

func collectCampaigns(rows pgx.Rows) ([]domain.CampaignSummary, error) {
	var out []domain.CampaignSummary
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCampaign(row pgx.Row) (domain.CampaignSummary, error) {
	var c domain.CampaignSummary
	var addr, artist, objectif, status string
	var fees, nbTiers int16
	var boostExpiry, startedAt, closedAt *time.Time

	err := row.Scan(
		&addr, &c.Name, &c.Description, &fees, &nbTiers, &artist,
		&objectif, &boostExpiry, &status, &startedAt, &closedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.CampaignSummary{}, err
	}

	c.Address = common.HexToAddress(addr)
	c.Artist = common.HexToAddress(artist)
	c.FeesPercent = uint8(fees)
	c.NbTiers = uint8(nbTiers)
	c.Status = domain.CampaignStatus(status)

	obj, ok := new(big.Int).SetString(objectif, 10)
	if !ok {
		return domain.CampaignSummary{}, fmt.Errorf("invalid objectif %q", objectif)
	}
	c.Objectif = obj

	if boostExpiry != nil {
		c.BoostExpiry = *boostExpiry
	}
	if startedAt != nil {
		c.StartedAt = *startedAt
	}
	if closedAt != nil {
		c.ClosedAt = *closedAt
	}
	return c, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
