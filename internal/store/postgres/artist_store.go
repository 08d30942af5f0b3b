package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// ArtistStore implements domain.ArtistStore using PostgreSQL.
type ArtistStore struct {
	pool *pgxpool.Pool
}

// NewArtistStore creates a new ArtistStore backed by the given connection pool.
func NewArtistStore(pool *pgxpool.Pool) *ArtistStore {
	return &ArtistStore{pool: pool}
}

// Upsert inserts or updates a single artist record.
func (s *ArtistStore) Upsert(ctx context.Context, a domain.Artist) error {
	const query = `
		INSERT INTO artists (
			address, name, bio, fees_percent, campaigns, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)
		ON CONFLICT (address) DO UPDATE SET
			name         = EXCLUDED.name,
			bio          = EXCLUDED.bio,
			fees_percent = EXCLUDED.fees_percent,
			campaigns    = EXCLUDED.campaigns,
			updated_at   = NOW()`

	campaigns := make([]string, len(a.Campaigns))
	for i, c := range a.Campaigns {
		campaigns[i] = c.Hex()
	}

	_, err := s.pool.Exec(ctx, query,
		a.Address.Hex(), a.Name, a.Bio, int16(a.FeesPercent), campaigns, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert artist %s: %w", a.Address.Hex(), err)
	}
	return nil
}

// GetByAddress returns the artist record for addr, or domain.ErrNotFound.
func (s *ArtistStore) GetByAddress(ctx context.Context, addr common.Address) (domain.Artist, error) {
	const query = `
		SELECT address, name, bio, fees_percent, campaigns, created_at
		FROM artists
		WHERE address = $1`

	a, err := scanArtist(s.pool.QueryRow(ctx, query, addr.Hex()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Artist{}, domain.ErrNotFound
		}
		return domain.Artist{}, fmt.Errorf("postgres: get artist %s: %w", addr.Hex(), err)
	}
	return a, nil
}

// List returns artists ordered by registration time, newest first.
func (s *ArtistStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Artist, error) {
	query := `
		SELECT address, name, bio, fees_percent, campaigns, created_at
		FROM artists
		ORDER BY created_at DESC`
	query, args := applyWindow(query, nil, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list artists: %w", err)
	}
	defer rows.Close()

	var out []domain.Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan artist: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Count returns the total number of registered artists.
func (s *ArtistStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM artists").Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count artists: %w", err)
	}
	return n, nil
}

func scanArtist(row pgx.Row) (domain.Artist, error) {
	var a domain.Artist
	var addr string
	var fees int16
	var campaigns []string

	if err := row.Scan(&addr, &a.Name, &a.Bio, &fees, &campaigns, &a.CreatedAt); err != nil {
		return domain.Artist{}, err
	}
	a.Address = common.HexToAddress(addr)
	a.FeesPercent = uint8(fees)
	a.Campaigns = make([]common.Address, len(campaigns))
	for i, c := range campaigns {
		a.Campaigns[i] = common.HexToAddress(c)
	}
	return a, nil
}

// applyWindow appends LIMIT/OFFSET clauses derived from opts and returns the
// extended query plus its argument list. Existing args pass through so the
// placeholder numbering stays correct.
func applyWindow(query string, args []any, opts domain.ListOpts) (string, []any) {
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
