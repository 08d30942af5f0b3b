package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. Events are
// append-only; duplicate IDs (redeliveries) are silently ignored.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append writes a single event to the journal.
func (s *EventStore) Append(ctx context.Context, ev domain.Event) error {
	const query = `
		INSERT INTO events (id, type, campaign, artist, payload, at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("postgres: marshal event payload: %w", err)
	}

	_, err = s.pool.Exec(ctx, query,
		ev.ID, string(ev.Type), campaignKey(ev.Campaign), addrKey(ev.Artist), payload, ev.At,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", ev.ID, err)
	}
	return nil
}

// ListByCampaign returns a campaign's events in chronological order.
func (s *EventStore) ListByCampaign(ctx context.Context, campaign common.Address, opts domain.ListOpts) ([]domain.Event, error) {
	query := `
		SELECT id, type, campaign, artist, payload, at
		FROM events
		WHERE campaign = $1`
	args := []any{campaignKey(campaign)}
	query, args = applyTimeFilter(query, args, opts)
	query += " ORDER BY at ASC"
	query, args = applyWindow(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events for %s: %w", campaign.Hex(), err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// List returns events across all campaigns in chronological order.
func (s *EventStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	query := `
		SELECT id, type, campaign, artist, payload, at
		FROM events
		WHERE 1=1`
	var args []any
	query, args = applyTimeFilter(query, args, opts)
	query += " ORDER BY at ASC"
	query, args = applyWindow(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func applyTimeFilter(query string, args []any, opts domain.ListOpts) (string, []any) {
	if opts.Since != nil {
		args = append(args, *opts.Since)
		query += fmt.Sprintf(" AND at >= $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, *opts.Until)
		query += fmt.Sprintf(" AND at <= $%d", len(args))
	}
	return query, args
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		var typ, campaign, artist string
		var payload []byte

		if err := rows.Scan(&ev.ID, &typ, &campaign, &artist, &payload, &ev.At); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		ev.Type = domain.EventType(typ)
		if campaign != "" {
			ev.Campaign = common.HexToAddress(campaign)
		}
		if artist != "" {
			ev.Artist = common.HexToAddress(artist)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				return nil, fmt.Errorf("postgres: decode event payload: %w", err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// campaignKey stores the zero address (registry-level events) as "".
func campaignKey(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}

func addrKey(addr common.Address) string {
	if addr == (common.Address{}) {
		return ""
	}
	return addr.Hex()
}
