package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// Reward is a multi-class collectible ledger: each holder keeps a count per
// class id. The engine only ever mints and reads.
type Reward struct {
	mu       sync.Mutex
	balances map[common.Address]map[uint8]uint64
}

// NewReward returns an empty reward ledger.
func NewReward() *Reward {
	return &Reward{balances: make(map[common.Address]map[uint8]uint64)}
}

// Mint credits quantity units of classID to the holder.
func (r *Reward) Mint(ctx context.Context, to common.Address, classID uint8, quantity uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.balances[to]
	if !ok {
		m = make(map[uint8]uint64)
		r.balances[to] = m
	}
	m[classID] += quantity
	return nil
}

// BalanceOf returns how many units of classID the holder owns.
func (r *Reward) BalanceOf(ctx context.Context, addr common.Address, classID uint8) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[addr][classID], nil
}

var _ domain.RewardLedger = (*Reward)(nil)
