// Package memory provides in-process ledger implementations backing the
// engine's token and reward capabilities. Balances live in maps guarded by
// a mutex; amounts are *big.Int micro-units and every mutation is
// all-or-nothing.
package memory

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fanfare-live/fanfare/internal/domain"
)

// Token is an allowance-tracking fungible ledger with USDC semantics:
// 6-decimal micro-units, owner-granted spending allowances, and a faucet
// for seeding test and demo balances.
type Token struct {
	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int // owner -> spender -> amount
}

// NewToken returns an empty ledger.
func NewToken() *Token {
	return &Token{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Faucet credits amount to addr out of thin air.
func (t *Token) Faucet(addr common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(addr, amount)
}

// Approve grants spender the right to pull up to amount from owner. The
// grant replaces any previous allowance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.allowances[owner]
	if !ok {
		m = make(map[common.Address]*big.Int)
		t.allowances[owner] = m
	}
	m[spender] = new(big.Int).Set(amount)
}

// Allowance returns the remaining grant from owner to spender.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// TransferFrom moves amount from owner to recipient using spender's
// allowance. Allowance and balance are checked before anything mutates.
func (t *Token) TransferFrom(ctx context.Context, spender, owner, recipient common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowances[owner][spender]
	if allowance == nil || allowance.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	if t.balance(owner).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}

	allowance.Sub(allowance, amount)
	t.debit(owner, amount)
	t.credit(recipient, amount)
	return nil
}

// Transfer moves amount from the from account to the recipient.
func (t *Token) Transfer(ctx context.Context, from, recipient common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balance(from).Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	t.debit(from, amount)
	t.credit(recipient, amount)
	return nil
}

// BalanceOf returns addr's current balance.
func (t *Token) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance(addr)), nil
}

func (t *Token) balance(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (t *Token) credit(addr common.Address, amount *big.Int) {
	b, ok := t.balances[addr]
	if !ok {
		b = new(big.Int)
		t.balances[addr] = b
	}
	b.Add(b, amount)
}

func (t *Token) debit(addr common.Address, amount *big.Int) {
	t.balances[addr].Sub(t.balances[addr], amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative or nil amount", domain.ErrValidation)
	}
	return nil
}

var _ domain.TokenLedger = (*Token)(nil)
