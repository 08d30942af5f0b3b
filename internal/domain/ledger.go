package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenLedger is the fungible payment-token capability (USDC-style,
// 6-decimal micro-units). The engine only ever pulls pre-approved funds
// (TransferFrom), pushes funds it custodies (Transfer), and reads balances.
// Approve is caller-initiated and sits outside the engine.
type TokenLedger interface {
	// TransferFrom moves amount from owner to recipient, consuming the
	// allowance owner granted to the caller's account (spender). It fails
	// with ErrInsufficientAllowance or ErrInsufficientBalance.
	TransferFrom(ctx context.Context, spender, owner, recipient common.Address, amount *big.Int) error

	// Transfer moves amount from the from account to the recipient.
	Transfer(ctx context.Context, from, recipient common.Address, amount *big.Int) error

	// BalanceOf returns the current balance of addr.
	BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error)
}

// RewardLedger is the multi-class collectible capability (ERC-1155 style).
// Minting increments a holder's balance for a tier class; the engine never
// burns or transfers rewards.
type RewardLedger interface {
	Mint(ctx context.Context, to common.Address, classID uint8, quantity uint64) error
	BalanceOf(ctx context.Context, addr common.Address, classID uint8) (uint64, error)
}
