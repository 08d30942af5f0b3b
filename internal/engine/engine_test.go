package engine_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/ledger/memory"
)

var (
	deployer  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	platform  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	artist    = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	artist2   = common.HexToAddress("0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc")
	supporter = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")

	factoryAddr  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	registryAddr = common.HexToAddress("0x1000000000000000000000000000000000000002")
)

// fakeClock is a hand-advanced clock so expiry paths are deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	clock    *fakeClock
	token    *memory.Token
	rewards  *memory.Reward
	factory  *engine.Factory
	registry *engine.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, engine.DefaultParams(), memory.NewReward())
}

func newFixtureWith(t *testing.T, params engine.Params, rewards domain.RewardLedger) *fixture {
	t.Helper()

	clock := newFakeClock()
	token := memory.NewToken()
	logger := testLogger()

	factory := engine.NewFactory(factoryAddr, deployer, params, token, clock.Now, nil, logger)
	registry, err := engine.NewRegistry(context.Background(), registryAddr, platform, deployer,
		factory, token, rewards, params, clock.Now, nil, logger, engine.RegistryOpts{})
	require.NoError(t, err)

	f := &fixture{
		clock:    clock,
		token:    token,
		factory:  factory,
		registry: registry,
	}
	if mem, ok := rewards.(*memory.Reward); ok {
		f.rewards = mem
	}
	return f
}

// create provisions a 3-tier campaign for artist with the usual demo fields.
func (f *fixture) create(t *testing.T) *engine.Campaign {
	t.Helper()
	c, err := f.registry.CreateNewCampaign(context.Background(), artist,
		"First Solo Album", "Help record and master a debut solo album.", 5,
		"Jane Doe", "Indie multi-instrumentalist from Lyon.", 3,
		big.NewInt(150_000_000), "https://metadata.fanfare.live/")
	require.NoError(t, err)
	return c
}

// priceAndStart sets the 5/15/50 USDC ladder and opens the funding window.
func (f *fixture) priceAndStart(t *testing.T, c *engine.Campaign) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.SetTierPrice(ctx, artist, 1, usdc(5)))
	require.NoError(t, c.SetTierPrice(ctx, artist, 2, usdc(15)))
	require.NoError(t, c.SetTierPrice(ctx, artist, 3, usdc(50)))
	require.NoError(t, c.Start(ctx, artist))
}

// fund gives addr a token balance and approves spender for the full amount.
func (f *fixture) fund(addr, spender common.Address, amount *big.Int) {
	f.token.Faucet(addr, amount)
	f.token.Approve(addr, spender, amount)
}

func usdc(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), big.NewInt(1_000_000))
}

func (f *fixture) balance(t *testing.T, addr common.Address) *big.Int {
	t.Helper()
	b, err := f.token.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return b
}

// failingRewards rejects every mint, for exercising the payment rollback.
type failingRewards struct{}

func (failingRewards) Mint(ctx context.Context, to common.Address, classID uint8, quantity uint64) error {
	return errors.New("reward ledger unavailable")
}

func (failingRewards) BalanceOf(ctx context.Context, addr common.Address, classID uint8) (uint64, error) {
	return 0, nil
}
