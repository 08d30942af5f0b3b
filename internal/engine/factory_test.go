package engine_test

import (
	"context"
	"math/big"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/domain"
	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/ledger/memory"
)

func TestFactory_OwnerContractGating(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	factory := engine.NewFactory(factoryAddr, deployer, engine.DefaultParams(),
		memory.NewToken(), clock.Now, nil, testLogger())

	spec := engine.CampaignSpec{
		Artist:      artist,
		Name:        "First Solo Album",
		Description: "Help record and master a debut solo album.",
		FeesPercent: 5,
		NbTiers:     3,
		Objectif:    big.NewInt(150_000_000),
		BaseURI:     "https://meta.example/",
	}

	// No owner contract designated yet: nobody may create.
	_, err := factory.CreateCampaign(ctx, registryAddr, memory.NewReward(), spec)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	// Only the deployer may designate.
	assert.ErrorIs(t, factory.SetOwnerContractAddr(ctx, artist, registryAddr), domain.ErrNotOwner)
	require.NoError(t, factory.SetOwnerContractAddr(ctx, deployer, registryAddr))
	assert.Equal(t, registryAddr, factory.OwnerContract())

	// Only the designated owner contract may create.
	_, err = factory.CreateCampaign(ctx, artist, memory.NewReward(), spec)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	c, err := factory.CreateCampaign(ctx, registryAddr, memory.NewReward(), spec)
	require.NoError(t, err)
	assert.Equal(t, artist, c.Artist())
	assert.Equal(t, uint8(3), c.NbTiers())
	assert.Equal(t, domain.CampaignStatusDraft, c.Status())
}

func TestFactory_DeterministicAddresses(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	factory := engine.NewFactory(factoryAddr, deployer, engine.DefaultParams(),
		memory.NewToken(), clock.Now, nil, testLogger())
	require.NoError(t, factory.SetOwnerContractAddr(ctx, deployer, registryAddr))

	spec := engine.CampaignSpec{
		Artist:      artist,
		Name:        "First Solo Album",
		Description: "Help record and master a debut solo album.",
		FeesPercent: 5,
		NbTiers:     1,
		Objectif:    big.NewInt(150_000_000),
		BaseURI:     "https://meta.example/",
	}

	first, err := factory.CreateCampaign(ctx, registryAddr, memory.NewReward(), spec)
	require.NoError(t, err)
	second, err := factory.CreateCampaign(ctx, registryAddr, memory.NewReward(), spec)
	require.NoError(t, err)

	// Handles derive from the factory address and creation nonce, so they
	// are predictable before the campaign exists.
	assert.Equal(t, ethcrypto.CreateAddress(factoryAddr, 0), first.Address())
	assert.Equal(t, ethcrypto.CreateAddress(factoryAddr, 1), second.Address())
	assert.NotEqual(t, first.Address(), second.Address())
}
