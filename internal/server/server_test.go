package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanfare-live/fanfare/internal/engine"
	"github.com/fanfare-live/fanfare/internal/ledger/memory"
	"github.com/fanfare-live/fanfare/internal/server"
	"github.com/fanfare-live/fanfare/internal/server/handler"
)

var (
	deployer  = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	platform  = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	artist    = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	supporter = common.HexToAddress("0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65")

	factoryAddr  = common.HexToAddress("0x2000000000000000000000000000000000000001")
	registryAddr = common.HexToAddress("0x2000000000000000000000000000000000000002")
)

type testAPI struct {
	handler  http.Handler
	token    *memory.Token
	registry *engine.Registry
}

func newTestAPI(t *testing.T, cfg server.Config) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	token := memory.NewToken()
	rewards := memory.NewReward()
	params := engine.DefaultParams()

	factory := engine.NewFactory(factoryAddr, deployer, params, token, nil, nil, logger)
	registry, err := engine.NewRegistry(context.Background(), registryAddr, platform, deployer,
		factory, token, rewards, params, nil, nil, logger, engine.RegistryOpts{})
	require.NoError(t, err)

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(logger),
		Campaigns: handler.NewCampaignHandler(registry, nil, nil, logger),
		Artists:   handler.NewArtistHandler(registry, logger),
		Platform:  handler.NewPlatformHandler(registry, logger),
	}
	srv := server.NewServer(cfg, handlers, nil, nil, logger)

	return &testAPI{handler: srv.Handler(), token: token, registry: registry}
}

// do issues a request against the wrapped handler chain. caller may be the
// zero address to omit the X-Caller header.
func (a *testAPI) do(t *testing.T, method, path string, caller common.Address, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if caller != (common.Address{}) {
		req.Header.Set("X-Caller", caller.Hex())
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

var createBody = map[string]any{
	"name":         "First Solo Album",
	"description":  "Help record and master a debut solo album.",
	"fees_percent": 5,
	"artist_name":  "Jane Doe",
	"artist_bio":   "Indie multi-instrumentalist from Lyon.",
	"nb_tiers":     2,
	"objectif":     "150000000",
}

func TestAPI_CampaignLifecycle(t *testing.T) {
	api := newTestAPI(t, server.Config{Port: 0})

	rec := api.do(t, http.MethodGet, "/api/health", common.Address{}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/campaigns", artist, createBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	addr := created["address"].(string)
	require.True(t, common.IsHexAddress(addr))

	// Price both tiers, then open the funding window.
	rec = api.do(t, http.MethodPut, "/api/campaigns/"+addr+"/tiers/1", artist,
		map[string]any{"price": "5000000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPut, "/api/campaigns/"+addr+"/tiers/2", artist,
		map[string]any{"price": "15000000"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/start", artist, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	started := decode[map[string]any](t, rec)
	assert.Equal(t, "active", started["status"])

	// A funded supporter buys two units of tier 2.
	campaign := common.HexToAddress(addr)
	api.token.Faucet(supporter, big.NewInt(100_000_000))
	api.token.Approve(supporter, campaign, big.NewInt(100_000_000))

	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/mint", supporter,
		map[string]any{"tier": 2, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/campaigns/"+addr+"/tiers", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tiers := decode[map[string][]map[string]any](t, rec)
	require.Len(t, tiers["tiers"], 2)
	assert.Equal(t, "5000000", tiers["tiers"][0]["price"])

	rec = api.do(t, http.MethodGet, "/api/campaigns", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), list["total"])

	rec = api.do(t, http.MethodGet, "/api/artists/"+artist.Hex(), common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dir := decode[map[string]any](t, rec)
	assert.Equal(t, true, dir["registered"])
	assert.Equal(t, "Jane Doe", dir["name"])

	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/close", artist, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/withdraw", artist, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	withdrawn := decode[map[string]any](t, rec)
	assert.Equal(t, "30000000", withdrawn["amount"])
}

func TestAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI(t, server.Config{Port: 0})

	// Validation failures map to 400.
	bad := map[string]any{}
	for k, v := range createBody {
		bad[k] = v
	}
	bad["fees_percent"] = 3
	rec := api.do(t, http.MethodPost, "/api/campaigns", artist, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing caller identity is a 400 before the engine is reached.
	rec = api.do(t, http.MethodPost, "/api/campaigns", common.Address{}, createBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown campaign maps to 404.
	rec = api.do(t, http.MethodGet, "/api/campaigns/0x00000000000000000000000000000000000000aa", common.Address{}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/campaigns", artist, createBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	addr := decode[map[string]any](t, rec)["address"].(string)

	// Unauthorized caller maps to 403.
	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/start", supporter, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Invalid lifecycle state maps to 409.
	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/mint", supporter,
		map[string]any{"tier": 1, "quantity": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Price, start, then mint without funds: 402.
	rec = api.do(t, http.MethodPut, "/api/campaigns/"+addr+"/tiers/1", artist,
		map[string]any{"price": "5000000"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPut, "/api/campaigns/"+addr+"/tiers/2", artist,
		map[string]any{"price": "15000000"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/start", artist, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/campaigns/"+addr+"/mint", supporter,
		map[string]any{"tier": 1, "quantity": 1})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	// Event journal not configured: 501.
	rec = api.do(t, http.MethodGet, "/api/campaigns/"+addr+"/events", common.Address{}, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestAPI_PlatformEndpoints(t *testing.T) {
	api := newTestAPI(t, server.Config{Port: 0})

	rec := api.do(t, http.MethodPost, "/api/campaigns", artist, createBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/platform/stats", common.Address{}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), stats["campaigns"])
	assert.Equal(t, float64(1), stats["artists"])

	// Only the platform owner may sweep.
	rec = api.do(t, http.MethodPost, "/api/platform/withdraw", artist, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(t, http.MethodPost, "/api/platform/withdraw", platform, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_AuthMiddleware(t *testing.T) {
	api := newTestAPI(t, server.Config{Port: 0, APIKey: "hunter2"})

	req := httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer hunter2")
	rec = httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
