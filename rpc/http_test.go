package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stableamm/config"
	"stableamm/core"
	"stableamm/gateway/middleware"
	"stableamm/observability/eventlog"
	"stableamm/storage"
)

const testSecret = "rpc-test-secret"

var (
	adminAddr    = common.HexToAddress("0x00000000000000000000000000000000000000ad")
	aliceAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	treasuryAddr = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

type testEnv struct {
	server *httptest.Server
	node   *core.Node
	sink   *eventlog.Sink
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	sink, err := eventlog.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	node, err := core.NewNode(storage.NewMemDB(), core.WithEmitter(sink), core.WithNowFunc(func() int64 { return 1_000_000 }))
	require.NoError(t, err)
	genesis := &config.Genesis{
		Admins:           []string{adminAddr.Hex()},
		PooledCurrencies: []string{"DAI", "USDC", "USDT"},
		LpCurrencies:     []string{"3POOL", "2POOL"},
		Balances: []config.GenesisBalance{
			{Account: aliceAddr.Hex(), Currency: "DAI", Amount: "1000000000000000000000"},
			{Account: aliceAddr.Hex(), Currency: "USDC", Amount: "1000000000"},
			{Account: aliceAddr.Hex(), Currency: "USDT", Amount: "1000000000"},
		},
		Pools: []config.GenesisPool{{
			Currencies:       []string{"DAI", "USDC", "USDT"},
			Decimals:         []uint8{18, 6, 6},
			LpCurrency:       "3POOL",
			A:                100,
			Fee:              4_000_000,
			AdminFee:         5_000_000_000,
			AdminFeeReceiver: treasuryAddr.Hex(),
			LpSymbol:         "3CRV",
			LpDecimals:       18,
		}},
	}
	require.NoError(t, node.ApplyGenesis(context.Background(), genesis))

	srv := NewServer(node, Options{
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{HMACSecret: testSecret}, nil),
		RateLimiter:   middleware.NewRateLimiter(map[string]middleware.RateLimit{"rpc": {RequestsPerMinute: 6000, Burst: 1000}}, nil),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{}, nil),
		EventLog:      sink,
	})
	server := httptest.NewServer(srv.Router())
	t.Cleanup(server.Close)
	return &testEnv{server: server, node: node, sink: sink}
}

func tokenFor(t *testing.T, who common.Address, scope string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   who.Hex(),
		"exp":   time.Now().Add(time.Hour).Unix(),
		"scope": scope,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

type rpcResult struct {
	status int
	body   RPCResponse
	raw    json.RawMessage
}

func (e *testEnv) call(t *testing.T, token, method string, params interface{}) rpcResult {
	t.Helper()
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/rpc", bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var envelope struct {
		RPCResponse
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	return rpcResult{status: res.StatusCode, body: envelope.RPCResponse, raw: envelope.Result}
}

func decode[T any](t *testing.T, res rpcResult) T {
	t.Helper()
	require.Nil(t, res.body.Error, "unexpected error: %+v", res.body.Error)
	var out T
	require.NoError(t, json.Unmarshal(res.raw, &out))
	return out
}

func addLiquidity(t *testing.T, env *testEnv) {
	t.Helper()
	res := env.call(t, tokenFor(t, aliceAddr, scopeOperate), "stableamm_addLiquidity", map[string]interface{}{
		"poolId":  0,
		"amounts": []string{"100000000000000000000", "100000000", "100000000"},
	})
	require.Equal(t, http.StatusOK, res.status)
	minted := decode[map[string]string](t, res)
	require.Equal(t, "300000000000000000000", minted["minted"])
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.server.Client().Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	env.call(t, "", "stableamm_height", nil)

	res, err = env.server.Client().Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "stableamm_rpc_requests_total")
	require.Contains(t, string(body), "stableamm_block_height")
}

func TestQueryPool(t *testing.T) {
	env := newTestEnv(t)

	pool := decode[PoolResult](t, env.call(t, "", "stableamm_getPool", map[string]interface{}{"poolId": 0}))
	require.Equal(t, []string{"DAI", "USDC", "USDT"}, pool.Currencies)
	require.Equal(t, []string{"1", "1000000000000", "1000000000000"}, pool.Multipliers)
	require.Equal(t, uint64(10_000), pool.FutureA)
	require.Equal(t, treasuryAddr.Hex(), pool.AdminFeeReceiver)

	a := decode[map[string]uint64](t, env.call(t, "", "stableamm_getA", map[string]interface{}{"poolId": 0}))
	require.Equal(t, uint64(100), a["a"])
	require.Equal(t, uint64(10_000), a["aPrecise"])

	byLp := decode[map[string]uint32](t, env.call(t, "", "stableamm_getPoolByLpCurrency", map[string]interface{}{"lpCurrency": "3POOL"}))
	require.Equal(t, uint32(0), byLp["poolId"])

	vp := decode[map[string]string](t, env.call(t, "", "stableamm_virtualPrice", map[string]interface{}{"poolId": 0}))
	require.Equal(t, "0", vp["virtualPrice"])

	missing := env.call(t, "", "stableamm_getPool", map[string]interface{}{"poolId": 7})
	require.Equal(t, http.StatusNotFound, missing.status)
	require.Equal(t, codeOperationFailed, missing.body.Error.Code)
}

func TestSwapFlow(t *testing.T) {
	env := newTestEnv(t)
	addLiquidity(t, env)

	quote := decode[map[string]string](t, env.call(t, "", "stableamm_calculateSwap", map[string]interface{}{
		"poolId": 0, "in": 1, "out": 2, "inAmount": "10000000",
	}))
	require.Equal(t, "9986015", quote["outAmount"])

	swap := decode[map[string]string](t, env.call(t, tokenFor(t, aliceAddr, scopeOperate), "stableamm_swap", map[string]interface{}{
		"poolId": 0, "in": 1, "out": 2, "inAmount": "10000000", "minOutAmount": "9986015",
	}))
	require.Equal(t, "9986015", swap["outAmount"])
	require.Equal(t, "3996", swap["fee"])
	require.Equal(t, "1998", swap["adminFee"])

	bal := decode[map[string]string](t, env.call(t, "", "stableamm_getBalance", map[string]interface{}{
		"account": aliceAddr.Hex(), "currency": "USDT",
	}))
	require.Equal(t, "909986015", bal["balance"])

	admin := decode[map[string][]string](t, env.call(t, "", "stableamm_adminBalances", map[string]interface{}{"poolId": 0}))
	require.Equal(t, []string{"0", "0", "1998"}, admin["balances"])

	vp := decode[map[string]string](t, env.call(t, "", "stableamm_virtualPrice", map[string]interface{}{"poolId": 0}))
	require.Equal(t, "1000006667459207787", vp["virtualPrice"])

	events := decode[map[string][]EventResult](t, env.call(t, "", "stableamm_events", map[string]interface{}{"type": "stableamm.swap"}))
	require.Len(t, events["events"], 1)
	require.Equal(t, "9986015", events["events"][0].Attributes["outAmount"])

	height := decode[map[string]uint64](t, env.call(t, "", "stableamm_height", nil))
	require.Equal(t, uint64(3), height["height"])
}

func TestSlippageSurfacesReason(t *testing.T) {
	env := newTestEnv(t)
	addLiquidity(t, env)

	res := env.call(t, tokenFor(t, aliceAddr, scopeOperate), "stableamm_swap", map[string]interface{}{
		"poolId": 0, "in": 1, "out": 2, "inAmount": "10000000", "minOutAmount": "9986016",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	require.Equal(t, codeOperationFailed, res.body.Error.Code)
	require.Equal(t, map[string]interface{}{"reason": "amount_slippage"}, res.body.Error.Data)

	height := decode[map[string]uint64](t, env.call(t, "", "stableamm_height", nil))
	require.Equal(t, uint64(2), height["height"])
}

func TestWriteMethodsRequireToken(t *testing.T) {
	env := newTestEnv(t)
	params := map[string]interface{}{"poolId": 0, "amounts": []string{"1", "1", "1"}}

	res := env.call(t, "", "stableamm_addLiquidity", params)
	require.Equal(t, http.StatusUnauthorized, res.status)
	require.Equal(t, codeUnauthorized, res.body.Error.Code)

	res = env.call(t, tokenFor(t, aliceAddr, "pools:read"), "stableamm_addLiquidity", params)
	require.Equal(t, http.StatusForbidden, res.status)

	res = env.call(t, "not-a-jwt", "stableamm_addLiquidity", params)
	require.Equal(t, http.StatusUnauthorized, res.status)
}

func TestAdminMethods(t *testing.T) {
	env := newTestEnv(t)

	res := env.call(t, tokenFor(t, aliceAddr, scopeOperate), "stableamm_setFee", map[string]interface{}{"poolId": 0, "fee": 1, "adminFee": 0})
	require.Equal(t, http.StatusForbidden, res.status)

	adminToken := tokenFor(t, adminAddr, scopeOperate)
	decode[map[string]bool](t, env.call(t, adminToken, "stableamm_setFee", map[string]interface{}{"poolId": 0, "fee": 1_000_000, "adminFee": 0}))
	pool := decode[PoolResult](t, env.call(t, "", "stableamm_getPool", map[string]interface{}{"poolId": 0}))
	require.Equal(t, uint64(1_000_000), pool.Fee)

	created := decode[map[string]uint32](t, env.call(t, adminToken, "stableamm_createPool", map[string]interface{}{
		"currencies": []string{"DAI", "USDC"}, "decimals": []int{18, 6}, "lpCurrency": "2POOL",
		"a": 200, "fee": 4_000_000, "adminFee": 0, "lpCurrencySymbol": "2CRV", "lpCurrencyDecimal": 18,
	}))
	require.Equal(t, uint32(1), created["poolId"])
	count := decode[map[string]uint64](t, env.call(t, "", "stableamm_poolCount", nil))
	require.Equal(t, uint64(2), count["count"])

	res = env.call(t, adminToken, "stableamm_stopRampA", map[string]interface{}{"poolId": 0})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	require.Equal(t, map[string]interface{}{"reason": "already_stopped_ramp_a"}, res.body.Error.Data)

	swept := decode[map[string][]string](t, env.call(t, adminToken, "stableamm_withdrawAdminFee", map[string]interface{}{"poolId": 0}))
	require.Equal(t, []string{"0", "0", "0"}, swept["amounts"])
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t)

	res := env.call(t, "", "stableamm_unknown", nil)
	require.Equal(t, http.StatusNotFound, res.status)
	require.Equal(t, codeMethodNotFound, res.body.Error.Code)

	res = env.call(t, "", "stableamm_calculateSwap", map[string]interface{}{"poolId": 0, "in": 0, "out": 1, "inAmount": "-5"})
	require.Equal(t, http.StatusBadRequest, res.status)
	require.Equal(t, codeInvalidParams, res.body.Error.Code)

	res = env.call(t, "", "stableamm_getPool", map[string]interface{}{"poolId": 0, "extra": true})
	require.Equal(t, http.StatusBadRequest, res.status)

	res = env.call(t, "", "stableamm_getPool", nil)
	require.Equal(t, http.StatusBadRequest, res.status)

	resp, err := env.server.Client().Post(env.server.URL+"/rpc", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
