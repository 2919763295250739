package devhost

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	svc, err := NewServiceWithStore(context.Background(), cfg, NewMemoryStore(), quietLogger())
	require.NoError(t, err)
	return svc
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	svc := newTestService(t)

	assert.NotNil(t, svc.server)
	assert.Equal(t, svc, svc.server.svc)
	assert.Equal(t, "127.0.0.1:0", svc.server.http.Addr)
}

func TestServer_DeploySwapAndQuery(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	w := do(t, h, "POST", "/api/v1/deploy", schemas.DeployRequest{Deployer: alice, ReserveA: 4, ReserveB: 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, "POST", "/api/v1/fund", schemas.FundRequest{Account: bob, Token: "tokB", Amount: 250_000})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, "POST", "/api/v1/tx", swapTx(bob, 1, "tokB", 250_000))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var receipt schemas.Receipt
	require.NoError(t, json.NewDecoder(w.Body).Decode(&receipt))
	require.Len(t, receipt.Records, 1)
	assert.True(t, receipt.Records[0].OK)
	assert.Equal(t, "2", receipt.Records[0].Data)

	w = do(t, h, "GET", "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var st swap.State
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, uint64(2), st.ReserveA)
	assert.Equal(t, uint64(200_000), st.ReserveB)
	assert.Equal(t, receipt.TxID, st.LastSwapTx)

	w = do(t, h, "GET", "/api/v1/balances/"+bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tokA":2,"tokB":50000}`, w.Body.String())

	w = do(t, h, "GET", "/api/v1/trace/"+receipt.TxID+"/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec schemas.ExecutionRecord
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rec))
	assert.Equal(t, receipt.Records[0], rec)

	w = do(t, h, "GET", "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats SwapStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, DirectionStats{Count: 1, AmountIn: 250_000, AmountOut: 2, Refunded: 50_000}, stats.Swaps["b_to_a"])
}

func TestServer_Errors(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"deploy without deployer", "POST", "/api/v1/deploy", schemas.DeployRequest{ReserveA: 1}, http.StatusBadRequest},
		{"deploy bad json", "POST", "/api/v1/deploy", "{", http.StatusBadRequest},
		{"tx fails schema", "POST", "/api/v1/tx", `{"version":"1.0.0","calls":[]}`, http.StatusBadRequest},
		{"tx initialize", "POST", "/api/v1/tx", `{"version":"1.0.0","caller":"hive:alice","nonce":0,"calls":[{"opcode":0,"args":[1000,0]}]}`, http.StatusBadRequest},
		{"fund zero", "POST", "/api/v1/fund", schemas.FundRequest{Account: bob, Token: "tokA"}, http.StatusBadRequest},
		{"trace unknown", "GET", "/api/v1/trace/abc/0", nil, http.StatusNotFound},
		{"trace bad vout", "GET", "/api/v1/trace/abc/x", nil, http.StatusBadRequest},
		{"wrong method", "GET", "/api/v1/tx", nil, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestServer_DeployTwiceConflicts(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	w := do(t, h, "POST", "/api/v1/deploy", schemas.DeployRequest{Deployer: alice, ReserveA: 1})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/api/v1/deploy", schemas.DeployRequest{Deployer: alice, ReserveA: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_DuplicateTxConflicts(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	w := do(t, h, "POST", "/api/v1/tx", swapTx(bob, 1, "tokA", 1))
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/api/v1/tx", swapTx(bob, 1, "tokA", 1))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	svc := newTestService(t)
	h := svc.Handler()

	w := do(t, h, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "fixed-swap-devhost", health["service"])
	assert.Equal(t, float64(0), health["stream_clients"])

	do(t, h, "POST", "/api/v1/deploy", schemas.DeployRequest{Deployer: alice, ReserveA: 7})
	w = do(t, h, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `fixedswap_calls_total{method="initialize",result="ok"} 1`), body)
	assert.True(t, strings.Contains(body, `fixedswap_reserve{side="a"} 7`), body)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(swap.ErrUnauthorized))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(swap.ErrTokenMismatch))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
