package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
	fixedswap "github.com/vsc-eco/vsc-fixed-swap/sdk/go"
	"github.com/vsc-eco/vsc-fixed-swap/services/devhost"
)

const (
	deployer = "hive:deployer"
	trader   = "hive:trader"
)

type TestEnvironment struct {
	endpoint string
	client   *fixedswap.Client
	stream   *websocket.Conn
	cleanup  func()
}

func TestFullSwapFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	env := setupTestEnvironment(t, ctx)
	defer env.cleanup()

	var swapTx string

	t.Run("Deploy", func(t *testing.T) {
		receipt, err := env.client.Deploy(ctx, schemas.DeployRequest{Deployer: deployer, ReserveA: 10, ReserveB: 1_000_000})
		require.NoError(t, err, "Contract deployment failed")
		require.Len(t, receipt.Records, 1)
		assert.True(t, receipt.Records[0].OK)

		rec := nextRecord(t, env.stream)
		assert.Equal(t, "initialize", rec.Method)
	})

	t.Run("FundTrader", func(t *testing.T) {
		bal, err := env.client.Fund(ctx, schemas.FundRequest{Account: trader, Token: "tokB", Amount: 750_000})
		require.NoError(t, err)
		assert.Equal(t, uint64(750_000), bal)
		_, err = env.client.Fund(ctx, schemas.FundRequest{Account: trader, Token: "tokA", Amount: 3})
		require.NoError(t, err)
	})

	t.Run("SwapBToAWithDust", func(t *testing.T) {
		rec, err := env.client.Call(ctx, trader, 1, schemas.Call{
			Opcode:    uint64(swap.OpSwap),
			Transfers: []schemas.Transfer{{Token: "tokB", Amount: 250_000}},
		})
		require.NoError(t, err, "Swap execution failed")
		assert.Equal(t, "2", rec.Data)
		assert.ElementsMatch(t, []schemas.Payout{
			{Token: "tokA", Amount: 2, Recipient: trader},
			{Token: "tokB", Amount: 50_000, Recipient: trader},
		}, rec.Payouts)
		swapTx = rec.TxID

		streamed := nextRecord(t, env.stream)
		assert.Equal(t, rec.TxID, streamed.TxID)
	})

	t.Run("SwapAToB", func(t *testing.T) {
		out, err := env.client.Swap(ctx, trader, 2, "tokA", 3)
		require.NoError(t, err)
		assert.Equal(t, uint64(300_000), out)
		nextRecord(t, env.stream)
	})

	t.Run("BalancesAfterSwaps", func(t *testing.T) {
		bals, err := env.client.Balances(ctx, trader)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), bals["tokA"])
		assert.Equal(t, uint64(750_000-200_000+300_000), bals["tokB"])
	})

	t.Run("Conservation", func(t *testing.T) {
		st, err := env.client.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(10*swap.Rate+1_000_000), st.ReserveA*swap.Rate+st.ReserveB)
		assert.Equal(t, uint64(500_000), st.TotalIssued)

		contract, err := env.client.Balances(ctx, devhost.DefaultContractAccount)
		require.NoError(t, err)
		assert.Equal(t, st.ReserveA, contract["tokA"])
		assert.Equal(t, st.ReserveB, contract["tokB"])
	})

	t.Run("InsufficientReserveReverts", func(t *testing.T) {
		_, err := env.client.Fund(ctx, schemas.FundRequest{Account: trader, Token: "tokA", Amount: 1_000})
		require.NoError(t, err)
		before, err := env.client.State(ctx)
		require.NoError(t, err)

		_, err = env.client.Swap(ctx, trader, 3, "tokA", 1_000)
		var callErr *fixedswap.CallError
		require.True(t, errors.As(err, &callErr), "expected a reverted call, got %v", err)
		assert.Contains(t, callErr.Record.Error, "insufficient reserve")
		nextRecord(t, env.stream)

		after, err := env.client.State(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Trace", func(t *testing.T) {
		rec, err := env.client.Trace(ctx, swapTx, 0)
		require.NoError(t, err)
		assert.Equal(t, "swap", rec.Method)
		assert.True(t, rec.OK)
		assert.NotEmpty(t, rec.Steps)
	})

	t.Run("Stats", func(t *testing.T) {
		stats := getStats(t, ctx, env)
		assert.Equal(t, uint64(1), stats.Swaps["b_to_a"].Count)
		assert.Equal(t, uint64(1), stats.Swaps["a_to_b"].Count)
		assert.Equal(t, uint64(1), stats.Errors["swap"])
	})
}

func TestQueriesForwardTransfers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env := setupTestEnvironment(t, ctx)
	defer env.cleanup()

	_, err := env.client.Deploy(ctx, schemas.DeployRequest{Deployer: deployer, ReserveA: 1})
	require.NoError(t, err)
	_, err = env.client.Fund(ctx, schemas.FundRequest{Account: trader, Token: "tokB", Amount: 5})
	require.NoError(t, err)

	rec, err := env.client.Call(ctx, trader, 1, schemas.Call{
		Opcode:    uint64(swap.OpGetRate),
		Transfers: []schemas.Transfer{{Token: "tokB", Amount: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "100000", rec.Data)

	bals, err := env.client.Balances(ctx, trader)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), bals["tokB"])
}

func setupTestEnvironment(t *testing.T, ctx context.Context) *TestEnvironment {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := devhost.DefaultConfig()
	svc, err := devhost.NewServiceWithStore(ctx, cfg, devhost.NewMemoryStore(), logger)
	require.NoError(t, err)
	server := httptest.NewServer(svc.Handler())

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	require.NoError(t, err, "event stream unavailable")
	require.Eventually(t, func() bool { return streamClients(ctx, server.URL) == 1 }, 2*time.Second, 10*time.Millisecond)

	return &TestEnvironment{
		endpoint: server.URL,
		client: fixedswap.NewClient(fixedswap.Config{
			Endpoint: server.URL,
			Timeout:  10 * time.Second,
			Logger:   logger,
		}),
		stream: conn,
		cleanup: func() {
			conn.Close()
			server.Close()
		},
	}
}

func streamClients(ctx context.Context, endpoint string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/health", nil)
	if err != nil {
		return -1
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return -1
	}
	defer resp.Body.Close()
	var health struct {
		StreamClients int `json:"stream_clients"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return -1
	}
	return health.StreamClients
}

func nextRecord(t *testing.T, conn *websocket.Conn) schemas.ExecutionRecord {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var rec schemas.ExecutionRecord
	require.NoError(t, conn.ReadJSON(&rec), "no record on the event stream")
	return rec
}

func getStats(t *testing.T, ctx context.Context, env *TestEnvironment) devhost.SwapStats {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.endpoint+"/api/v1/stats", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats devhost.SwapStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	return stats
}
