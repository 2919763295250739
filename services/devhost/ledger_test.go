package devhost

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

const (
	alice = "hive:alice"
	bob   = "hive:bob"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestLedger(t *testing.T, policy swap.DustPolicy) (*Ledger, *MemoryStore) {
	t.Helper()
	cfg := swap.DefaultConfig
	cfg.Dust = policy
	c, err := swap.New(cfg)
	require.NoError(t, err)
	store := NewMemoryStore()
	l, err := NewLedger(context.Background(), c, store, LedgerOptions{Logger: quietLogger(), Metrics: NewMetrics()})
	require.NoError(t, err)
	return l, store
}

func deployed(t *testing.T, reserveA, reserveB uint64) *Ledger {
	t.Helper()
	l, _ := newTestLedger(t, swap.DustRefund)
	_, err := l.Deploy(context.Background(), schemas.DeployRequest{Deployer: alice, ReserveA: reserveA, ReserveB: reserveB})
	require.NoError(t, err)
	return l
}

func fund(t *testing.T, l *Ledger, account, token string, amount uint64) {
	t.Helper()
	_, err := l.Fund(context.Background(), schemas.FundRequest{Account: account, Token: token, Amount: amount})
	require.NoError(t, err)
}

func swapTx(caller string, nonce uint64, token string, amount uint64) *schemas.Transaction {
	return &schemas.Transaction{
		SchemaVersion: schemas.CurrentVersion,
		Caller:        caller,
		Nonce:         nonce,
		Calls: []schemas.Call{{
			Opcode:    uint64(swap.OpSwap),
			Transfers: []schemas.Transfer{{Token: token, Amount: amount}},
		}},
	}
}

func balance(t *testing.T, l *Ledger, account string, token swap.TokenID) uint64 {
	t.Helper()
	bals, err := l.Balances(context.Background(), account)
	require.NoError(t, err)
	return bals[token]
}

func TestLedger_DeployMintsReserves(t *testing.T) {
	l := deployed(t, 3, 500_000)
	ctx := context.Background()

	st, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, swap.State{Initialized: true, Deployer: alice, ReserveA: 3, ReserveB: 500_000}, st)
	assert.Equal(t, uint64(3), balance(t, l, DefaultContractAccount, "tokA"))
	assert.Equal(t, uint64(500_000), balance(t, l, DefaultContractAccount, "tokB"))

	_, err = l.Deploy(ctx, schemas.DeployRequest{Deployer: bob, ReserveA: 9})
	assert.ErrorIs(t, err, swap.ErrAlreadyInitialized)
	assert.Equal(t, uint64(3), balance(t, l, DefaultContractAccount, "tokA"))
}

func TestLedger_SwapMovesBalances(t *testing.T) {
	l := deployed(t, 0, 10*swap.Rate)
	fund(t, l, bob, "tokA", 5)

	receipt, err := l.Submit(context.Background(), swapTx(bob, 1, "tokA", 3))
	require.NoError(t, err)
	require.Len(t, receipt.Records, 1)
	rec := receipt.Records[0]
	assert.True(t, rec.OK, rec.Error)
	assert.Equal(t, "300000", rec.Data)
	assert.Equal(t, []schemas.Payout{{Token: "tokB", Amount: 300_000, Recipient: bob}}, rec.Payouts)

	assert.Equal(t, uint64(2), balance(t, l, bob, "tokA"))
	assert.Equal(t, uint64(300_000), balance(t, l, bob, "tokB"))
	assert.Equal(t, uint64(3), balance(t, l, DefaultContractAccount, "tokA"))
	assert.Equal(t, uint64(700_000), balance(t, l, DefaultContractAccount, "tokB"))
}

func TestLedger_DustRefund(t *testing.T) {
	l := deployed(t, 5, 0)
	fund(t, l, bob, "tokB", 250_000)

	receipt, err := l.Submit(context.Background(), swapTx(bob, 1, "tokB", 250_000))
	require.NoError(t, err)
	assert.True(t, receipt.Records[0].OK)
	assert.Equal(t, uint64(2), balance(t, l, bob, "tokA"))
	assert.Equal(t, uint64(50_000), balance(t, l, bob, "tokB"))
	assert.Equal(t, uint64(200_000), balance(t, l, DefaultContractAccount, "tokB"))
}

func TestLedger_FailedCallLeavesEverythingUntouched(t *testing.T) {
	tests := []struct {
		name    string
		tx      *schemas.Transaction
		wantErr error
	}{
		{"unknown token", swapTx(bob, 1, "tokC", 1), ErrInsufficientFunds},
		{"insufficient reserve", swapTx(bob, 1, "tokA", 5), swap.ErrInsufficientReserve},
		{"unfunded caller", swapTx(bob, 1, "tokB", 900_000), ErrInsufficientFunds},
		{"below rate", swapTx(bob, 1, "tokB", 10), swap.ErrAmountTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := deployed(t, 2, 2*swap.Rate)
			fund(t, l, bob, "tokA", 5)
			fund(t, l, bob, "tokB", 100_000)
			ctx := context.Background()
			before, err := l.State(ctx)
			require.NoError(t, err)

			receipt, err := l.Submit(ctx, tt.tx)
			require.NoError(t, err)
			rec := receipt.Records[0]
			assert.False(t, rec.OK)
			assert.Contains(t, rec.Error, tt.wantErr.Error())
			assert.Empty(t, rec.Payouts)

			after, err := l.State(ctx)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, uint64(5), balance(t, l, bob, "tokA"))
			assert.Equal(t, uint64(100_000), balance(t, l, bob, "tokB"))
			assert.Equal(t, uint64(2), balance(t, l, DefaultContractAccount, "tokA"))
		})
	}
}

func TestLedger_SubmitRejectsInitialize(t *testing.T) {
	l, _ := newTestLedger(t, swap.DustRefund)
	ctx := context.Background()

	_, err := l.Submit(ctx, &schemas.Transaction{
		SchemaVersion: schemas.CurrentVersion,
		Caller:        alice,
		Calls:         []schemas.Call{{Opcode: uint64(swap.OpInitialize), Args: []uint64{1000, 0}}},
	})
	var verr *schemas.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "calls.opcode", verr.Field)

	st, err := l.State(ctx)
	require.NoError(t, err)
	assert.False(t, st.Initialized)
	assert.Zero(t, l.Height())

	// Deploy still works and backs the reserves it records.
	_, err = l.Deploy(ctx, schemas.DeployRequest{Deployer: alice, ReserveA: 1000})
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), balance(t, l, DefaultContractAccount, "tokA"))

	fund(t, l, bob, "tokB", swap.Rate)
	receipt, err := l.Submit(ctx, swapTx(bob, 1, "tokB", swap.Rate))
	require.NoError(t, err)
	assert.True(t, receipt.Records[0].OK, receipt.Records[0].Error)
	assert.Equal(t, uint64(1), balance(t, l, bob, "tokA"))
}

func TestLedger_UnknownTokenReachesContract(t *testing.T) {
	l := deployed(t, 2, 2*swap.Rate)
	fund(t, l, bob, "tokC", 1)

	receipt, err := l.Submit(context.Background(), swapTx(bob, 1, "tokC", 1))
	require.NoError(t, err)
	assert.Contains(t, receipt.Records[0].Error, swap.ErrTokenMismatch.Error())
	assert.Equal(t, uint64(1), balance(t, l, bob, "tokC"))
	assert.Zero(t, balance(t, l, DefaultContractAccount, "tokC"))
}

func TestLedger_OneSwapPerTransaction(t *testing.T) {
	l := deployed(t, 0, 10*swap.Rate)
	fund(t, l, bob, "tokA", 5)

	tx := swapTx(bob, 1, "tokA", 1)
	tx.Calls = append(tx.Calls, tx.Calls[0])

	receipt, err := l.Submit(context.Background(), tx)
	require.NoError(t, err)
	require.Len(t, receipt.Records, 2)
	assert.True(t, receipt.Records[0].OK)
	assert.False(t, receipt.Records[1].OK)
	assert.Contains(t, receipt.Records[1].Error, swap.ErrTxAlreadyUsed.Error())
	assert.Equal(t, uint64(4), balance(t, l, bob, "tokA"))
}

func TestLedger_DuplicateTransaction(t *testing.T) {
	l := deployed(t, 0, 10*swap.Rate)
	fund(t, l, bob, "tokA", 5)

	_, err := l.Submit(context.Background(), swapTx(bob, 1, "tokA", 1))
	require.NoError(t, err)
	_, err = l.Submit(context.Background(), swapTx(bob, 1, "tokA", 1))
	assert.ErrorIs(t, err, ErrDuplicateTx)

	_, err = l.Submit(context.Background(), swapTx(bob, 2, "tokA", 1))
	assert.NoError(t, err)
}

func TestLedger_TraceRecords(t *testing.T) {
	l := deployed(t, 0, 10*swap.Rate)
	fund(t, l, bob, "tokA", 5)
	ctx := context.Background()

	tx := swapTx(bob, 1, "tokA", 1)
	tx.Calls = append(tx.Calls, schemas.Call{Opcode: uint64(swap.OpGetReserves)})
	receipt, err := l.Submit(ctx, tx)
	require.NoError(t, err)

	txid, err := TxID(tx)
	require.NoError(t, err)
	assert.Equal(t, txid, receipt.TxID)
	assert.Len(t, txid, 64)

	rec, err := l.Trace(ctx, txid, 0)
	require.NoError(t, err)
	assert.Equal(t, "swap", rec.Method)
	assert.Equal(t, []string{
		"debit 1 tokA from hive:bob",
		"read state",
		"write state reserve_a=1 reserve_b=900000 total_issued=100000",
		"emit 100000 tokB to hive:bob",
		"commit",
	}, rec.Steps)

	rec, err = l.Trace(ctx, txid, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reserve_a":1,"reserve_b":900000}`, rec.Data)

	_, err = l.Trace(ctx, txid, 2)
	assert.ErrorIs(t, err, ErrTraceNotFound)
}

func TestLedger_Subscribe(t *testing.T) {
	l := deployed(t, 0, 10*swap.Rate)
	fund(t, l, bob, "tokA", 5)

	var got []schemas.ExecutionRecord
	l.Subscribe(func(rec schemas.ExecutionRecord) { got = append(got, rec) })

	_, err := l.Submit(context.Background(), swapTx(bob, 1, "tokA", 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(2), got[0].Height)
}

func TestLedger_WithdrawPaysDeployer(t *testing.T) {
	l := deployed(t, 3, 0)

	tx := &schemas.Transaction{
		SchemaVersion: schemas.CurrentVersion,
		Caller:        alice,
		Calls:         []schemas.Call{{Opcode: uint64(swap.OpWithdrawReserves), Args: []uint64{2, 0}}},
	}
	receipt, err := l.Submit(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, receipt.Records[0].OK, receipt.Records[0].Error)
	assert.Equal(t, uint64(2), balance(t, l, alice, "tokA"))
	assert.Equal(t, uint64(1), balance(t, l, DefaultContractAccount, "tokA"))
}

// Concurrent submitters are serialized by the ledger; token totals and the
// reserve identity hold at the end.
func TestLedger_ConcurrentSubmissionsConserveTotals(t *testing.T) {
	l := deployed(t, 50, 50*swap.Rate)
	ctx := context.Background()

	const workers = 8
	for w := 0; w < workers; w++ {
		fund(t, l, fmt.Sprintf("hive:user%d", w), "tokA", 10)
		fund(t, l, fmt.Sprintf("hive:user%d", w), "tokB", 10*swap.Rate)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			caller := fmt.Sprintf("hive:user%d", w)
			for i := 0; i < 20; i++ {
				tx := swapTx(caller, uint64(i), "tokA", 1)
				if i%2 == 1 {
					tx = swapTx(caller, uint64(i), "tokB", 150_000)
				}
				if _, err := l.Submit(gctx, tx); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var totalA, totalB uint64
	accounts := []string{DefaultContractAccount}
	for w := 0; w < workers; w++ {
		accounts = append(accounts, fmt.Sprintf("hive:user%d", w))
	}
	for _, acct := range accounts {
		totalA += balance(t, l, acct, "tokA")
		totalB += balance(t, l, acct, "tokB")
	}
	assert.Equal(t, uint64(50+workers*10), totalA)
	assert.Equal(t, uint64(50+workers*10)*swap.Rate, totalB)

	st, err := l.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100*swap.Rate, st.ReserveA*swap.Rate+st.ReserveB)
	assert.Equal(t, st.ReserveA, balance(t, l, DefaultContractAccount, "tokA"))
	assert.Equal(t, st.ReserveB, balance(t, l, DefaultContractAccount, "tokB"))
	assert.Equal(t, uint64(1+workers*20), l.Height())
}
