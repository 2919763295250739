package devhost

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

var ErrTraceNotFound = errors.New("trace not found")

// Commit is everything one transaction changes. Balances hold the new
// absolute values, not deltas.
type Commit struct {
	KV       map[string]string
	Balances map[string]map[swap.TokenID]uint64
	Records  []schemas.ExecutionRecord
	Height   uint64
}

// Store persists ledger state. Commit must apply all of its parts or none.
type Store interface {
	LoadKV(ctx context.Context) (map[string]string, error)
	Balances(ctx context.Context, account string) (map[swap.TokenID]uint64, error)
	Record(ctx context.Context, txid string, vout uint32) (schemas.ExecutionRecord, error)
	Height(ctx context.Context) (uint64, error)
	Commit(ctx context.Context, c Commit) error
	Close() error
}

func traceKey(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}

// MemoryStore keeps everything in process.
type MemoryStore struct {
	mu       sync.RWMutex
	kv       map[string]string
	balances map[string]map[swap.TokenID]uint64
	records  map[string]schemas.ExecutionRecord
	height   uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		kv:       make(map[string]string),
		balances: make(map[string]map[swap.TokenID]uint64),
		records:  make(map[string]schemas.ExecutionRecord),
	}
}

func (m *MemoryStore) LoadKV(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.kv))
	for k, v := range m.kv {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Balances(_ context.Context, account string) (map[swap.TokenID]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[swap.TokenID]uint64, len(m.balances[account]))
	for tok, amt := range m.balances[account] {
		out[tok] = amt
	}
	return out, nil
}

func (m *MemoryStore) Record(_ context.Context, txid string, vout uint32) (schemas.ExecutionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[traceKey(txid, vout)]
	if !ok {
		return schemas.ExecutionRecord{}, fmt.Errorf("%w: %s", ErrTraceNotFound, traceKey(txid, vout))
	}
	return rec, nil
}

func (m *MemoryStore) Height(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height, nil
}

func (m *MemoryStore) Commit(_ context.Context, c Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range c.KV {
		m.kv[k] = v
	}
	for account, bals := range c.Balances {
		if m.balances[account] == nil {
			m.balances[account] = make(map[swap.TokenID]uint64)
		}
		for tok, amt := range bals {
			m.balances[account][tok] = amt
		}
	}
	for _, rec := range c.Records {
		m.records[traceKey(rec.TxID, rec.VOut)] = rec
	}
	if c.Height > m.height {
		m.height = c.Height
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }
