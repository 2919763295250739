package devhost

import (
	"sync"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

// ReadModel is fed every execution record in commit order.
type ReadModel interface {
	HandleRecord(rec schemas.ExecutionRecord) error
}

// DirectionStats aggregates committed swaps in one direction.
type DirectionStats struct {
	Count     uint64 `json:"count"`
	AmountIn  uint64 `json:"amount_in"`
	AmountOut uint64 `json:"amount_out"`
	Refunded  uint64 `json:"refunded"`
}

// SwapStats is the /stats payload.
type SwapStats struct {
	Height   uint64                    `json:"height"`
	Calls    uint64                    `json:"calls"`
	Reverted uint64                    `json:"reverted"`
	Swaps    map[string]DirectionStats `json:"swaps"`
	Errors   map[string]uint64         `json:"errors,omitempty"` // reverted calls by method
}

// SwapReadModel keeps per-direction swap volumes.
type SwapReadModel struct {
	mu     sync.RWMutex
	tokenA swap.TokenID
	tokenB swap.TokenID
	stats  SwapStats
}

func NewSwapReadModel(cfg swap.Config) *SwapReadModel {
	return &SwapReadModel{
		tokenA: cfg.TokenA,
		tokenB: cfg.TokenB,
		stats: SwapStats{
			Swaps:  make(map[string]DirectionStats),
			Errors: make(map[string]uint64),
		},
	}
}

func (rm *SwapReadModel) HandleRecord(rec schemas.ExecutionRecord) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.stats.Calls++
	if rec.Height > rm.stats.Height {
		rm.stats.Height = rec.Height
	}
	if !rec.OK {
		rm.stats.Reverted++
		rm.stats.Errors[rec.Method]++
		return nil
	}
	if rec.Opcode != uint64(swap.OpSwap) || len(rec.Incoming) != 1 {
		return nil
	}

	in := rec.Incoming[0]
	dir := swap.AToB
	if swap.TokenID(in.Token) == rm.tokenB {
		dir = swap.BToA
	}
	ds := rm.stats.Swaps[dir.String()]
	ds.Count++
	ds.AmountIn += in.Amount
	for _, p := range rec.Payouts {
		if p.Token == in.Token {
			ds.Refunded += p.Amount
		} else {
			ds.AmountOut += p.Amount
		}
	}
	rm.stats.Swaps[dir.String()] = ds
	return nil
}

// Stats returns a copy of the aggregates.
func (rm *SwapReadModel) Stats() SwapStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	out := rm.stats
	out.Swaps = make(map[string]DirectionStats, len(rm.stats.Swaps))
	for k, v := range rm.stats.Swaps {
		out.Swaps[k] = v
	}
	out.Errors = make(map[string]uint64, len(rm.stats.Errors))
	for k, v := range rm.stats.Errors {
		out.Errors[k] = v
	}
	return out
}
