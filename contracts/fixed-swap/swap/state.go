package swap

import (
	"fmt"
	"strconv"
)

// State keys
const (
	keyInitialized = "swap/initialized"
	keyDeployer    = "swap/deployer"
	keyReserveA    = "swap/reserve_a"
	keyReserveB    = "swap/reserve_b"
	keyTotalIssued = "swap/total_issued"
	keyLastSwapTx  = "swap/last_swap_tx"
)

// StateKeys lists every key the contract reads or writes.
func StateKeys() []string {
	return []string{keyInitialized, keyDeployer, keyReserveA, keyReserveB, keyTotalIssued, keyLastSwapTx}
}

// State is the contract's persisted snapshot. Handlers take it by value and
// return the next one; nothing is kept between invocations.
type State struct {
	Initialized bool   `json:"initialized"`
	Deployer    string `json:"deployer"`
	ReserveA    uint64 `json:"reserve_a"`
	ReserveB    uint64 `json:"reserve_b"`
	TotalIssued uint64 `json:"total_issued"`
	LastSwapTx  string `json:"last_swap_tx,omitempty"`
}

// reserveIn is the reserve of the token the caller sends in.
func (s State) reserveIn(dir Direction) uint64 {
	if dir == AToB {
		return s.ReserveA
	}
	return s.ReserveB
}

func (s State) reserveOut(dir Direction) uint64 {
	if dir == AToB {
		return s.ReserveB
	}
	return s.ReserveA
}

func (s *State) setReserves(dir Direction, in, out uint64) {
	if dir == AToB {
		s.ReserveA, s.ReserveB = in, out
	} else {
		s.ReserveB, s.ReserveA = in, out
	}
}

// LoadState reads a snapshot. Missing keys read as zero values.
func LoadState(kv KV) (State, error) {
	var (
		st  State
		err error
	)
	st.Initialized = getStr(kv, keyInitialized) == "1"
	st.Deployer = getStr(kv, keyDeployer)
	st.LastSwapTx = getStr(kv, keyLastSwapTx)
	if st.ReserveA, err = getUint(kv, keyReserveA); err != nil {
		return State{}, err
	}
	if st.ReserveB, err = getUint(kv, keyReserveB); err != nil {
		return State{}, err
	}
	if st.TotalIssued, err = getUint(kv, keyTotalIssued); err != nil {
		return State{}, err
	}
	return st, nil
}

// SaveState writes every key unconditionally.
func SaveState(kv KV, st State) {
	initialized := "0"
	if st.Initialized {
		initialized = "1"
	}
	kv.Set(keyInitialized, initialized)
	kv.Set(keyDeployer, st.Deployer)
	setUint(kv, keyReserveA, st.ReserveA)
	setUint(kv, keyReserveB, st.ReserveB)
	setUint(kv, keyTotalIssued, st.TotalIssued)
	kv.Set(keyLastSwapTx, st.LastSwapTx)
}

func getStr(kv KV, key string) string {
	v, ok := kv.Get(key)
	if !ok {
		return ""
	}
	return v
}

func getUint(kv KV, key string) (uint64, error) {
	v, ok := kv.Get(key)
	if !ok || v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrCorruptState, key, v)
	}
	return n, nil
}

func setUint(kv KV, key string, val uint64) {
	kv.Set(key, strconv.FormatUint(val, 10))
}

// MapKV is a KV over a plain map, for hosts that snapshot storage up front.
type MapKV map[string]string

func (m MapKV) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m MapKV) Set(key, value string) { m[key] = value }
