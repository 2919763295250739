package devhost

import (
	"fmt"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
)

// callHost is the swap.Host for a single call. Writes and transfers are
// staged and only reach the ledger when the call succeeds.
type callHost struct {
	kv       map[string]string
	incoming []swap.IncomingTransfer

	staged  swap.MapKV
	emitted []swap.OutgoingTransfer
	steps   []string
}

func newCallHost(kv map[string]string, incoming []swap.IncomingTransfer) *callHost {
	return &callHost{kv: kv, incoming: incoming}
}

func (h *callHost) Get(key string) (string, bool) {
	v, ok := h.kv[key]
	return v, ok
}

func (h *callHost) Set(key, value string) {
	h.staged[key] = value
}

func (h *callHost) ReadState() (swap.State, error) {
	h.step("read state")
	return swap.LoadState(h)
}

func (h *callHost) WriteState(st swap.State) error {
	h.staged = swap.MapKV{}
	swap.SaveState(h, st)
	h.step("write state reserve_a=%d reserve_b=%d total_issued=%d", st.ReserveA, st.ReserveB, st.TotalIssued)
	return nil
}

func (h *callHost) IncomingTransfers() []swap.IncomingTransfer { return h.incoming }

func (h *callHost) EmitOutgoingTransfer(t swap.OutgoingTransfer) error {
	if t.Amount == 0 {
		return fmt.Errorf("zero transfer of %s", t.Token)
	}
	h.emitted = append(h.emitted, t)
	h.step("emit %d %s to %s", t.Amount, t.Token, t.Recipient)
	return nil
}

func (h *callHost) step(format string, args ...interface{}) {
	h.steps = append(h.steps, fmt.Sprintf(format, args...))
}
