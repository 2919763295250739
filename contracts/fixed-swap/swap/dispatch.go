package swap

import (
	"fmt"
	"strconv"
)

type Opcode uint64

const (
	OpInitialize       Opcode = 0
	OpSwap             Opcode = 42
	OpAddReserves      Opcode = 77
	OpWithdrawReserves Opcode = 78
	OpGetName          Opcode = 99
	OpGetSymbol        Opcode = 100
	OpGetTotalSupply   Opcode = 101
	OpGetReserves      Opcode = 102
	OpGetDeployer      Opcode = 103
	OpGetRate          Opcode = 104
)

func (o Opcode) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpSwap:
		return "swap"
	case OpAddReserves:
		return "add_reserves"
	case OpWithdrawReserves:
		return "withdraw_reserves"
	case OpGetName:
		return "get_name"
	case OpGetSymbol:
		return "get_symbol"
	case OpGetTotalSupply:
		return "get_total_supply"
	case OpGetReserves:
		return "get_reserves"
	case OpGetDeployer:
		return "get_deployer"
	case OpGetRate:
		return "get_rate"
	default:
		return "opcode(" + strconv.FormatUint(uint64(o), 10) + ")"
	}
}

// ReadOnly reports whether the opcode never mutates state.
func (o Opcode) ReadOnly() bool {
	return o >= OpGetName && o <= OpGetRate
}

// Invocation is one decoded call from the host.
type Invocation struct {
	Opcode Opcode
	Args   []uint64
	// Caller receives payouts and forwarded transfers.
	Caller string
	// TxID is the host transaction carrying the call; empty when the host
	// does not expose one.
	TxID string
}

// Contract holds build-time configuration only. It keeps no state between
// calls, so one value can serve every invocation.
type Contract struct {
	cfg Config
}

func New(cfg Config) (*Contract, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Contract{cfg: cfg}, nil
}

func (c *Contract) Config() Config { return c.cfg }

// Execute runs one invocation against host. State is read once at entry and
// written, together with the outgoing transfers, only after the handler has
// succeeded.
func (c *Contract) Execute(host Host, inv Invocation) (Response, error) {
	st, err := host.ReadState()
	if err != nil {
		return Response{}, err
	}

	next, resp, err := c.Handle(st, inv, host.IncomingTransfers())
	if err != nil {
		return Response{}, err
	}

	if next != st {
		if err := host.WriteState(next); err != nil {
			return Response{}, err
		}
	}
	for _, t := range resp.Transfers {
		if err := host.EmitOutgoingTransfer(t); err != nil {
			return Response{}, err
		}
	}
	// Hosts always receive a transfers array, even an empty one.
	if resp.Transfers == nil {
		resp.Transfers = []OutgoingTransfer{}
	}
	return resp, nil
}

// Handle is the pure transition: the same snapshot and inputs always yield
// the same next state and response.
func (c *Contract) Handle(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	var (
		next State
		resp Response
		err  error
	)
	switch inv.Opcode {
	case OpInitialize:
		next, resp, err = c.initialize(st, inv, in)
	case OpSwap:
		next, resp, err = c.swap(st, inv, in)
	case OpAddReserves:
		next, resp, err = c.addReserves(st, inv, in)
	case OpWithdrawReserves:
		next, resp, err = c.withdrawReserves(st, inv, in)
	case OpGetName, OpGetSymbol, OpGetTotalSupply, OpGetReserves, OpGetDeployer, OpGetRate:
		next, resp, err = c.query(st, inv, in)
	default:
		return st, Response{}, fmt.Errorf("%w: %d", ErrInvalidOpcode, uint64(inv.Opcode))
	}
	if err != nil {
		return st, Response{}, fmt.Errorf("%s: %w", inv.Opcode, err)
	}
	return next, resp, nil
}

func (c *Contract) initialize(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	if st.Initialized {
		return st, Response{}, ErrAlreadyInitialized
	}
	if inv.Caller == "" {
		return st, Response{}, fmt.Errorf("%w: deployer is anonymous", ErrUnauthorized)
	}
	if len(inv.Args) > 2 {
		return st, Response{}, fmt.Errorf("%w: expected at most 2 seed reserves, got %d", ErrInvalidArguments, len(inv.Args))
	}

	next := State{Initialized: true, Deployer: inv.Caller}
	if len(inv.Args) > 0 {
		next.ReserveA = inv.Args[0]
	}
	if len(inv.Args) > 1 {
		next.ReserveB = inv.Args[1]
	}
	return next, Response{Transfers: forward(in, inv.Caller)}, nil
}

func (c *Contract) swap(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	if !st.Initialized {
		return st, Response{}, ErrNotInitialized
	}
	if len(inv.Args) != 0 {
		return st, Response{}, fmt.Errorf("%w: swap takes no arguments", ErrInvalidArguments)
	}
	if inv.TxID != "" && inv.TxID == st.LastSwapTx {
		return st, Response{}, fmt.Errorf("%w: %s", ErrTxAlreadyUsed, inv.TxID)
	}

	t, dir, err := c.cfg.ValidateSwapTransfers(in)
	if err != nil {
		return st, Response{}, err
	}
	q, err := NewQuote(t.Amount, dir, c.cfg.Dust)
	if err != nil {
		return st, Response{}, err
	}

	out := st.reserveOut(dir)
	if out < q.Output {
		return st, Response{}, fmt.Errorf("%w: need %d %s, hold %d", ErrInsufficientReserve, q.Output, c.cfg.outputToken(dir), out)
	}
	newIn, err := addChecked(st.reserveIn(dir), q.Consumed)
	if err != nil {
		return st, Response{}, err
	}
	issued, err := addChecked(st.TotalIssued, q.IssuedValue())
	if err != nil {
		return st, Response{}, err
	}

	next := st
	next.setReserves(dir, newIn, out-q.Output)
	next.TotalIssued = issued
	next.LastSwapTx = inv.TxID

	transfers := []OutgoingTransfer{{Token: c.cfg.outputToken(dir), Amount: q.Output, Recipient: inv.Caller}}
	if q.Refund > 0 {
		transfers = append(transfers, OutgoingTransfer{Token: c.cfg.inputToken(dir), Amount: q.Refund, Recipient: inv.Caller})
	}
	return next, Response{Transfers: transfers, Data: strconv.FormatUint(q.Output, 10)}, nil
}

func (c *Contract) addReserves(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	if err := requireDeployer(st, inv); err != nil {
		return st, Response{}, err
	}
	a, b, err := c.cfg.ValidateFunding(in)
	if err != nil {
		return st, Response{}, err
	}

	next := st
	if next.ReserveA, err = addChecked(st.ReserveA, a); err != nil {
		return st, Response{}, err
	}
	if next.ReserveB, err = addChecked(st.ReserveB, b); err != nil {
		return st, Response{}, err
	}
	return next, Response{}, nil
}

func (c *Contract) withdrawReserves(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	if err := requireDeployer(st, inv); err != nil {
		return st, Response{}, err
	}
	if len(inv.Args) != 2 {
		return st, Response{}, fmt.Errorf("%w: expected amountA,amountB", ErrInvalidArguments)
	}
	a, b := inv.Args[0], inv.Args[1]
	if a == 0 && b == 0 {
		return st, Response{}, fmt.Errorf("%w: nothing to withdraw", ErrInvalidArguments)
	}

	var err error
	next := st
	if next.ReserveA, err = subChecked(st.ReserveA, a); err != nil {
		return st, Response{}, err
	}
	if next.ReserveB, err = subChecked(st.ReserveB, b); err != nil {
		return st, Response{}, err
	}

	transfers := forward(in, inv.Caller)
	if a > 0 {
		transfers = append(transfers, OutgoingTransfer{Token: c.cfg.TokenA, Amount: a, Recipient: st.Deployer})
	}
	if b > 0 {
		transfers = append(transfers, OutgoingTransfer{Token: c.cfg.TokenB, Amount: b, Recipient: st.Deployer})
	}
	return next, Response{Transfers: transfers}, nil
}

func (c *Contract) query(st State, inv Invocation, in []IncomingTransfer) (State, Response, error) {
	if !st.Initialized {
		return st, Response{}, ErrNotInitialized
	}

	resp := Response{Transfers: forward(in, inv.Caller)}
	switch inv.Opcode {
	case OpGetName:
		resp.Data = c.cfg.Name
	case OpGetSymbol:
		resp.Data = c.cfg.Symbol
	case OpGetTotalSupply:
		resp.Data = strconv.FormatUint(st.TotalIssued, 10)
	case OpGetReserves:
		data, err := Reserves{ReserveA: st.ReserveA, ReserveB: st.ReserveB}.MarshalJSON()
		if err != nil {
			return st, Response{}, err
		}
		resp.Data = string(data)
	case OpGetDeployer:
		resp.Data = st.Deployer
	case OpGetRate:
		resp.Data = strconv.FormatUint(Rate, 10)
	}
	return st, resp, nil
}

func requireDeployer(st State, inv Invocation) error {
	if !st.Initialized {
		return ErrNotInitialized
	}
	if inv.Caller == "" || inv.Caller != st.Deployer {
		return fmt.Errorf("%w: %q is not the deployer", ErrUnauthorized, inv.Caller)
	}
	return nil
}
