package main

import (
	"errors"
	"fmt"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
)

func main() {}

// Build-time settings, overridden with
// -ldflags "-X main.tokenA=hive -X main.tokenB=hbd -X main.dust=reject".
var (
	tokenA = string(swap.DefaultConfig.TokenA)
	tokenB = string(swap.DefaultConfig.TokenB)
	name   = swap.DefaultConfig.Name
	symbol = swap.DefaultConfig.Symbol
	dust   = "refund"
)

// env is the slice of the host ABI the entry point needs.
type env interface {
	swap.KV
	Caller() string
	TxID() string
	// Incoming returns the JSON array of transfers attached to the call.
	Incoming() []byte
	Transfer(payload []byte) error
}

func contractConfig() (swap.Config, error) {
	policy, err := swap.ParseDustPolicy(dust)
	if err != nil {
		return swap.Config{}, err
	}
	return swap.Config{
		TokenA: swap.TokenID(tokenA),
		TokenB: swap.TokenID(tokenB),
		Name:   name,
		Symbol: symbol,
		Dust:   policy,
	}, nil
}

// kvHost binds swap.Host to the host environment.
type kvHost struct {
	env      env
	incoming []swap.IncomingTransfer
}

func (h *kvHost) ReadState() (swap.State, error) { return swap.LoadState(h.env) }

func (h *kvHost) WriteState(st swap.State) error {
	swap.SaveState(h.env, st)
	return nil
}

func (h *kvHost) IncomingTransfers() []swap.IncomingTransfer { return h.incoming }

func (h *kvHost) EmitOutgoingTransfer(t swap.OutgoingTransfer) error {
	data, err := t.MarshalJSON()
	if err != nil {
		return err
	}
	return h.env.Transfer(data)
}

// run executes one payload and returns the JSON encoded response.
func run(e env, payload string) (string, error) {
	cfg, err := contractConfig()
	if err != nil {
		return "", err
	}
	c, err := swap.New(cfg)
	if err != nil {
		return "", err
	}
	op, args, err := swap.DecodePayload(payload)
	if err != nil {
		return "", err
	}
	in, err := swap.DecodeIncomingTransfers(e.Incoming())
	if err != nil {
		return "", fmt.Errorf("%w: %v", swap.ErrTokenMismatch, err)
	}

	resp, err := c.Execute(&kvHost{env: e, incoming: in}, swap.Invocation{
		Opcode: op,
		Args:   args,
		Caller: e.Caller(),
		TxID:   e.TxID(),
	})
	if err != nil {
		return "", err
	}
	out, err := resp.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var errTransferRejected = errors.New("host rejected transfer")

// hostBytes returns the n bytes the host wrote into buf. A length past the
// buffer aborts the call with a readable message.
func hostBytes(buf []byte, n int, what string) []byte {
	if n > len(buf) {
		panic(fmt.Sprintf("%s is %d bytes, buffer holds %d", what, n, len(buf)))
	}
	return buf[:n]
}
