package swap

import (
	"errors"
	"fmt"
)

// TokenID identifies a fungible token on the host.
type TokenID string

func (t TokenID) String() string { return string(t) }

// IncomingTransfer is a token transfer attached to the current invocation.
// The host owns it; the contract only observes it.
//
//tinyjson:json
type IncomingTransfer struct {
	Token  TokenID `json:"token"`
	Amount uint64  `json:"amount"`
}

// OutgoingTransfer is an instruction for the host to pay Amount of Token
// from the contract to Recipient once the call commits.
//
//tinyjson:json
type OutgoingTransfer struct {
	Token     TokenID `json:"token"`
	Amount    uint64  `json:"amount"`
	Recipient string  `json:"recipient"`
}

// Host is the boundary to the ledger-indexing runtime. Implementations
// buffer writes and emitted transfers until the call returns; on error the
// host discards everything attempted during the call.
type Host interface {
	ReadState() (State, error)
	WriteState(State) error
	IncomingTransfers() []IncomingTransfer
	EmitOutgoingTransfer(OutgoingTransfer) error
}

// KV is the raw storage the host exposes to the contract.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Config is fixed at build time; nothing in it is persisted.
type Config struct {
	TokenA TokenID
	TokenB TokenID
	Name   string
	Symbol string
	Dust   DustPolicy
}

var DefaultConfig = Config{
	TokenA: "tokA",
	TokenB: "tokB",
	Name:   "Fixed Rate Token",
	Symbol: "FRT",
	Dust:   DustRefund,
}

func (c Config) Validate() error {
	if c.TokenA == "" || c.TokenB == "" {
		return errors.New("token ids are required")
	}
	if c.TokenA == c.TokenB {
		return fmt.Errorf("token ids must differ, both are %q", c.TokenA)
	}
	if c.Dust != DustRefund && c.Dust != DustReject {
		return fmt.Errorf("unknown dust policy %d", c.Dust)
	}
	return nil
}

// Response is the opaque success payload handed back to the host.
//
//tinyjson:json
type Response struct {
	Transfers []OutgoingTransfer `json:"transfers"`
	Data      string             `json:"data,omitempty"`
}
