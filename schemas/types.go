package schemas

import "encoding/json"

// CurrentVersion is the envelope version this package emits.
const CurrentVersion = "1.0.0"

// Transfer is a token amount attached to a call.
type Transfer struct {
	Token  string `json:"token"`
	Amount uint64 `json:"amount"`
}

// Payout is a transfer the contract instructed the host to make.
type Payout struct {
	Token     string `json:"token"`
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

// Call is one contract invocation inside a transaction. Its index in
// Transaction.Calls is the vout used to trace it.
type Call struct {
	Opcode    uint64     `json:"opcode"`
	Args      []uint64   `json:"args,omitempty"`
	Transfers []Transfer `json:"transfers,omitempty"`
}

// Transaction is the envelope submitted to a host.
type Transaction struct {
	SchemaVersion string `json:"version"`
	Caller        string `json:"caller"`
	Nonce         uint64 `json:"nonce"`
	Calls         []Call `json:"calls"`
}

// Validate performs basic validation on the transaction
func (t Transaction) Validate() error {
	if t.SchemaVersion == "" {
		return &ValidationError{Field: "version", Message: "version is required"}
	}
	if t.Caller == "" {
		return &ValidationError{Field: "caller", Message: "caller is required"}
	}
	if len(t.Calls) == 0 {
		return &ValidationError{Field: "calls", Message: "at least one call is required"}
	}
	for _, c := range t.Calls {
		for _, tr := range c.Transfers {
			if tr.Token == "" {
				return &ValidationError{Field: "calls.transfers.token", Message: "transfer token is required"}
			}
			if tr.Amount == 0 {
				return &ValidationError{Field: "calls.transfers.amount", Message: "transfer amount must be positive"}
			}
		}
	}
	return nil
}

// ToJSON serializes the transaction. Field order is fixed, so the output is
// also the canonical form hashed into the transaction id.
func (t Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// DeployRequest installs the contract with seed reserves.
type DeployRequest struct {
	Deployer string `json:"deployer" yaml:"deployer"`
	ReserveA uint64 `json:"reserve_a" yaml:"reserve_a"`
	ReserveB uint64 `json:"reserve_b" yaml:"reserve_b"`
}

func (d DeployRequest) Validate() error {
	if d.Deployer == "" {
		return &ValidationError{Field: "deployer", Message: "deployer is required"}
	}
	return nil
}

// FundRequest credits an account on a development host.
type FundRequest struct {
	Account string `json:"account" yaml:"account"`
	Token   string `json:"token" yaml:"token"`
	Amount  uint64 `json:"amount" yaml:"amount"`
}

func (f FundRequest) Validate() error {
	switch {
	case f.Account == "":
		return &ValidationError{Field: "account", Message: "account is required"}
	case f.Token == "":
		return &ValidationError{Field: "token", Message: "token is required"}
	case f.Amount == 0:
		return &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return nil
}

// ExecutionRecord is the trace of one call, keyed by (TxID, VOut).
type ExecutionRecord struct {
	TxID     string     `json:"txid"`
	VOut     uint32     `json:"vout"`
	Height   uint64     `json:"height"`
	Caller   string     `json:"caller"`
	Opcode   uint64     `json:"opcode"`
	Method   string     `json:"method"`
	Args     []uint64   `json:"args,omitempty"`
	Incoming []Transfer `json:"incoming,omitempty"`
	Payouts  []Payout   `json:"payouts,omitempty"`
	Data     string     `json:"data,omitempty"`
	OK       bool       `json:"ok"`
	Error    string     `json:"error,omitempty"`
	Steps    []string   `json:"steps"`
}

// Receipt is returned for every accepted transaction.
type Receipt struct {
	TxID    string            `json:"txid"`
	Height  uint64            `json:"height"`
	Records []ExecutionRecord `json:"records"`
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}
