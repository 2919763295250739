package devhost

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/sirupsen/logrus"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

var (
	ErrDuplicateTx       = errors.New("duplicate transaction")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// DefaultContractAccount holds the contract's token balances.
const DefaultContractAccount = "contract:fixed-swap"

type LedgerOptions struct {
	ContractAccount string
	Logger          *logrus.Logger
	Metrics         *Metrics
}

// Ledger is a single-node host for the swap contract. Transactions are
// serialized; every call inside a transaction commits or reverts on its own
// and the surviving changes are written to the store in one Commit.
type Ledger struct {
	mu        sync.Mutex
	contract  *swap.Contract
	store     Store
	account   string
	height    uint64
	log       *logrus.Entry
	metrics   *Metrics
	listeners []func(schemas.ExecutionRecord)
}

func NewLedger(ctx context.Context, contract *swap.Contract, store Store, opts LedgerOptions) (*Ledger, error) {
	height, err := store.Height(ctx)
	if err != nil {
		return nil, fmt.Errorf("load height: %w", err)
	}
	if opts.ContractAccount == "" {
		opts.ContractAccount = DefaultContractAccount
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ledger{
		contract: contract,
		store:    store,
		account:  opts.ContractAccount,
		height:   height,
		log:      logger.WithField("component", "ledger"),
		metrics:  opts.Metrics,
	}, nil
}

func (l *Ledger) ContractAccount() string { return l.account }

func (l *Ledger) Contract() *swap.Contract { return l.contract }

// Subscribe registers fn for every execution record, in commit order.
func (l *Ledger) Subscribe(fn func(schemas.ExecutionRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// TxID is the double SHA-256 of the canonical envelope.
func TxID(tx *schemas.Transaction) (string, error) {
	data, err := tx.ToJSON()
	if err != nil {
		return "", err
	}
	return chainhash.DoubleHashH(data).String(), nil
}

// Deploy runs Initialize for deployer and, when it succeeds, mints the seed
// reserves into the contract account.
func (l *Ledger) Deploy(ctx context.Context, req schemas.DeployRequest) (schemas.Receipt, error) {
	if err := req.Validate(); err != nil {
		return schemas.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &schemas.Transaction{
		SchemaVersion: schemas.CurrentVersion,
		Caller:        req.Deployer,
		Nonce:         l.height,
		Calls:         []schemas.Call{{Opcode: uint64(swap.OpInitialize), Args: []uint64{req.ReserveA, req.ReserveB}}},
	}
	cfg := l.contract.Config()
	mint := func(sheet *balanceSheet) error {
		if err := sheet.credit(l.account, cfg.TokenA, req.ReserveA); err != nil {
			return err
		}
		return sheet.credit(l.account, cfg.TokenB, req.ReserveB)
	}
	receipt, errs, err := l.submit(ctx, tx, mint)
	if err != nil {
		return schemas.Receipt{}, err
	}
	if errs[0] != nil {
		return receipt, fmt.Errorf("deploy: %w", errs[0])
	}
	return receipt, nil
}

// Submit executes tx. Call failures are reported in the receipt records;
// the returned error covers envelope and storage problems only.
// Initialize is only reachable through Deploy, which also mints the seed
// reserves into the contract account.
func (l *Ledger) Submit(ctx context.Context, tx *schemas.Transaction) (schemas.Receipt, error) {
	if err := tx.Validate(); err != nil {
		return schemas.Receipt{}, err
	}
	for i, call := range tx.Calls {
		if swap.Opcode(call.Opcode) == swap.OpInitialize {
			return schemas.Receipt{}, &schemas.ValidationError{
				Field:   "calls.opcode",
				Message: fmt.Sprintf("call %d: initialize must go through deploy", i),
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	receipt, _, err := l.submit(ctx, tx, nil)
	return receipt, err
}

func (l *Ledger) submit(ctx context.Context, tx *schemas.Transaction, onSuccess func(*balanceSheet) error) (schemas.Receipt, []error, error) {
	txid, err := TxID(tx)
	if err != nil {
		return schemas.Receipt{}, nil, err
	}
	if _, err := l.store.Record(ctx, txid, 0); err == nil {
		return schemas.Receipt{}, nil, fmt.Errorf("%w: %s", ErrDuplicateTx, txid)
	} else if !errors.Is(err, ErrTraceNotFound) {
		return schemas.Receipt{}, nil, err
	}

	kv, err := l.store.LoadKV(ctx)
	if err != nil {
		return schemas.Receipt{}, nil, err
	}
	height := l.height + 1
	sheet := newBalanceSheet(ctx, l.store)
	changed := make(map[string]string)
	receipt := schemas.Receipt{TxID: txid, Height: height}
	errs := make([]error, len(tx.Calls))

	for i, call := range tx.Calls {
		start := time.Now()
		rec := schemas.ExecutionRecord{
			TxID:     txid,
			VOut:     uint32(i),
			Height:   height,
			Caller:   tx.Caller,
			Opcode:   call.Opcode,
			Method:   swap.Opcode(call.Opcode).String(),
			Args:     call.Args,
			Incoming: call.Transfers,
		}

		staged, err := l.execCall(sheet, kv, txid, tx.Caller, call, &rec)
		if err == nil && onSuccess != nil {
			err = onSuccess(sheet)
		}
		if err != nil {
			sheet.drop()
			errs[i] = err
			rec.Payouts, rec.Data = nil, ""
			rec.Error = err.Error()
			rec.Steps = append(rec.Steps, "revert: "+err.Error())
		} else {
			sheet.keep()
			for k, v := range staged {
				kv[k] = v
				changed[k] = v
			}
			rec.OK = true
			rec.Steps = append(rec.Steps, "commit")
		}
		l.metrics.observeCall(rec, time.Since(start))
		receipt.Records = append(receipt.Records, rec)
	}

	if err := l.store.Commit(ctx, Commit{
		KV:       changed,
		Balances: sheet.dirty,
		Records:  receipt.Records,
		Height:   height,
	}); err != nil {
		return schemas.Receipt{}, nil, err
	}
	l.height = height

	if st, err := swap.LoadState(swap.MapKV(kv)); err == nil {
		l.metrics.observeState(st, height)
	}
	for _, rec := range receipt.Records {
		fields := logrus.Fields{"txid": rec.TxID, "vout": rec.VOut, "method": rec.Method, "caller": rec.Caller}
		if rec.OK {
			l.log.WithFields(fields).Info("call committed")
		} else {
			l.log.WithFields(fields).WithField("error", rec.Error).Warn("call reverted")
		}
		for _, fn := range l.listeners {
			fn(rec)
		}
	}
	return receipt, errs, nil
}

// execCall moves the attached transfers into the contract account, runs the
// contract and settles its payouts. Balance changes stay pending in sheet;
// contract writes are returned for the caller to keep or discard.
func (l *Ledger) execCall(sheet *balanceSheet, kv map[string]string, txid, caller string, call schemas.Call, rec *schemas.ExecutionRecord) (swap.MapKV, error) {
	incoming := make([]swap.IncomingTransfer, 0, len(call.Transfers))
	for _, t := range call.Transfers {
		tok := swap.TokenID(t.Token)
		if err := sheet.move(caller, l.account, tok, t.Amount); err != nil {
			return nil, err
		}
		rec.Steps = append(rec.Steps, fmt.Sprintf("debit %d %s from %s", t.Amount, t.Token, caller))
		incoming = append(incoming, swap.IncomingTransfer{Token: tok, Amount: t.Amount})
	}

	host := newCallHost(kv, incoming)
	resp, err := l.contract.Execute(host, swap.Invocation{
		Opcode: swap.Opcode(call.Opcode),
		Args:   call.Args,
		Caller: caller,
		TxID:   txid,
	})
	rec.Steps = append(rec.Steps, host.steps...)
	if err != nil {
		return nil, err
	}

	for _, t := range host.emitted {
		if err := sheet.move(l.account, t.Recipient, t.Token, t.Amount); err != nil {
			return nil, fmt.Errorf("settle payout: %w", err)
		}
		rec.Payouts = append(rec.Payouts, schemas.Payout{Token: string(t.Token), Amount: t.Amount, Recipient: t.Recipient})
	}
	rec.Data = resp.Data
	return host.staged, nil
}

// Fund credits account outside of any contract call.
func (l *Ledger) Fund(ctx context.Context, req schemas.FundRequest) (uint64, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sheet := newBalanceSheet(ctx, l.store)
	if err := sheet.credit(req.Account, swap.TokenID(req.Token), req.Amount); err != nil {
		return 0, err
	}
	sheet.keep()
	if err := l.store.Commit(ctx, Commit{Balances: sheet.dirty}); err != nil {
		return 0, err
	}
	l.log.WithFields(logrus.Fields{"account": req.Account, "token": req.Token, "amount": req.Amount}).Info("account funded")
	return sheet.dirty[req.Account][swap.TokenID(req.Token)], nil
}

// State returns the committed contract state.
func (l *Ledger) State(ctx context.Context) (swap.State, error) {
	kv, err := l.store.LoadKV(ctx)
	if err != nil {
		return swap.State{}, err
	}
	return swap.LoadState(swap.MapKV(kv))
}

func (l *Ledger) Balances(ctx context.Context, account string) (map[swap.TokenID]uint64, error) {
	return l.store.Balances(ctx, account)
}

func (l *Ledger) Trace(ctx context.Context, txid string, vout uint32) (schemas.ExecutionRecord, error) {
	return l.store.Record(ctx, txid, vout)
}

func (l *Ledger) Height() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// balanceSheet tracks balances touched by one transaction. Changes made by
// the current call sit in pending until keep or drop.
type balanceSheet struct {
	ctx     context.Context
	store   Store
	loaded  map[string]map[swap.TokenID]uint64
	dirty   map[string]map[swap.TokenID]uint64
	pending map[string]map[swap.TokenID]uint64
}

func newBalanceSheet(ctx context.Context, store Store) *balanceSheet {
	return &balanceSheet{
		ctx:     ctx,
		store:   store,
		loaded:  make(map[string]map[swap.TokenID]uint64),
		dirty:   make(map[string]map[swap.TokenID]uint64),
		pending: make(map[string]map[swap.TokenID]uint64),
	}
}

func (b *balanceSheet) get(account string, tok swap.TokenID) (uint64, error) {
	if v, ok := b.pending[account][tok]; ok {
		return v, nil
	}
	if v, ok := b.dirty[account][tok]; ok {
		return v, nil
	}
	bals, ok := b.loaded[account]
	if !ok {
		var err error
		if bals, err = b.store.Balances(b.ctx, account); err != nil {
			return 0, err
		}
		b.loaded[account] = bals
	}
	return bals[tok], nil
}

func (b *balanceSheet) set(account string, tok swap.TokenID, amount uint64) {
	if b.pending[account] == nil {
		b.pending[account] = make(map[swap.TokenID]uint64)
	}
	b.pending[account][tok] = amount
}

func (b *balanceSheet) credit(account string, tok swap.TokenID, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal, err := b.get(account, tok)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(bal, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s %s", ErrBalanceOverflow, account, tok)
	}
	b.set(account, tok, sum)
	return nil
}

func (b *balanceSheet) move(from, to string, tok swap.TokenID, amount uint64) error {
	bal, err := b.get(from, tok)
	if err != nil {
		return err
	}
	if bal < amount {
		return fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientFunds, from, bal, tok, amount)
	}
	b.set(from, tok, bal-amount)
	return b.credit(to, tok, amount)
}

func (b *balanceSheet) keep() {
	for account, bals := range b.pending {
		if b.dirty[account] == nil {
			b.dirty[account] = make(map[swap.TokenID]uint64)
		}
		for tok, amt := range bals {
			b.dirty[account][tok] = amt
		}
	}
	b.pending = make(map[string]map[swap.TokenID]uint64)
}

func (b *balanceSheet) drop() {
	b.pending = make(map[string]map[swap.TokenID]uint64)
}
