package fixedswap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hasura/go-graphql-client"
	"github.com/sirupsen/logrus"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

// Client talks to a fixed-swap host: the REST API of a development host and,
// when GraphQLEndpoint is set, the GraphQL API of a production indexer.
type Client struct {
	config Config
	http   *http.Client
	gql    *graphql.Client
	log    *logrus.Entry
}

type Config struct {
	Endpoint        string
	GraphQLEndpoint string
	Timeout         time.Duration
	Logger          *logrus.Logger
}

// APIError is a non-2xx answer from the host.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("host returned status %d: %s", e.Status, e.Message)
}

// CallError is a call the contract reverted.
type CallError struct {
	Record schemas.ExecutionRecord
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s reverted (%s:%d): %s", e.Record.Method, e.Record.TxID, e.Record.VOut, e.Record.Error)
}

// NewClient creates a new fixed-swap client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	httpClient := &http.Client{Timeout: config.Timeout}

	c := &Client{
		config: config,
		http:   httpClient,
		log:    logger.WithField("component", "fixedswap-sdk"),
	}
	if config.GraphQLEndpoint != "" {
		c.gql = graphql.NewClient(config.GraphQLEndpoint, httpClient)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := strings.TrimRight(c.config.Endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithField("url", endpoint).Warn("host request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Deploy initializes the contract with seed reserves.
func (c *Client) Deploy(ctx context.Context, req schemas.DeployRequest) (*schemas.Receipt, error) {
	var receipt schemas.Receipt
	if err := c.do(ctx, http.MethodPost, "/api/v1/deploy", req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Submit sends a transaction. Reverted calls are reported in the receipt.
func (c *Client) Submit(ctx context.Context, tx *schemas.Transaction) (*schemas.Receipt, error) {
	if tx.SchemaVersion == "" {
		tx.SchemaVersion = schemas.CurrentVersion
	}
	if err := schemas.ValidateTransactionStruct(tx); err != nil {
		return nil, err
	}
	var receipt schemas.Receipt
	if err := c.do(ctx, http.MethodPost, "/api/v1/tx", tx, &receipt); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"txid": receipt.TxID, "height": receipt.Height}).Debug("transaction accepted")
	return &receipt, nil
}

// Call submits a single call and returns its record, or a *CallError if the
// contract reverted it.
func (c *Client) Call(ctx context.Context, caller string, nonce uint64, call schemas.Call) (*schemas.ExecutionRecord, error) {
	receipt, err := c.Submit(ctx, &schemas.Transaction{
		SchemaVersion: schemas.CurrentVersion,
		Caller:        caller,
		Nonce:         nonce,
		Calls:         []schemas.Call{call},
	})
	if err != nil {
		return nil, err
	}
	if len(receipt.Records) != 1 {
		return nil, fmt.Errorf("expected 1 record, got %d", len(receipt.Records))
	}
	rec := receipt.Records[0]
	if !rec.OK {
		return &rec, &CallError{Record: rec}
	}
	return &rec, nil
}

// Swap sends amount of token and returns the converted output.
func (c *Client) Swap(ctx context.Context, caller string, nonce uint64, token string, amount uint64) (uint64, error) {
	rec, err := c.Call(ctx, caller, nonce, schemas.Call{
		Opcode:    uint64(swap.OpSwap),
		Transfers: []schemas.Transfer{{Token: token, Amount: amount}},
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(rec.Data, 10, 64)
}

// Query runs a read-only opcode and returns its payload.
func (c *Client) Query(ctx context.Context, caller string, nonce uint64, op swap.Opcode) (string, error) {
	if !op.ReadOnly() {
		return "", fmt.Errorf("%s is not a query", op)
	}
	rec, err := c.Call(ctx, caller, nonce, schemas.Call{Opcode: uint64(op)})
	if err != nil {
		return "", err
	}
	return rec.Data, nil
}

func (c *Client) Fund(ctx context.Context, req schemas.FundRequest) (uint64, error) {
	var out struct {
		Balance uint64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/fund", req, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (c *Client) State(ctx context.Context) (*swap.State, error) {
	var st swap.State
	if err := c.do(ctx, http.MethodGet, "/api/v1/state", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Balances(ctx context.Context, account string) (map[string]uint64, error) {
	var bals map[string]uint64
	if err := c.do(ctx, http.MethodGet, "/api/v1/balances/"+url.PathEscape(account), nil, &bals); err != nil {
		return nil, err
	}
	return bals, nil
}

// Trace fetches the execution record of (txid, vout) from the REST API.
func (c *Client) Trace(ctx context.Context, txid string, vout uint32) (*schemas.ExecutionRecord, error) {
	var rec schemas.ExecutionRecord
	path := fmt.Sprintf("/api/v1/trace/%s/%d", url.PathEscape(txid), vout)
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RemoteTrace fetches the execution record of (txid, vout) over GraphQL.
func (c *Client) RemoteTrace(ctx context.Context, txid string, vout uint32) (*schemas.ExecutionRecord, error) {
	if c.gql == nil {
		return nil, fmt.Errorf("no GraphQL endpoint configured")
	}

	var query struct {
		Trace struct {
			TxID   string   `graphql:"txid"`
			VOut   int      `graphql:"vout"`
			Height int64    `graphql:"height"`
			Caller string   `graphql:"caller"`
			Opcode int64    `graphql:"opcode"`
			Method string   `graphql:"method"`
			OK     bool     `graphql:"ok"`
			Error  string   `graphql:"error"`
			Data   string   `graphql:"data"`
			Steps  []string `graphql:"steps"`
		} `graphql:"trace(txid: $txid, vout: $vout)"`
	}
	err := c.gql.Query(ctx, &query, map[string]interface{}{
		"txid": graphql.String(txid),
		"vout": graphql.Int(vout),
	})
	if err != nil {
		c.log.WithError(err).WithField("txid", txid).Warn("remote trace failed")
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}

	t := query.Trace
	return &schemas.ExecutionRecord{
		TxID:   t.TxID,
		VOut:   uint32(t.VOut),
		Height: uint64(t.Height),
		Caller: t.Caller,
		Opcode: uint64(t.Opcode),
		Method: t.Method,
		OK:     t.OK,
		Error:  t.Error,
		Data:   t.Data,
		Steps:  t.Steps,
	}, nil
}
