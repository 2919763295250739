package devhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

// RedisStore keeps ledger state in redis under a key prefix:
//
//	<prefix>:kv              hash of contract keys
//	<prefix>:bal:<account>   hash of token balances
//	<prefix>:trace:<txid>:<vout>  JSON execution record
//	<prefix>:height          last committed height
type RedisStore struct {
	client *redis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", opts.Addr, err)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "fixedswap"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r *RedisStore) LoadKV(ctx context.Context) (map[string]string, error) {
	kv, err := r.client.HGetAll(ctx, r.key("kv")).Result()
	if err != nil {
		return nil, fmt.Errorf("load kv: %w", err)
	}
	return kv, nil
}

func (r *RedisStore) Balances(ctx context.Context, account string) (map[swap.TokenID]uint64, error) {
	raw, err := r.client.HGetAll(ctx, r.key("bal", account)).Result()
	if err != nil {
		return nil, fmt.Errorf("load balances of %s: %w", account, err)
	}
	out := make(map[swap.TokenID]uint64, len(raw))
	for tok, v := range raw {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("balance %s/%s: %w", account, tok, err)
		}
		out[swap.TokenID(tok)] = n
	}
	return out, nil
}

func (r *RedisStore) Record(ctx context.Context, txid string, vout uint32) (schemas.ExecutionRecord, error) {
	data, err := r.client.Get(ctx, r.key("trace", traceKey(txid, vout))).Bytes()
	if errors.Is(err, redis.Nil) {
		return schemas.ExecutionRecord{}, fmt.Errorf("%w: %s", ErrTraceNotFound, traceKey(txid, vout))
	}
	if err != nil {
		return schemas.ExecutionRecord{}, err
	}
	var rec schemas.ExecutionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return schemas.ExecutionRecord{}, fmt.Errorf("decode trace: %w", err)
	}
	return rec, nil
}

func (r *RedisStore) Height(ctx context.Context) (uint64, error) {
	h, err := r.client.Get(ctx, r.key("height")).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return h, err
}

// Commit writes the whole transaction in one MULTI/EXEC block.
func (r *RedisStore) Commit(ctx context.Context, c Commit) error {
	records := make(map[string][]byte, len(c.Records))
	for _, rec := range c.Records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode trace: %w", err)
		}
		records[r.key("trace", traceKey(rec.TxID, rec.VOut))] = data
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(c.KV) > 0 {
			fields := make(map[string]interface{}, len(c.KV))
			for k, v := range c.KV {
				fields[k] = v
			}
			pipe.HSet(ctx, r.key("kv"), fields)
		}
		for account, bals := range c.Balances {
			if len(bals) == 0 {
				continue
			}
			fields := make(map[string]interface{}, len(bals))
			for tok, amt := range bals {
				fields[string(tok)] = strconv.FormatUint(amt, 10)
			}
			pipe.HSet(ctx, r.key("bal", account), fields)
		}
		for k, data := range records {
			pipe.Set(ctx, k, data, 0)
		}
		if c.Height > 0 {
			pipe.Set(ctx, r.key("height"), c.Height, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
