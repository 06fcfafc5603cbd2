package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

const stockKeyPrefix = "stock:"

// transferStockScript moves ARGV[1] units from KEYS[1] to KEYS[2].
// Returns 1 on success, 0 when the source holds too little and -1 when
// either key is missing.
var transferStockScript = redis.NewScript(`
local quantity = tonumber(ARGV[1])

local source = redis.call('GET', KEYS[1])
if not source or redis.call('EXISTS', KEYS[2]) == 0 then
	return -1
end

if tonumber(source) < quantity then
	return 0
end

redis.call('DECRBY', KEYS[1], quantity)
redis.call('INCRBY', KEYS[2], quantity)
return 1
`)

// RedisLedger keeps one counter per inventory record and applies transfers
// atomically in a Lua script.
type RedisLedger struct {
	client redis.UniversalClient
}

func NewRedisLedger(client redis.UniversalClient) *RedisLedger {
	return &RedisLedger{client: client}
}

func (r *RedisLedger) Transfer(ctx context.Context, t domain.Transfer) error {
	keys := []string{stockKey(t.From, t.Product), stockKey(t.To, t.Product)}
	result, err := transferStockScript.Run(ctx, r.client, keys, t.Quantity).Int()
	if err != nil {
		return fmt.Errorf("repository: redis transfer: %w", err)
	}
	switch result {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("repository: %s in %s: %w", t.Product, t.From, store.ErrInvalidTransfer)
	default:
		return fmt.Errorf("repository: %s %s->%s: %w", t.Product, t.From, t.To, store.ErrUnknownRecord)
	}
}

// Seed overwrites the counters with the stock levels in inv.
func (r *RedisLedger) Seed(ctx context.Context, inv []domain.InventoryRecord) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, rec := range inv {
			p.Set(ctx, stockKey(rec.Warehouse, rec.Product), rec.Stock, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository: redis seed: %w", err)
	}
	return nil
}

// Stock returns the counter for one record.
func (r *RedisLedger) Stock(ctx context.Context, warehouse, product string) (int, error) {
	n, err := r.client.Get(ctx, stockKey(warehouse, product)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, store.ErrUnknownRecord
	}
	if err != nil {
		return 0, fmt.Errorf("repository: redis stock: %w", err)
	}
	return n, nil
}

func stockKey(warehouse, product string) string {
	return stockKeyPrefix + strings.ToLower(warehouse) + "|" + strings.ToLower(product)
}
