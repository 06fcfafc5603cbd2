package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestStockKey(t *testing.T) {
	require.Equal(t, "stock:dubai central|cola 330ml", stockKey("Dubai Central", "Cola 330ml"))
}

func TestRedisLedger_Transfer(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)
	client.Del(ctx, stockKey("test-a", "X"), stockKey("test-b", "X"), stockKey("test-c", "X"))
	require.NoError(t, ledger.Seed(ctx, []domain.InventoryRecord{
		{Warehouse: "test-a", Product: "X", Stock: 10},
		{Warehouse: "test-b", Product: "X", Stock: 0},
	}))

	require.NoError(t, ledger.Transfer(ctx, domain.Transfer{Product: "X", From: "test-a", To: "test-b", Quantity: 4}))
	require.ErrorIs(t, ledger.Transfer(ctx, domain.Transfer{Product: "X", From: "test-a", To: "test-b", Quantity: 7}), store.ErrInvalidTransfer)
	require.ErrorIs(t, ledger.Transfer(ctx, domain.Transfer{Product: "X", From: "test-a", To: "test-c", Quantity: 1}), store.ErrUnknownRecord)

	a, err := ledger.Stock(ctx, "test-a", "X")
	require.NoError(t, err)
	b, err := ledger.Stock(ctx, "test-b", "X")
	require.NoError(t, err)
	require.Equal(t, 6, a)
	require.Equal(t, 4, b)

	_, err = ledger.Stock(ctx, "test-c", "X")
	require.ErrorIs(t, err, store.ErrUnknownRecord)
}

func TestRedisLedger_ConcurrentTransfersConserveStock(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)
	require.NoError(t, ledger.Seed(ctx, []domain.InventoryRecord{
		{Warehouse: "test-a", Product: "Y", Stock: 50},
		{Warehouse: "test-b", Product: "Y", Stock: 0},
	}))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ledger.Transfer(ctx, domain.Transfer{Product: "Y", From: "test-a", To: "test-b", Quantity: 1})
		}()
	}
	wg.Wait()

	a, err := ledger.Stock(ctx, "test-a", "Y")
	require.NoError(t, err)
	b, err := ledger.Stock(ctx, "test-b", "Y")
	require.NoError(t, err)
	require.Equal(t, 0, a)
	require.Equal(t, 50, b)
}
