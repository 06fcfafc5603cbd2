package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"ops-agent/internal/config"
	"ops-agent/internal/repository"
	"ops-agent/internal/store"
	"ops-agent/internal/usecase"
)

// backend bundles the record source and transfer ledger chosen by config.
type backend struct {
	loader  usecase.SnapshotLoader
	ledger  store.Ledger
	closers []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("close backend", "err", err)
		}
	}
}

func openBackend(ctx context.Context, c *config.Config) (*backend, error) {
	b := &backend{}
	var ownLedger store.Ledger

	switch c.Backend {
	case config.BackendCSV:
		files := repository.CSVFiles{InventoryPath: c.CSV.Inventory, OrdersPath: c.CSV.Orders}
		b.loader, ownLedger = files, files
	case config.BackendDynamoDB:
		client, err := openDynamo(ctx, c)
		if err != nil {
			return nil, err
		}
		b.loader, ownLedger = client, client
	case config.BackendMySQL:
		db, err := openMySQL(c)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		adapter := repository.NewMySQLAdapter(db)
		b.loader, ownLedger = adapter, adapter
	default:
		return nil, fmt.Errorf("unsupported backend %q", c.Backend)
	}

	switch c.Ledger {
	case config.LedgerDefault:
		b.ledger = ownLedger
	case config.LedgerRedis:
		client := openRedis(c)
		b.closers = append(b.closers, client.Close)
		b.ledger = repository.NewRedisLedger(client)
	}
	return b, nil
}

func openDynamo(ctx context.Context, c *config.Config) (*repository.DynamoClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return repository.NewDynamoClient(awsdynamodb.NewFromConfig(awsCfg), c.DynamoDB.InventoryTable, c.DynamoDB.OrdersTable)
}

func openMySQL(c *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.MySQL.DSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func openRedis(c *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
}

// newService wires an AskService over the configured backend. The caller
// closes the returned backend.
func newService(ctx context.Context) (*usecase.AskService, *backend, error) {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	opts := []usecase.Option{usecase.WithLogger(slog.Default())}
	if b.ledger != nil {
		opts = append(opts, usecase.WithLedger(b.ledger))
	}
	svc, err := usecase.NewAskService(params, b.loader, cfg.ParamPrefix, cfg.MaxQuestionLength, 0, opts...)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return svc, b, nil
}
