package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ops-agent/internal/config"
	"ops-agent/internal/repository"
)

var seedTarget string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the CSV files into a backend",
	Long: `Read the configured CSV files and write their records to DynamoDB, MySQL
or the Redis stock ledger. Existing records with the same key are
overwritten. MySQL tables are created if missing.

Examples:
  opsctl seed --to mysql
  opsctl seed --to redis`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedTarget, "to", "", "Target: dynamodb, mysql or redis")
	_ = seedCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	snap, err := repository.CSVFiles{InventoryPath: cfg.CSV.Inventory, OrdersPath: cfg.CSV.Orders}.LoadSnapshot(ctx)
	if err != nil {
		return err
	}

	switch seedTarget {
	case config.BackendDynamoDB:
		client, err := openDynamo(ctx, cfg)
		if err != nil {
			return err
		}
		err = client.SaveSnapshot(ctx, snap)
		if err != nil {
			return err
		}
	case config.BackendMySQL:
		db, err := openMySQL(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		adapter := repository.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			return err
		}
		if err := adapter.SaveSnapshot(ctx, snap); err != nil {
			return err
		}
	case config.LedgerRedis:
		client := openRedis(cfg)
		defer client.Close()
		if err := repository.NewRedisLedger(client).Seed(ctx, snap.Inventory); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported seed target %q", seedTarget)
	}

	slog.Info("seeded", "target", seedTarget, "inventory", len(snap.Inventory), "orders", len(snap.Orders))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d inventory records and %d orders into %s\n",
		len(snap.Inventory), len(snap.Orders), seedTarget)
	return nil
}
