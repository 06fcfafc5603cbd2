package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ops-agent/internal/config"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "opsctl",
	Short: "Ask questions about warehouse stock and deliveries",
	Long: `opsctl answers natural-language questions about inventory and orders,
in English or Arabic, and moves stock between warehouses.

Records are read from CSV files, DynamoDB or MySQL. Transfers can be
written through to the record source or to a Redis stock ledger.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return err
		}
		level, err := parseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		cfg = loaded
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default ./ops.yaml)")
	flags.String("backend", "", "Record source: csv, dynamodb or mysql")
	flags.String("ledger", "", "Transfer ledger: none or redis (default: the record source)")
	flags.Int("threshold", 0, "Low-stock threshold in units")
	flags.String("aliases", "", "YAML file of extra region aliases")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
