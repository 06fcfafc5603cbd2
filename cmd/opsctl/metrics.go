package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ops-agent/internal/metrics"
)

var metricsFormat string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the dashboard headline figures",
	Long: `Show total stock, delayed shipments and delivery efficiency.

Examples:
  opsctl metrics
  opsctl metrics --format=json`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	format, err := parseFormat(metricsFormat)
	if err != nil {
		return err
	}
	svc, b, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	s, err := svc.Summary(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Total stock:          %s units\n", metrics.FormatInt(s.TotalStock))
	fmt.Fprintf(w, "Delayed shipments:    %s of %s\n", metrics.FormatInt(s.Delayed), metrics.FormatInt(s.Orders))
	fmt.Fprintf(w, "Delivery efficiency:  %s\n", metrics.FormatPercent(s.DeliveryRate))
	return nil
}
