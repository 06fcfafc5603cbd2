package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ops-agent/internal/usecase"
)

var (
	transferProduct  string
	transferFrom     string
	transferTo       string
	transferQuantity int
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move stock between warehouses",
	Long: `Move stock of one product from one warehouse to another. The transfer
is rejected without changes when the source holds too little stock.
New levels are written to the record source (the inventory CSV file,
DynamoDB or MySQL) or to Redis with --ledger redis. --ledger none is
refused since nothing would be saved.

Examples:
  opsctl transfer --product "Cola 330ml" --from "Dubai Central" --to "Sharjah Hub" --quantity 200`,
	Args: cobra.NoArgs,
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().StringVar(&transferProduct, "product", "", "Product name")
	transferCmd.Flags().StringVar(&transferFrom, "from", "", "Source warehouse")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "Destination warehouse")
	transferCmd.Flags().IntVar(&transferQuantity, "quantity", 0, "Units to move")
	for _, name := range []string{"product", "from", "to", "quantity"} {
		_ = transferCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	svc, b, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()
	if b.ledger == nil {
		return fmt.Errorf("ledger %q cannot persist transfers; use the record source or --ledger redis", cfg.Ledger)
	}

	out, err := svc.Transfer(cmd.Context(), usecase.TransferInput{
		Product:  transferProduct,
		From:     transferFrom,
		To:       transferTo,
		Quantity: transferQuantity,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s now holds %d, %s now holds %d\n",
		out.Source.Product, out.Source.Warehouse, out.Source.Stock,
		out.Destination.Warehouse, out.Destination.Stock)
	return nil
}
