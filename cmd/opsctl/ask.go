package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ops-agent/internal/usecase"
)

var (
	askSession string
	askFormat  string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question",
	Long: `Answer one question about stock, delays, drivers, routes or a region.

Examples:
  opsctl ask "which items are low on stock?"
  opsctl ask "كم عدد الشحنات المتأخرة"
  opsctl ask "status in dubai" --format=json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "Session id to continue")
	askCmd.Flags().StringVar(&askFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(askFormat)
	if err != nil {
		return err
	}
	svc, b, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	out, err := svc.Ask(cmd.Context(), usecase.AskInput{
		Question:  strings.Join(args, " "),
		SessionID: askSession,
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format == FormatJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintln(w, out.Answer)
	renderAttachment(w, out.Attachment)
	return nil
}
