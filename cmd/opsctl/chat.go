package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ops-agent/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Long: `Start an interactive session. Follow-up questions such as "more
details" refer to the previous answer. Type "exit" to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, b, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer b.Close()

	w := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var sessionID string
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		out, err := svc.Ask(cmd.Context(), usecase.AskInput{Question: line, SessionID: sessionID})
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			fmt.Fprintf(w, "error: %s\n", ucErr.Reason)
			continue
		}
		if err != nil {
			return err
		}
		sessionID = out.SessionID
		fmt.Fprintln(w, out.Answer)
		renderAttachment(w, out.Attachment)
	}
}
