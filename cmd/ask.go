package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhibeky/quran-ai/internal/observability"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question on the command line.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		defer observability.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		controller, err := buildController(logger)
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		answer := controller.AnswerQuestion(ctx, question)

		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
