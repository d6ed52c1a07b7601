package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/bot"
	"github.com/zhibeky/quran-ai/internal/observability"
	"github.com/zhibeky/quran-ai/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		defer observability.Sync()

		if cfg.Telegram.Token == "" {
			return errors.New("telegram token is not set (TELEGRAM_BOT_TOKEN)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		controller, err := buildController(logger)
		if err != nil {
			return err
		}

		tracker, closeTracker, err := buildTracker(ctx, logger)
		if err != nil {
			return err
		}
		defer closeTracker()

		b, err := bot.New(cfg.Telegram, controller, tracker, logger)
		if err != nil {
			return err
		}

		if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("Shutdown complete.")
		return nil
	},
}

// buildTracker connects the user-tracking store when a database URL is
// configured, or falls back to a no-op tracker.
func buildTracker(ctx context.Context, logger *zap.Logger) (schemas.UserTracker, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("No database configured, user tracking disabled.")
		return store.NoopTracker{}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("creating database pool: %w", err)
	}
	st, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("initializing user store: %w", err)
	}
	return st, pool.Close, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
