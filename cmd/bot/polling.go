package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runPolling(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()

	// getUpdates не работает, пока у бота установлен webhook.
	if _, err := a.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	a.registerCommands(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bot.Start(ctx, a.api)
	})
	g.Go(func() error {
		return a.sessions.RunSweeper(ctx, sweepInterval)
	})
	return g.Wait()
}
