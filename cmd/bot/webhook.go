package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func webhookCmd() *cobra.Command {
	var publicURL string

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Serve Telegram updates over HTTPS webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWebhook(cmd.Context(), publicURL)
		},
	}
	cmd.Flags().StringVar(&publicURL, "url", "", "public webhook URL to register with Telegram")
	return cmd
}

func runWebhook(ctx context.Context, publicURL string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if publicURL != "" {
		wh, err := tgbotapi.NewWebhook(publicURL)
		if err != nil {
			return fmt.Errorf("invalid webhook url: %w", err)
		}
		if _, err := a.api.Request(wh); err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}
		slog.InfoContext(ctx, "webhook registered", "url", publicURL)
	}
	a.registerCommands(ctx)

	mux := http.NewServeMux()
	// Принятые обновления дорабатываются и после сигнала остановки.
	mux.Handle(cfg.WebhookPath, a.bot.WebhookHandler(context.WithoutCancel(ctx)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.WebhookAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "webhook server started", "addr", cfg.WebhookAddr, "path", cfg.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.sessions.RunSweeper(gctx, sweepInterval)
	})

	err = g.Wait()
	a.bot.Wait()
	slog.InfoContext(ctx, "webhook server stopped")
	return err
}
