package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dorraborra/finbot/internal/config"
	"github.com/dorraborra/finbot/internal/logger"
)

var (
	version = "dev"
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "finbot",
		Short: "💸 Telegram-бот для учёта расходов",
		Long: `finbot — Telegram-бот для учёта личных расходов.

Без подкоманды запускается в режиме long polling.`,
		PersistentPreRunE: initConfig,
		RunE:              runPolling,
		SilenceUsage:      true,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	flags.String("storage-backend", config.BackendSQLite, "storage backend (sqlite, supabase)")
	flags.String("db-path", "finances.db", "path to the SQLite database")

	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = viper.BindPFlag(config.KeyStorageBackend, flags.Lookup("storage-backend"))
	_ = viper.BindPFlag(config.KeyDBPath, flags.Lookup("db-path"))

	rootCmd.AddCommand(webhookCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importLegacyCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Setup(c.LogLevel, c.LogFormat); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	cfg = c
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("finbot version", "version", version)
		},
	}
}
