package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dorraborra/finbot/internal/bot"
	"github.com/dorraborra/finbot/internal/config"
	"github.com/dorraborra/finbot/internal/events"
	"github.com/dorraborra/finbot/internal/repository"
)

var errSQLiteOnly = errors.New("command requires STORAGE_BACKEND=sqlite")

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.StorageBackend != config.BackendSQLite {
				return errSQLiteOnly
			}
			if err := repository.RunMigrations(cfg.DBPath); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			slog.InfoContext(cmd.Context(), "migrations applied", "db_path", cfg.DBPath)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's expenses as CSV to stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := openLedger(cfg)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer ledger.Close()

			tracker := newTracker(cfg, ledger, events.NopPublisher{})
			rows, err := tracker.Export(cmd.Context(), userID)
			if err != nil {
				return err
			}

			data, err := bot.EncodeCSV(rows)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Telegram user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func importLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <path>",
		Short: "Import expenses from the old SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StorageBackend != config.BackendSQLite {
				return errSQLiteOnly
			}
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("legacy database: %w", err)
			}

			ledger, err := repository.NewSQLiteLedger(cfg.DBPath, repository.WithLocation(cfg.Location))
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer ledger.Close()

			n, err := ledger.ImportLegacy(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "legacy expenses imported", "count", n, "source", args[0])
			return nil
		},
	}
}
