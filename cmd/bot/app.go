package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dorraborra/finbot/internal/bot"
	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/config"
	"github.com/dorraborra/finbot/internal/conversation"
	"github.com/dorraborra/finbot/internal/events"
	"github.com/dorraborra/finbot/internal/repository"
	"github.com/dorraborra/finbot/internal/service"
)

// sweepInterval - как часто чистить устаревшие сессии.
const sweepInterval = time.Minute

// app собирает зависимости бота.
type app struct {
	ledger    repository.Ledger
	publisher events.Publisher
	tracker   *service.ExpenseTracker
	sessions  *conversation.SessionStore
	api       *tgbotapi.BotAPI
	bot       *bot.Bot
}

func openLedger(cfg *config.Config) (repository.Ledger, error) {
	opts := []repository.Option{repository.WithLocation(cfg.Location)}

	if cfg.StorageBackend == config.BackendSupabase {
		ledger, err := repository.NewSupabaseLedger(cfg.SupabaseURL, cfg.SupabaseKey, opts...)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	}

	ledger, err := repository.NewSQLiteLedger(cfg.DBPath, opts...)
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newTracker(cfg *config.Config, ledger repository.Ledger, publisher events.Publisher) *service.ExpenseTracker {
	return service.NewExpenseTracker(ledger, catalog.Default(),
		service.WithPublisher(publisher),
		service.WithLocation(cfg.Location),
	)
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	ledger, err := openLedger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	publisher, err := openPublisher(cfg)
	if err != nil {
		ledger.Close()
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		publisher.Close()
		ledger.Close()
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	slog.Info("authorized on telegram", "username", api.Self.UserName)

	tracker := newTracker(cfg, ledger, publisher)
	sessions := conversation.NewSessionStore(cfg.SessionTTL)
	machine := conversation.NewMachine(tracker, tracker.Catalog(), sessions, cfg.PageSize)

	return &app{
		ledger:    ledger,
		publisher: publisher,
		tracker:   tracker,
		sessions:  sessions,
		api:       api,
		bot:       bot.NewBot(api, machine, tracker, tracker.Catalog(), cfg.MaxWorkers),
	}, nil
}

// registerCommands не останавливает запуск: без меню команд бот работает.
func (a *app) registerCommands(ctx context.Context) {
	if err := a.bot.RegisterCommands(ctx); err != nil {
		slog.WarnContext(ctx, "failed to register bot commands", "error", err)
	}
}

func (a *app) Close() error {
	return errors.Join(a.publisher.Close(), a.ledger.Close())
}
