// Package bot - Telegram-транспорт: принимает обновления, передаёт их
// автомату диалога и сервису отчётов и отправляет ответы.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/charts"
	"github.com/dorraborra/finbot/internal/conversation"
	"github.com/dorraborra/finbot/internal/logger"
	"github.com/dorraborra/finbot/internal/model"
	"github.com/dorraborra/finbot/internal/report"
	"github.com/dorraborra/finbot/internal/service"
)

// Sender - часть Bot API, через которую бот отвечает. *tgbotapi.BotAPI
// подходит как есть.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UpdateSource - источник обновлений для long polling.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Reporter строит отчёты по журналу.
type Reporter interface {
	Stats(ctx context.Context, kind report.PeriodKind, userID int64) (*service.StatsReport, error)
	Profile(ctx context.Context, userID int64) (*report.Profile, error)
	Export(ctx context.Context, userID int64) ([]model.ExportRow, error)
}

type Bot struct {
	api        Sender
	machine    *conversation.Machine
	reporter   Reporter
	catalog    *catalog.Catalog
	charts     *charts.ChartGenerator
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewBot(api Sender, machine *conversation.Machine, reporter Reporter, cat *catalog.Catalog, maxWorkers int) *Bot {
	b := &Bot{
		api:      api,
		machine:  machine,
		reporter: reporter,
		catalog:  cat,
		charts:   charts.NewChartGenerator(),
		logger:   slog.With("component", "bot"),
	}
	b.dispatcher = NewDispatcher(maxWorkers, b.handleUpdate)
	return b
}

// Start запускает бота в режиме long polling и блокируется до отмены ctx.
// Перед возвратом дожидается обработки уже принятых обновлений.
func (b *Bot) Start(ctx context.Context, src UpdateSource) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := src.GetUpdatesChan(u)
	b.logger.InfoContext(ctx, "long polling started")

	// Принятые обновления дорабатываются и после отмены ctx.
	work := context.WithoutCancel(ctx)

	defer b.dispatcher.Wait()
	for {
		select {
		case <-ctx.Done():
			src.StopReceivingUpdates()
			b.logger.InfoContext(ctx, "long polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatcher.Submit(work, update)
		}
	}
}

// HandleWebhook - точка входа для обработки входящих webhook-обновлений
func (b *Bot) HandleWebhook(ctx context.Context, body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}

	b.dispatcher.Submit(ctx, update)
	return nil
}

// Wait дожидается обработки всех принятых обновлений.
func (b *Bot) Wait() {
	b.dispatcher.Wait()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	userID, ok := updateUserID(update)
	if !ok {
		return
	}

	l := b.logger.With("trace_id", uuid.NewString(), "user_id", userID, "update_id", update.UpdateID)
	ctx = logger.WithContext(ctx, l)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func updateUserID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	}
	return 0, false
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "failed to send message", "error", err)
	}
}

func (b *Bot) sendHTML(ctx context.Context, chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.send(ctx, msg)
}

// sendError сообщает пользователю о сбое. Детали ошибки остаются в логе.
func (b *Bot) sendError(ctx context.Context, chatID int64, err error) {
	l := logger.FromContext(ctx)
	text := "❌ Что-то пошло не так, попробуй ещё раз"
	if errors.Is(err, model.ErrStorageUnavailable) {
		text = "❌ Не удалось сохранить/прочитать данные, попробуй ещё раз"
	}
	l.ErrorContext(ctx, "request failed", "error", err)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	b.send(ctx, msg)
}
