package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const registerAttempts = 5

// backoff возвращает паузу перед попыткой attempt.
var backoff = exponentialBackoff

// exponentialBackoff: 1s, 2s, 4s… но не больше 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Commands - команды, которые показываются в меню Telegram.
func Commands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "menu", Description: "Главное меню"},
		{Command: "add", Description: "Добавить расход"},
		{Command: "stats", Description: "Статистика"},
		{Command: "profile", Description: "Профиль"},
		{Command: "export", Description: "Экспорт CSV"},
		{Command: "undo", Description: "Отменить последнюю запись"},
		{Command: "reset", Description: "Удалить все записи"},
		{Command: "categories", Description: "Категории"},
		{Command: "help", Description: "Помощь"},
		{Command: "start", Description: "Старт"},
	}
}

// RegisterCommands регистрирует команды бота. Вызов идемпотентен, поэтому
// при ошибке повторяется с экспоненциальной паузой.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	cfg := tgbotapi.NewSetMyCommands(Commands()...)

	var lastErr error
	for attempt := 0; attempt < registerAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt - 1)
			b.logger.WarnContext(ctx, "retrying command registration",
				"attempt", attempt+1, "delay", delay, "error", lastErr)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if _, err := b.api.Request(cfg); err != nil {
			lastErr = err
			continue
		}
		b.logger.InfoContext(ctx, "bot commands registered", "count", len(cfg.Commands))
		return nil
	}
	return fmt.Errorf("register commands after %d attempts: %w", registerAttempts, lastErr)
}
