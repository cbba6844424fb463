package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dorraborra/finbot/internal/conversation"
	"github.com/dorraborra/finbot/internal/logger"
	"github.com/dorraborra/finbot/internal/report"
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	logger.FromContext(ctx).DebugContext(ctx, "command received", "command", message.Command())

	switch message.Command() {
	case "start":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleStart(ctx, userID) }, false)
		b.sendHTML(ctx, chatID, welcomeText, mainMenuKeyboard())
	case "menu":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleStart(ctx, userID) }, false)
		b.sendHTML(ctx, chatID, "Главное меню:", mainMenuKeyboard())
	case "add":
		if args != "" {
			b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleAmountInput(ctx, userID, args) }, true)
			return
		}
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleStart(ctx, userID) }, true)
	case "stats":
		if kind, err := report.ParsePeriodKind(args); err == nil {
			b.handleStats(ctx, chatID, userID, kind)
			return
		}
		b.sendHTML(ctx, chatID, "Выбери период:", statsKeyboard())
	case "profile":
		b.handleProfile(ctx, chatID, userID)
	case "export":
		b.handleExport(ctx, chatID, userID)
	case "undo":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleUndo(ctx, userID) }, true)
	case "reset":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleResetRequest(ctx, userID) }, true)
	case "categories":
		b.sendHTML(ctx, chatID, renderCategories(b.catalog), mainMenuKeyboard())
	case "help":
		b.sendHTML(ctx, chatID, helpText, nil)
	default:
		b.sendHTML(ctx, chatID, "Не знаю такой команды. Список команд: /help", nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Отвечаем на callback, чтобы убрать loading indicator
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
			logger.FromContext(ctx).DebugContext(ctx, "failed to answer callback", "error", err)
		}
	}()

	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID
	data := callback.Data

	logger.FromContext(ctx).DebugContext(ctx, "callback received", "data", data)

	switch {
	case data == cbNoop:
	case strings.HasPrefix(data, cbMenu):
		b.handleMenu(ctx, chatID, userID, strings.TrimPrefix(data, cbMenu))

	case strings.HasPrefix(data, cbCategory):
		key := strings.TrimPrefix(data, cbCategory)
		b.apply(ctx, chatID, func() (conversation.Action, error) {
			return b.machine.HandleCategorySelection(ctx, userID, key)
		}, true)

	case strings.HasPrefix(data, cbPage):
		n, err := strconv.Atoi(strings.TrimPrefix(data, cbPage))
		if err != nil {
			return
		}
		action, err := b.machine.HandlePageRequest(ctx, userID, n)
		if err != nil {
			b.sendError(ctx, chatID, err)
			return
		}
		b.editOrSend(ctx, callback.Message, action)

	case strings.HasPrefix(data, cbStats):
		if kind, err := report.ParsePeriodKind(strings.TrimPrefix(data, cbStats)); err == nil {
			b.handleStats(ctx, chatID, userID, kind)
		}

	case strings.HasPrefix(data, cbPie):
		if kind, err := report.ParsePeriodKind(strings.TrimPrefix(data, cbPie)); err == nil {
			b.handleChart(ctx, chatID, userID, kind, b.charts.GenerateCategoryPieChart)
		}

	case strings.HasPrefix(data, cbBars):
		if kind, err := report.ParsePeriodKind(strings.TrimPrefix(data, cbBars)); err == nil {
			b.handleChart(ctx, chatID, userID, kind, b.charts.GenerateCategoryBarChart)
		}

	case data == cbReset+"confirm":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleResetConfirm(ctx, userID) }, true)

	case data == cbReset+"cancel":
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleResetCancel(ctx, userID) }, true)
	}
}

func (b *Bot) handleMenu(ctx context.Context, chatID, userID int64, item string) {
	switch item {
	case menuAdd:
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleStart(ctx, userID) }, true)
	case menuStats:
		b.sendHTML(ctx, chatID, "Выбери период:", statsKeyboard())
	case menuExport:
		b.handleExport(ctx, chatID, userID)
	case menuCats:
		b.sendHTML(ctx, chatID, renderCategories(b.catalog), mainMenuKeyboard())
	case menuProfile:
		b.handleProfile(ctx, chatID, userID)
	case menuUndo:
		b.apply(ctx, chatID, func() (conversation.Action, error) { return b.machine.HandleUndo(ctx, userID) }, true)
	default:
		b.sendHTML(ctx, chatID, "Выбери действие:", mainMenuKeyboard())
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Text == "" {
		b.sendHTML(ctx, message.Chat.ID, "Отправь число, например: 390", nil)
		return
	}
	userID := message.From.ID
	b.apply(ctx, message.Chat.ID, func() (conversation.Action, error) {
		return b.machine.HandleText(ctx, userID, message.Text)
	}, true)
}

// apply выполняет переход автомата и, если reply, отправляет ответ.
func (b *Bot) apply(ctx context.Context, chatID int64, step func() (conversation.Action, error), reply bool) {
	action, err := step()
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	logger.FromContext(ctx).DebugContext(ctx, "conversation step", "action", action.Kind.String())
	if !reply {
		return
	}

	text, markup := renderAction(action, b.catalog)
	b.sendHTML(ctx, chatID, text, markup)
}

// editOrSend заменяет клавиатуру категорий в исходном сообщении.
func (b *Bot) editOrSend(ctx context.Context, message *tgbotapi.Message, action conversation.Action) {
	text, markup := renderAction(action, b.catalog)
	keyboard, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || action.Kind != conversation.ActionChooseCategory {
		b.sendHTML(ctx, message.Chat.ID, text, markup)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(message.Chat.ID, message.MessageID, text, keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(ctx, edit)
}

func (b *Bot) handleStats(ctx context.Context, chatID, userID int64, kind report.PeriodKind) {
	stats, err := b.reporter.Stats(ctx, kind, userID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	if stats.Empty() {
		b.sendHTML(ctx, chatID, renderStats(stats), mainMenuKeyboard())
		return
	}
	b.sendHTML(ctx, chatID, renderStats(stats), chartKeyboard(kind))
}

func (b *Bot) handleChart(ctx context.Context, chatID, userID int64, kind report.PeriodKind, render func(report.Breakdown) ([]byte, error)) {
	stats, err := b.reporter.Stats(ctx, kind, userID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	png, err := render(stats.Breakdown)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	if png == nil {
		b.sendHTML(ctx, chatID, renderStats(stats), mainMenuKeyboard())
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "chart.png", Bytes: png})
	photo.Caption = stats.Period.Title + " (" + stats.Period.Caption() + ")"
	b.send(ctx, photo)
}

func (b *Bot) handleProfile(ctx context.Context, chatID, userID int64) {
	profile, err := b.reporter.Profile(ctx, userID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	b.sendHTML(ctx, chatID, renderProfile(profile), mainMenuKeyboard())
}

func (b *Bot) handleExport(ctx context.Context, chatID, userID int64) {
	rows, err := b.reporter.Export(ctx, userID)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}
	if len(rows) == 0 {
		b.sendHTML(ctx, chatID, "Записей пока нет, выгружать нечего", mainMenuKeyboard())
		return
	}

	data, err := EncodeCSV(rows)
	if err != nil {
		b.sendError(ctx, chatID, err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "expenses_" + strconv.FormatInt(userID, 10) + ".csv",
		Bytes: data,
	})
	doc.Caption = "📁 CSV экспорт"
	b.send(ctx, doc)
}
