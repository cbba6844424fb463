package bot

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/model"
	"github.com/dorraborra/finbot/internal/report"
)

// Префиксы callback-данных.
const (
	cbMenu     = "menu:"
	cbCategory = "cat:"
	cbPage     = "page:"
	cbStats    = "stats:"
	cbPie      = "chart:"
	cbBars     = "bars:"
	cbReset    = "reset:"
	cbNoop     = "noop"
)

// Пункты главного меню.
const (
	menuAdd     = "add"
	menuStats   = "stats"
	menuExport  = "export"
	menuCats    = "cats"
	menuProfile = "profile"
	menuUndo    = "undo"
)

const categoriesPerRow = 2

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить", cbMenu+menuAdd),
			tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", cbMenu+menuStats),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Профиль", cbMenu+menuProfile),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Отменить", cbMenu+menuUndo),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📁 Экспорт", cbMenu+menuExport),
			tgbotapi.NewInlineKeyboardButtonData("📋 Категории", cbMenu+menuCats),
		),
	)
}

func statsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сегодня", cbStats+report.Today.String()),
			tgbotapi.NewInlineKeyboardButtonData("7 дней", cbStats+report.Last7Days.String()),
			tgbotapi.NewInlineKeyboardButtonData("Месяц", cbStats+report.CurrentMonth.String()),
		),
	)
}

func chartKeyboard(kind report.PeriodKind) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🥧 Диаграмма", cbPie+kind.String()),
			tgbotapi.NewInlineKeyboardButtonData("📶 Столбцы", cbBars+kind.String()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Меню", cbMenu+"back"),
		),
	)
}

func resetKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Да, удалить всё", cbReset+"confirm"),
			tgbotapi.NewInlineKeyboardButtonData("Отмена", cbReset+"cancel"),
		),
	)
}

// categoryKeyboard строит клавиатуру страницы каталога с навигацией.
// suggestion, если задан, выводится отдельной строкой сверху.
func categoryKeyboard(page catalog.Page, suggestion *model.CategoryOption) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if suggestion != nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👉 "+suggestion.Label, cbCategory+suggestion.Key),
		))
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, opt := range page.Options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(opt.Label, cbCategory+opt.Key))
		if len(row) == categoriesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if page.Count > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page.HasPrev {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️", cbPage+strconv.Itoa(page.Index-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d/%d", page.Index+1, page.Count), cbNoop))
		if page.HasNext {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("▶️", cbPage+strconv.Itoa(page.Index+1)))
		}
		rows = append(rows, nav)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
