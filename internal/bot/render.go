package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/conversation"
	"github.com/dorraborra/finbot/internal/model"
	"github.com/dorraborra/finbot/internal/report"
	"github.com/dorraborra/finbot/internal/service"
)

const welcomeText = "✨ <b>Фин-бот</b>\nКидай сумму — спрошу категорию и всё запишу.\n\nВыбери действие:"

const helpText = `<b>Как пользоваться</b>
Отправь сумму, например <b>390</b> или <b>12,50</b>, затем выбери категорию.

/menu — главное меню
/add — добавить расход
/stats — статистика за период
/profile — профиль и серия дней
/export — выгрузка в CSV
/undo — отменить последнюю запись
/reset — удалить все записи
/categories — список категорий`

// thematicNotes - короткая реплика после записи в категорию.
var thematicNotes = map[string]string{
	"cigarettes": "Может, пора бросать? 🚭",
	"coffee":     "Кофе — топливо для великих дел ☕",
	"groceries":  "Холодильник доволен 🥦",
	"ozon":       "Ждём курьера 📦",
	"wb":         "Пункт выдачи уже ждёт 🛍",
	"eating_out": "Приятного аппетита! 🍽",
	"beauty":     "Красота требует… ну, ты знаешь 💅",
	"household":  "Чистота — залог порядка 🧼",
	"taxi":       "Доехали с комфортом 🚕",
	"apartment":  "Дом, милый дом 🏡",
	"other":      "Записала, разберёмся потом ✨",
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(model.AmountScale)
}

// formatShort печатает сумму без лишних нулей: 390, 12.5.
func formatShort(d decimal.Decimal) string {
	return d.String()
}

// renderAction превращает результат автомата в текст и клавиатуру.
func renderAction(a conversation.Action, cat *catalog.Catalog) (string, any) {
	switch a.Kind {
	case conversation.ActionAskAmount:
		if a.Invalid {
			return "Отправь число, например: 390", nil
		}
		return "Введи сумму (например: <b>390</b>)", nil

	case conversation.ActionChooseCategory:
		return fmt.Sprintf("Ок, <b>%s</b>. Выбери категорию:", formatShort(a.Amount)),
			categoryKeyboard(a.Page, nil)

	case conversation.ActionCommitted:
		label := cat.LabelFor(a.Expense.Category)
		text := fmt.Sprintf("✅ Записала: <b>%s</b> • %s", formatShort(a.Expense.Amount), html.EscapeString(label))
		if note, ok := thematicNotes[a.Expense.Category]; ok {
			text += "\n<i>" + note + "</i>"
		}
		return text, mainMenuKeyboard()

	case conversation.ActionDesync:
		return "Сначала отправь сумму", mainMenuKeyboard()

	case conversation.ActionUnknownCategory:
		text := "Не знаю такую категорию."
		if a.Suggestion != nil {
			text += fmt.Sprintf(" Может, <b>%s</b>?", html.EscapeString(a.Suggestion.Label))
		}
		text += "\nВыбери из списка:"
		return text, categoryKeyboard(a.Page, a.Suggestion)

	case conversation.ActionUndone:
		e := a.Expense
		return fmt.Sprintf("↩️ Удалила: <b>%s</b> • %s (%s)",
			formatShort(e.Amount),
			html.EscapeString(cat.LabelFor(e.Category)),
			e.CreatedAt.Format("02.01.2006 15:04")), mainMenuKeyboard()

	case conversation.ActionNothingToUndo:
		return "Нечего отменять: записей пока нет", mainMenuKeyboard()

	case conversation.ActionConfirmReset:
		return "⚠️ Удалить <b>все</b> записи? Это действие нельзя отменить.", resetKeyboard()

	case conversation.ActionResetDone:
		return fmt.Sprintf("🗑 Удалено записей: <b>%d</b>", a.Deleted), mainMenuKeyboard()

	case conversation.ActionResetExpired:
		return "Запрос на сброс устарел. Отправь /reset ещё раз", mainMenuKeyboard()

	case conversation.ActionResetCancelled:
		return "Сброс отменён 👌", mainMenuKeyboard()
	}
	return "Выбери действие:", mainMenuKeyboard()
}

func renderStats(r *service.StatsReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>%s</b> (%s)\n", r.Period.Title, r.Period.Caption())

	if r.Empty() {
		sb.WriteString("Нет расходов")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Итого: <b>%s</b>%s\n", formatAmount(r.Breakdown.Total), r.Change)
	for _, row := range r.Breakdown.Rows {
		fmt.Fprintf(&sb, "\n%s\n<code>%s</code> %s (%.1f%%)",
			html.EscapeString(row.Label), row.Bar, formatAmount(row.Amount), row.Share)
	}
	if r.PreviousTotal.IsPositive() {
		fmt.Fprintf(&sb, "\n\n%s: %s", r.Previous.Title, formatAmount(r.PreviousTotal))
	}
	return sb.String()
}

func renderProfile(p *report.Profile) string {
	top := "пока нет"
	if p.TopLabel != "" {
		top = html.EscapeString(p.TopLabel)
	}

	var sb strings.Builder
	sb.WriteString("👤 <b>Профиль</b>\n\n")
	fmt.Fprintf(&sb, "💸 Всего потрачено: <b>%s</b>\n", formatAmount(p.Total))
	fmt.Fprintf(&sb, "🏆 Любимая категория: %s\n", top)
	fmt.Fprintf(&sb, "📅 Дней с записями: %d\n", p.Days)
	fmt.Fprintf(&sb, "🔥 Серия: %d %s\n", p.Streak, pluralDays(p.Streak))
	fmt.Fprintf(&sb, "📈 В среднем за день: %s\n", formatAmount(p.DailyAverage))
	fmt.Fprintf(&sb, "🗓 За %d дней: %s (≈ %s в день)", report.Last30Days, formatAmount(p.Last30Total), formatAmount(p.Last30Average))
	return sb.String()
}

func renderCategories(cat *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString("Категории:")
	for _, opt := range cat.List() {
		sb.WriteString("\n• ")
		sb.WriteString(html.EscapeString(opt.Label))
	}
	return sb.String()
}

// pluralDays согласует слово «день» с числом.
func pluralDays(n int) string {
	n %= 100
	if n >= 11 && n <= 14 {
		return "дней"
	}
	switch n % 10 {
	case 1:
		return "день"
	case 2, 3, 4:
		return "дня"
	}
	return "дней"
}
