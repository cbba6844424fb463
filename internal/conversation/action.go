package conversation

import (
	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/model"
)

// ActionKind - что транспорт должен показать пользователю.
type ActionKind int

const (
	// ActionAskAmount - попросить сумму. Invalid означает, что предыдущий
	// ввод не распознан.
	ActionAskAmount ActionKind = iota
	// ActionChooseCategory - показать страницу категорий для Amount.
	ActionChooseCategory
	// ActionCommitted - расход Expense записан.
	ActionCommitted
	// ActionDesync - суммы в сессии нет, диалог начат заново.
	ActionDesync
	// ActionUnknownCategory - категория не найдена, страница показана снова.
	ActionUnknownCategory
	// ActionUndone - удалена запись Expense.
	ActionUndone
	// ActionNothingToUndo - журнал пуст.
	ActionNothingToUndo
	// ActionConfirmReset - запросить подтверждение полного сброса.
	ActionConfirmReset
	// ActionResetDone - удалено Deleted записей.
	ActionResetDone
	// ActionResetExpired - подтверждение пришло без активного запроса.
	ActionResetExpired
	// ActionResetCancelled - сброс отменён.
	ActionResetCancelled
)

var actionNames = map[ActionKind]string{
	ActionAskAmount:       "ask_amount",
	ActionChooseCategory:  "choose_category",
	ActionCommitted:       "committed",
	ActionDesync:          "desync",
	ActionUnknownCategory: "unknown_category",
	ActionUndone:          "undone",
	ActionNothingToUndo:   "nothing_to_undo",
	ActionConfirmReset:    "confirm_reset",
	ActionResetDone:       "reset_done",
	ActionResetExpired:    "reset_expired",
	ActionResetCancelled:  "reset_cancelled",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action - результат обработки входящего события.
type Action struct {
	Kind    ActionKind
	Invalid bool
	Amount  decimal.Decimal
	Page    catalog.Page
	Expense *model.Expense
	// Suggestion заполнен, если для нераспознанного текста нашлась
	// похожая категория.
	Suggestion *model.CategoryOption
	Deleted    int64
}
