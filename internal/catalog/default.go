package catalog

import "github.com/dorraborra/finbot/internal/model"

var defaultOptions = []model.CategoryOption{
	{Label: "🚬 Сигареты", Key: "cigarettes"},
	{Label: "☕ Кофе", Key: "coffee"},
	{Label: "🛒 Продукты", Key: "groceries"},
	{Label: "📦 Ozon", Key: "ozon"},
	{Label: "🛍 WB", Key: "wb"},
	{Label: "🍔 Еда вне дома", Key: "eating_out"},
	{Label: "💄 Beauty", Key: "beauty"},
	{Label: "🧴 Бытовая химия", Key: "household"},
	{Label: "🚕 Такси", Key: "taxi"},
	{Label: "🏠 Квартира", Key: "apartment"},
	{Label: "✨ Иное", Key: "other"},
}

// historicalLabels - значения, которые первая версия бота писала в журнал
// вместо ключей. Записи отсюда не удаляются.
var historicalLabels = map[string]string{
	"Сигареты":       "🚬 Сигареты",
	"Кофе":           "☕ Кофе",
	"Продукты":       "🛒 Продукты",
	"Ozon":           "📦 Ozon",
	"WB":             "🛍 WB",
	"Жрала не дома":  "🍔 Еда вне дома",
	"Beauty":         "💄 Beauty",
	"Бытовая химия":  "🧴 Бытовая химия",
	"Такси":          "🚕 Такси",
	"Квартира":       "🏠 Квартира",
	"Иное":           "✨ Иное",
}

// Default возвращает встроенный каталог.
func Default() *Catalog {
	return New(defaultOptions, historicalLabels)
}
