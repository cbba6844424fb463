package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense - запись в журнале расходов. После создания не изменяется,
// может быть только удалена целиком.
type Expense struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// CategoryTotal - сумма расходов по одной категории за период.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// ProfileAggregates - агрегаты для профиля пользователя.
type ProfileAggregates struct {
	Total        decimal.Decimal
	TopCategory  string // пусто, если записей нет
	DistinctDays int
	Last30Total  decimal.Decimal
	// ActiveDays - полночь каждого календарного дня (в опорной зоне),
	// в который была хотя бы одна запись.
	ActiveDays []time.Time
}

// ExportRow - строка выгрузки.
type ExportRow struct {
	Amount    decimal.Decimal
	Category  string
	CreatedAt time.Time
}
