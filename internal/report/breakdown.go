package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/model"
)

// BarWidth - ширина полоски в символах.
const BarWidth = 10

const (
	barFull  = "█"
	barEmpty = "░"
)

// BreakdownRow - строка отчёта по одной категории.
type BreakdownRow struct {
	Key    string
	Label  string
	Amount decimal.Decimal
	Share  float64 // доля от итога, %
	Bar    string
}

// Breakdown - отчёт за период, разбитый по категориям.
type Breakdown struct {
	Title string
	Total decimal.Decimal
	Rows  []BreakdownRow
}

// Empty сообщает, что за период нет расходов.
func (b Breakdown) Empty() bool {
	return len(b.Rows) == 0
}

// FormatBreakdown собирает отчёт. Полоски масштабируются по самой большой
// сумме; порядок строк сохраняется.
func FormatBreakdown(title string, total decimal.Decimal, rows []model.CategoryTotal, labelFor func(string) string) Breakdown {
	b := Breakdown{Title: title, Total: total, Rows: make([]BreakdownRow, 0, len(rows))}

	top := decimal.Zero
	for _, r := range rows {
		if r.Amount.GreaterThan(top) {
			top = r.Amount
		}
	}

	for _, r := range rows {
		label := r.Category
		if labelFor != nil {
			label = labelFor(r.Category)
		}
		row := BreakdownRow{
			Key:    r.Category,
			Label:  label,
			Amount: r.Amount,
			Bar:    bar(r.Amount, top),
		}
		if total.IsPositive() {
			row.Share = r.Amount.Div(total).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
		}
		b.Rows = append(b.Rows, row)
	}
	return b
}

// Sum складывает суммы строк.
func Sum(rows []model.CategoryTotal) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}
	return total
}

func bar(amount, top decimal.Decimal) string {
	if !top.IsPositive() || !amount.IsPositive() {
		return strings.Repeat(barEmpty, BarWidth)
	}
	filled := int(amount.Div(top).Mul(decimal.NewFromInt(BarWidth)).Round(0).IntPart())
	if filled < 1 {
		filled = 1
	}
	if filled > BarWidth {
		filled = BarWidth
	}
	return strings.Repeat(barFull, filled) + strings.Repeat(barEmpty, BarWidth-filled)
}
