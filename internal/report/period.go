// Package report строит отчёты по уже выбранным из журнала данным.
// Функции пакета не обращаются к хранилищу и детерминированы.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodKind определяет тип отчётного периода
type PeriodKind int

const (
	Today PeriodKind = iota
	Last7Days
	CurrentMonth
)

// String возвращает код периода, который используется в кнопках.
func (k PeriodKind) String() string {
	switch k {
	case Today:
		return "today"
	case Last7Days:
		return "7d"
	case CurrentMonth:
		return "month"
	default:
		return fmt.Sprintf("PeriodKind(%d)", int(k))
	}
}

// ParsePeriodKind разбирает код периода из callback-данных.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch s {
	case "today":
		return Today, nil
	case "7d":
		return Last7Days, nil
	case "month":
		return CurrentMonth, nil
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

// Period - полуоткрытый интервал [Start, End).
type Period struct {
	Kind  PeriodKind
	Title string
	Start time.Time
	End   time.Time
}

// Contains сообщает, попадает ли t в период.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Caption - даты периода для подписи отчёта.
func (p Period) Caption() string {
	last := p.End.AddDate(0, 0, -1)
	switch p.Kind {
	case Today:
		return p.Start.Format("02.01.2006")
	case CurrentMonth:
		return fmt.Sprintf("%s %d", monthNames[p.Start.Month()-1], p.Start.Year())
	default:
		return fmt.Sprintf("%s - %s", p.Start.Format("02.01.2006"), last.Format("02.01.2006"))
	}
}

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// PeriodBounds вычисляет границы периода в часовом поясе now.
// Вызывающая сторона передаёт время уже в опорном поясе бота.
func PeriodBounds(kind PeriodKind, now time.Time) Period {
	loc := now.Location()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch kind {
	case Last7Days:
		end := midnight.AddDate(0, 0, 1)
		return Period{Kind: kind, Title: "Последние 7 дней", Start: end.AddDate(0, 0, -7), End: end}
	case CurrentMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		// AddDate нормализует декабрь в январь следующего года.
		return Period{Kind: kind, Title: "Текущий месяц", Start: start, End: start.AddDate(0, 1, 0)}
	default:
		return Period{Kind: Today, Title: "Сегодня", Start: midnight, End: midnight.AddDate(0, 0, 1)}
	}
}

// PreviousPeriod возвращает такой же по длине период непосредственно перед p:
// вчерашний день, предыдущие 7 дней или прошлый календарный месяц.
func PreviousPeriod(p Period) Period {
	prev := Period{Kind: p.Kind, End: p.Start}
	switch p.Kind {
	case Last7Days:
		prev.Title = "Предыдущие 7 дней"
		prev.Start = p.Start.AddDate(0, 0, -7)
	case CurrentMonth:
		prev.Title = "Прошлый месяц"
		prev.Start = p.Start.AddDate(0, -1, 0)
	default:
		prev.Title = "Вчера"
		prev.Start = p.Start.AddDate(0, 0, -1)
	}
	return prev
}

// ChangePercent считает изменение относительно предыдущего значения в процентах.
// Если предыдущее значение нулевое, сравнивать не с чем.
func ChangePercent(current, previous decimal.Decimal) (float64, bool) {
	if previous.IsZero() {
		return 0, false
	}
	change := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	return change.Round(1).InexactFloat64(), true
}

// FormatChange форматирует изменение значения в процентах
func FormatChange(current, previous decimal.Decimal) string {
	change, ok := ChangePercent(current, previous)
	if !ok {
		return ""
	}

	// Ограничиваем отображение процентов разумными пределами
	change = math.Max(-1000, math.Min(1000, change))

	if change > 0 {
		return fmt.Sprintf(" (+%.1f%%⬆️)", change)
	}
	return fmt.Sprintf(" (%.1f%%⬇️)", change)
}
