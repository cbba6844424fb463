package repository

import (
	"sort"
	"time"

	"github.com/dorraborra/finbot/internal/model"
)

// expenseRow - строка таблицы expenses в том виде, в каком её отдают
// оба хранилища.
type expenseRow struct {
	ID          int64     `json:"id,omitempty"`
	UserID      int64     `json:"user_id"`
	AmountMinor int64     `json:"amount_minor"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r expenseRow) toExpense(loc *time.Location) model.Expense {
	return model.Expense{
		ID:        r.ID,
		UserID:    r.UserID,
		Amount:    model.FromMinorUnits(r.AmountMinor),
		Category:  r.Category,
		CreatedAt: r.CreatedAt.In(loc),
	}
}

// profileWindowDays - длина окна для Last30Total в календарных днях.
const profileWindowDays = 30

// dayOf возвращает полночь календарного дня t в зоне loc.
func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// last30Bounds - 30 календарных дней, заканчивая сегодняшним: [start, end).
func last30Bounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := dayOf(now, loc)
	return today.AddDate(0, 0, -(profileWindowDays - 1)), today.AddDate(0, 0, 1)
}

// sortTotals упорядочивает по убыванию суммы, при равенстве - по ключу.
func sortTotals(totals []model.CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Amount.Cmp(totals[j].Amount); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
}

// groupTotals группирует строки по категориям.
func groupTotals(rows []expenseRow) []model.CategoryTotal {
	sums := make(map[string]int64)
	for _, r := range rows {
		sums[r.Category] += r.AmountMinor
	}

	totals := make([]model.CategoryTotal, 0, len(sums))
	for category, minor := range sums {
		totals = append(totals, model.CategoryTotal{Category: category, Amount: model.FromMinorUnits(minor)})
	}
	sortTotals(totals)
	return totals
}

// distinctDays собирает отсортированный список дней с активностью.
func distinctDays(stamps []time.Time, loc *time.Location) []time.Time {
	seen := make(map[time.Time]struct{}, len(stamps))
	days := make([]time.Time, 0)
	for _, ts := range stamps {
		d := dayOf(ts, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// aggregateProfile считает агрегаты профиля по полному набору строк.
func aggregateProfile(rows []expenseRow, now time.Time, loc *time.Location) *model.ProfileAggregates {
	start, end := last30Bounds(now, loc)

	var total, last30 int64
	stamps := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		total += r.AmountMinor
		if !r.CreatedAt.Before(start) && r.CreatedAt.Before(end) {
			last30 += r.AmountMinor
		}
		stamps = append(stamps, r.CreatedAt)
	}

	agg := &model.ProfileAggregates{
		Total:       model.FromMinorUnits(total),
		Last30Total: model.FromMinorUnits(last30),
		ActiveDays:  distinctDays(stamps, loc),
	}
	agg.DistinctDays = len(agg.ActiveDays)
	if totals := groupTotals(rows); len(totals) > 0 {
		agg.TopCategory = totals[0].Category
	}
	return agg
}

// sortExpenses упорядочивает записи: новые первыми, при равном времени - по ID.
func sortExpenses(expenses []model.Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		if !expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
		}
		return expenses[i].ID > expenses[j].ID
	})
}
