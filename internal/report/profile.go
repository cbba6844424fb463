package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/model"
)

// Date - календарная дата без времени и часового пояса.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf возвращает дату t в её собственном часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// AddDays сдвигает дату на n дней.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// DateSet - множество дат с активностью.
type DateSet map[Date]struct{}

// NewDateSet строит множество из отметок времени.
func NewDateSet(stamps ...time.Time) DateSet {
	set := make(DateSet, len(stamps))
	for _, t := range stamps {
		set[DateOf(t)] = struct{}{}
	}
	return set
}

// Has сообщает, есть ли дата в множестве.
func (s DateSet) Has(d Date) bool {
	_, ok := s[d]
	return ok
}

// Streak считает дни подряд с активностью, двигаясь назад от today.
// Если сегодня записей нет, серия равна нулю.
func Streak(days DateSet, today Date) int {
	streak := 0
	for d := today; days.Has(d); d = d.AddDays(-1) {
		streak++
	}
	return streak
}

// DailyAverage делит сумму на число дней; при нуле дней возвращает 0.
func DailyAverage(total decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days))).Round(model.AmountScale)
}

// Last30Days - длина окна, за которое считается средний расход.
const Last30Days = 30

// Profile - карточка пользователя.
type Profile struct {
	Total         decimal.Decimal
	TopCategory   string
	TopLabel      string
	Days          int
	Streak        int
	DailyAverage  decimal.Decimal
	Last30Total   decimal.Decimal
	Last30Average decimal.Decimal
}

// BuildProfile собирает профиль из агрегатов хранилища.
func BuildProfile(agg *model.ProfileAggregates, today Date, labelFor func(string) string) Profile {
	p := Profile{
		Total:         agg.Total,
		TopCategory:   agg.TopCategory,
		Days:          agg.DistinctDays,
		Streak:        Streak(NewDateSet(agg.ActiveDays...), today),
		DailyAverage:  DailyAverage(agg.Total, agg.DistinctDays),
		Last30Total:   agg.Last30Total,
		Last30Average: DailyAverage(agg.Last30Total, Last30Days),
	}
	if p.TopCategory != "" {
		p.TopLabel = p.TopCategory
		if labelFor != nil {
			p.TopLabel = labelFor(p.TopCategory)
		}
	}
	return p
}
