package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dorraborra/finbot/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStreak(t *testing.T) {
	today := Date{Year: 2024, Month: time.March, Day: 15}

	tests := []struct {
		name  string
		days  DateSet
		today Date
		want  int
	}{
		{
			name:  "three days in a row",
			days:  NewDateSet(day(2024, 3, 15), day(2024, 3, 14), day(2024, 3, 13), day(2024, 3, 11)),
			today: today,
			want:  3,
		},
		{
			name:  "only today",
			days:  NewDateSet(day(2024, 3, 15), day(2024, 3, 13)),
			today: today,
			want:  1,
		},
		{
			name:  "no activity today",
			days:  NewDateSet(day(2024, 3, 14), day(2024, 3, 13)),
			today: today,
			want:  0,
		},
		{
			name:  "empty",
			days:  DateSet{},
			today: today,
			want:  0,
		},
		{
			name:  "across month boundary",
			days:  NewDateSet(day(2024, 3, 2), day(2024, 3, 1), day(2024, 2, 29)),
			today: Date{Year: 2024, Month: time.March, Day: 2},
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.days, tt.today))
		})
	}
}

func TestDateAddDays(t *testing.T) {
	d := Date{Year: 2024, Month: time.January, Day: 1}
	assert.Equal(t, Date{Year: 2023, Month: time.December, Day: 31}, d.AddDays(-1))
	assert.Equal(t, "2024-01-31", d.AddDays(30).String())
}

func TestDailyAverage(t *testing.T) {
	assert.True(t, DailyAverage(decimal.NewFromInt(100), 0).IsZero())
	assert.Equal(t, "33.33", DailyAverage(decimal.NewFromInt(100), 3).String())
	assert.Equal(t, "50", DailyAverage(decimal.NewFromInt(100), 2).String())
}

func TestBuildProfile(t *testing.T) {
	agg := &model.ProfileAggregates{
		Total:        decimal.RequireFromString("600"),
		TopCategory:  "coffee",
		DistinctDays: 3,
		Last30Total:  decimal.RequireFromString("300"),
		ActiveDays:   []time.Time{day(2024, 3, 13), day(2024, 3, 14), day(2024, 3, 15)},
	}

	p := BuildProfile(agg, Date{Year: 2024, Month: time.March, Day: 15}, func(key string) string {
		return "☕ Кофе"
	})

	assert.Equal(t, "600", p.Total.String())
	assert.Equal(t, "coffee", p.TopCategory)
	assert.Equal(t, "☕ Кофе", p.TopLabel)
	assert.Equal(t, 3, p.Days)
	assert.Equal(t, 3, p.Streak)
	assert.Equal(t, "200", p.DailyAverage.String())
	assert.Equal(t, "10", p.Last30Average.String())
}

func TestBuildProfile_Empty(t *testing.T) {
	p := BuildProfile(&model.ProfileAggregates{}, Date{Year: 2024, Month: time.March, Day: 15}, nil)

	assert.Empty(t, p.TopLabel)
	assert.Zero(t, p.Streak)
	assert.True(t, p.DailyAverage.IsZero())
	assert.True(t, p.Last30Average.IsZero())
}
