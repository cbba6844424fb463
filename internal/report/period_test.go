package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodBounds(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		kind  PeriodKind
		now   time.Time
		title string
		start time.Time
		end   time.Time
	}{
		{
			name:  "today",
			kind:  Today,
			now:   now,
			title: "Сегодня",
			start: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "last 7 days includes today",
			kind:  Last7Days,
			now:   now,
			title: "Последние 7 дней",
			start: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "current month",
			kind:  CurrentMonth,
			now:   now,
			title: "Текущий месяц",
			start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "december rolls over",
			kind:  CurrentMonth,
			now:   time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC),
			title: "Текущий месяц",
			start: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "today at midnight",
			kind:  Today,
			now:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			title: "Сегодня",
			start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodBounds(tt.kind, tt.now)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.title, p.Title)
			assert.True(t, tt.start.Equal(p.Start), "start %s", p.Start)
			assert.True(t, tt.end.Equal(p.End), "end %s", p.End)
			assert.True(t, p.Contains(tt.now))
		})
	}
}

func TestPeriodBounds_UsesNowLocation(t *testing.T) {
	msk := time.FixedZone("MSK", 3*3600)
	// 22:30 UTC 14 марта - это уже 15 марта по Москве.
	now := time.Date(2024, 3, 14, 22, 30, 0, 0, time.UTC).In(msk)

	p := PeriodBounds(Today, now)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, msk), p.Start)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, msk), p.End)
}

func TestPreviousPeriod(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	prev := PreviousPeriod(PeriodBounds(Today, now))
	assert.Equal(t, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), prev.End)

	prev = PreviousPeriod(PeriodBounds(Last7Days, now))
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), prev.End)

	prev = PreviousPeriod(PeriodBounds(CurrentMonth, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), prev.End)
}

func TestParsePeriodKind(t *testing.T) {
	for _, kind := range []PeriodKind{Today, Last7Days, CurrentMonth} {
		parsed, err := ParsePeriodKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParsePeriodKind("year")
	assert.Error(t, err)
}

func TestPeriodCaption(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "15.03.2024", PeriodBounds(Today, now).Caption())
	assert.Equal(t, "09.03.2024 - 15.03.2024", PeriodBounds(Last7Days, now).Caption())
	assert.Equal(t, "Март 2024", PeriodBounds(CurrentMonth, now).Caption())
}

func TestChangePercent(t *testing.T) {
	change, ok := ChangePercent(decimal.NewFromInt(150), decimal.NewFromInt(100))
	require.True(t, ok)
	assert.InDelta(t, 50.0, change, 0.001)

	change, ok = ChangePercent(decimal.NewFromInt(50), decimal.NewFromInt(200))
	require.True(t, ok)
	assert.InDelta(t, -75.0, change, 0.001)

	_, ok = ChangePercent(decimal.NewFromInt(50), decimal.Zero)
	assert.False(t, ok)
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, " (+50.0%⬆️)", FormatChange(decimal.NewFromInt(150), decimal.NewFromInt(100)))
	assert.Equal(t, " (-75.0%⬇️)", FormatChange(decimal.NewFromInt(50), decimal.NewFromInt(200)))
	assert.Equal(t, " (+1000.0%⬆️)", FormatChange(decimal.NewFromInt(5000), decimal.NewFromInt(1)))
	assert.Empty(t, FormatChange(decimal.NewFromInt(5), decimal.Zero))
}
