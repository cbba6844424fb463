package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/events"
	"github.com/dorraborra/finbot/internal/report"
	"github.com/dorraborra/finbot/internal/repository"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	tracker   *ExpenseTracker
	publisher *recordingPublisher
	now       *time.Time
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ledger, err := repository.NewSQLiteLedger(filepath.Join(t.TempDir(), "finances.db"),
		repository.WithLocation(time.UTC), repository.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	pub := &recordingPublisher{}
	tracker := NewExpenseTracker(ledger, catalog.Default(),
		WithPublisher(pub), WithLocation(time.UTC), WithClock(clock))
	return testEnv{tracker: tracker, publisher: pub, now: &now}
}

func (e testEnv) add(t *testing.T, at time.Time, amount, category string) {
	t.Helper()
	*e.now = at
	_, err := e.tracker.Append(context.Background(), 1, decimal.RequireFromString(amount), category)
	require.NoError(t, err)
}

func TestExpenseTracker_PublishesLedgerEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.add(t, *env.now, "390", "coffee")
	_, err := env.tracker.UndoLast(ctx, 1)
	require.NoError(t, err)
	_, err = env.tracker.UndoLast(ctx, 1)
	require.NoError(t, err)
	_, err = env.tracker.ResetAll(ctx, 1)
	require.NoError(t, err)

	require.Len(t, env.publisher.events, 3)
	assert.Equal(t, events.Appended, env.publisher.events[0].Type)
	assert.EqualValues(t, 39000, env.publisher.events[0].AmountMinor)
	assert.Equal(t, events.Undone, env.publisher.events[1].Type)
	assert.Equal(t, events.Reset, env.publisher.events[2].Type)
}

func TestExpenseTracker_PublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")

	expense, err := env.tracker.Append(context.Background(), 1, decimal.NewFromInt(10), "taxi")
	require.NoError(t, err)
	assert.NotZero(t, expense.ID)
}

func TestExpenseTracker_Stats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	env.add(t, today.Add(-12*time.Hour), "100", "coffee") // вчера
	env.add(t, today.Add(9*time.Hour), "100", "coffee")
	env.add(t, today.Add(10*time.Hour), "50", "coffee")
	env.add(t, today.Add(11*time.Hour), "200", "groceries")
	*env.now = today.Add(18 * time.Hour)

	stats, err := env.tracker.Stats(ctx, report.Today, 1)
	require.NoError(t, err)
	require.False(t, stats.Empty())
	assert.Equal(t, "Сегодня", stats.Breakdown.Title)
	assert.Equal(t, "350", stats.Breakdown.Total.String())
	require.Len(t, stats.Breakdown.Rows, 2)
	assert.Equal(t, "🛒 Продукты", stats.Breakdown.Rows[0].Label)
	assert.Equal(t, "☕ Кофе", stats.Breakdown.Rows[1].Label)
	assert.Equal(t, "100", stats.PreviousTotal.String())
	assert.Equal(t, " (+250.0%⬆️)", stats.Change)
}

func TestExpenseTracker_StatsEmpty(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.tracker.Stats(context.Background(), report.CurrentMonth, 1)
	require.NoError(t, err)
	assert.True(t, stats.Empty())
	assert.True(t, stats.Breakdown.Total.IsZero())
	assert.Empty(t, stats.Change)
}

func TestExpenseTracker_Profile(t *testing.T) {
	env := newTestEnv(t)
	now := *env.now

	env.add(t, now.AddDate(0, 0, -2), "100", "coffee")
	env.add(t, now.AddDate(0, 0, -1), "100", "coffee")
	env.add(t, now, "100", "taxi")

	profile, err := env.tracker.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "300", profile.Total.String())
	assert.Equal(t, "☕ Кофе", profile.TopLabel)
	assert.Equal(t, 3, profile.Days)
	assert.Equal(t, 3, profile.Streak)
	assert.Equal(t, "100", profile.DailyAverage.String())
	assert.Equal(t, "10", profile.Last30Average.String())
}

func TestExpenseTracker_Export(t *testing.T) {
	env := newTestEnv(t)
	now := *env.now

	env.add(t, now.Add(-time.Hour), "390", "coffee")
	env.add(t, now, "12.5", "legacy_key")

	rows, err := env.tracker.Export(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "legacy_key", rows[0].Category)
	assert.Equal(t, "12.5", rows[0].Amount.String())
	assert.Equal(t, "☕ Кофе", rows[1].Category)
	assert.True(t, rows[1].CreatedAt.Equal(now.Add(-time.Hour)))
}
