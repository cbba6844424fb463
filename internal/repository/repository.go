// Package repository хранит журнал расходов.
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/model"
)

// Ledger - журнал расходов: только добавление, отмена последней записи
// и полная очистка по пользователю.
type Ledger interface {
	// Append сохраняет запись и возвращает её с присвоенными ID и временем.
	Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error)
	// UndoLast удаляет запись пользователя с наибольшим ID.
	// Если записей нет, возвращает nil без ошибки.
	UndoLast(ctx context.Context, userID int64) (*model.Expense, error)
	// ResetAll удаляет все записи пользователя и возвращает их количество.
	ResetAll(ctx context.Context, userID int64) (int64, error)
	// QueryRange суммирует расходы по категориям за [start, end).
	QueryRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error)
	// QueryAll возвращает все записи пользователя, новые первыми.
	QueryAll(ctx context.Context, userID int64) ([]model.Expense, error)
	// ProfileAggregates собирает агрегаты для профиля.
	ProfileAggregates(ctx context.Context, userID int64, now time.Time) (*model.ProfileAggregates, error)
	Close() error
}

// Option настраивает хранилище.
type Option func(*options)

type options struct {
	location *time.Location
	now      func() time.Time
}

// WithLocation задаёт опорный часовой пояс.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{location: time.UTC, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// unavailable оборачивает ошибку драйвера в ErrStorageUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}

func validateEntry(amount decimal.Decimal, category string) (int64, error) {
	minor := model.ToMinorUnits(amount)
	if minor <= 0 {
		return 0, model.ErrInvalidAmount
	}
	if category == "" {
		return 0, model.ErrUnknownCategory
	}
	return minor, nil
}

// stamper выдаёт неубывающие отметки времени с точностью до микросекунды.
type stamper struct {
	mu   sync.Mutex
	now  func() time.Time
	loc  *time.Location
	last time.Time
}

func newStamper(o options) *stamper {
	return &stamper{now: o.now, loc: o.location}
}

func (s *stamper) next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := time.UnixMicro(s.now().UnixMicro()).In(s.loc)
	if t.Before(s.last) {
		t = s.last
	}
	s.last = t
	return t
}
