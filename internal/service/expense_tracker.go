package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/events"
	"github.com/dorraborra/finbot/internal/model"
	"github.com/dorraborra/finbot/internal/report"
)

// Repository определяет интерфейс для работы с хранилищем данных
type Repository interface {
	Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error)
	UndoLast(ctx context.Context, userID int64) (*model.Expense, error)
	ResetAll(ctx context.Context, userID int64) (int64, error)
	QueryRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error)
	QueryAll(ctx context.Context, userID int64) ([]model.Expense, error)
	ProfileAggregates(ctx context.Context, userID int64, now time.Time) (*model.ProfileAggregates, error)
}

// ExpenseTracker предоставляет методы для работы с финансовыми данными.
// Записи в журнал идут через него, чтобы каждая из них попала в лог
// и была опубликована как событие.
type ExpenseTracker struct {
	repo      Repository
	catalog   *catalog.Catalog
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// Option настраивает ExpenseTracker.
type Option func(*ExpenseTracker)

// WithPublisher задаёт получателя событий журнала.
func WithPublisher(p events.Publisher) Option {
	return func(s *ExpenseTracker) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLocation задаёт опорный часовой пояс отчётов.
func WithLocation(loc *time.Location) Option {
	return func(s *ExpenseTracker) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseTracker) {
		if now != nil {
			s.now = now
		}
	}
}

// NewExpenseTracker создает новый экземпляр ExpenseTracker
func NewExpenseTracker(repo Repository, cat *catalog.Catalog, opts ...Option) *ExpenseTracker {
	s := &ExpenseTracker{
		repo:      repo,
		catalog:   cat,
		publisher: events.NopPublisher{},
		loc:       time.UTC,
		now:       time.Now,
		logger:    slog.With("component", "service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now возвращает текущее время в опорном часовом поясе.
func (s *ExpenseTracker) Now() time.Time {
	return s.now().In(s.loc)
}

// Location возвращает опорный часовой пояс.
func (s *ExpenseTracker) Location() *time.Location {
	return s.loc
}

// Catalog возвращает каталог категорий.
func (s *ExpenseTracker) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *ExpenseTracker) Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error) {
	expense, err := s.repo.Append(ctx, userID, amount, category)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "expense recorded",
		"user_id", userID,
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"category", expense.Category)
	s.publish(ctx, events.NewExpenseEvent(events.Appended, expense, s.Now()))
	return expense, nil
}

func (s *ExpenseTracker) UndoLast(ctx context.Context, userID int64) (*model.Expense, error) {
	expense, err := s.repo.UndoLast(ctx, userID)
	if err != nil || expense == nil {
		return expense, err
	}

	s.logger.InfoContext(ctx, "expense undone",
		"user_id", userID,
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"category", expense.Category)
	s.publish(ctx, events.NewExpenseEvent(events.Undone, expense, s.Now()))
	return expense, nil
}

func (s *ExpenseTracker) ResetAll(ctx context.Context, userID int64) (int64, error) {
	deleted, err := s.repo.ResetAll(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "ledger reset", "user_id", userID, "deleted", deleted)
	s.publish(ctx, events.NewResetEvent(userID, deleted, s.Now()))
	return deleted, nil
}

// publish не возвращает ошибку: запись в журнале уже сделана.
func (s *ExpenseTracker) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish ledger event", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

// StatsReport - отчёт за период со сравнением с предыдущим.
type StatsReport struct {
	Period        report.Period
	Previous      report.Period
	Breakdown     report.Breakdown
	PreviousTotal decimal.Decimal
	Change        string
}

// Empty сообщает, что за период нет расходов.
func (r *StatsReport) Empty() bool {
	return r.Breakdown.Empty()
}

// Stats строит отчёт по категориям за период kind.
func (s *ExpenseTracker) Stats(ctx context.Context, kind report.PeriodKind, userID int64) (*StatsReport, error) {
	period := report.PeriodBounds(kind, s.Now())
	previous := report.PreviousPeriod(period)

	current, err := s.repo.QueryRange(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get current period totals: %w", err)
	}
	prev, err := s.repo.QueryRange(ctx, userID, previous.Start, previous.End)
	if err != nil {
		return nil, fmt.Errorf("failed to get previous period totals: %w", err)
	}

	total := report.Sum(current)
	prevTotal := report.Sum(prev)
	s.logger.DebugContext(ctx, "stats computed",
		"user_id", userID,
		"period", kind.String(),
		"categories", len(current),
		"total", total.String())

	return &StatsReport{
		Period:        period,
		Previous:      previous,
		Breakdown:     report.FormatBreakdown(period.Title, total, current, s.catalog.LabelFor),
		PreviousTotal: prevTotal,
		Change:        report.FormatChange(total, prevTotal),
	}, nil
}

// Profile собирает карточку пользователя.
func (s *ExpenseTracker) Profile(ctx context.Context, userID int64) (*report.Profile, error) {
	now := s.Now()
	agg, err := s.repo.ProfileAggregates(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile aggregates: %w", err)
	}

	profile := report.BuildProfile(agg, report.DateOf(now), s.catalog.LabelFor)
	return &profile, nil
}

// Export возвращает все записи пользователя для выгрузки, новые первыми.
// Категории подписываются текущими названиями.
func (s *ExpenseTracker) Export(ctx context.Context, userID int64) ([]model.ExportRow, error) {
	expenses, err := s.repo.QueryAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get expenses: %w", err)
	}

	rows := make([]model.ExportRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, model.ExportRow{
			Amount:    e.Amount,
			Category:  s.catalog.LabelFor(e.Category),
			CreatedAt: e.CreatedAt.In(s.loc),
		})
	}
	return rows, nil
}
