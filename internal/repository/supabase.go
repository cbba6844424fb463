package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/dorraborra/finbot/internal/model"
)

const expensesTable = "expenses"

// SupabaseLedger хранит журнал в Postgres через PostgREST.
//
// PostgREST не умеет GROUP BY, поэтому группировка и агрегаты профиля
// считаются на стороне бота по выбранным строкам. Профиль читается одним
// запросом, так что его значения согласованы между собой.
//
// Ожидаемая схема таблицы:
//
//	create table expenses (
//	    id           bigserial primary key,
//	    user_id      bigint      not null,
//	    amount_minor bigint      not null check (amount_minor > 0),
//	    category     text        not null,
//	    created_at   timestamptz not null
//	);
type SupabaseLedger struct {
	client *supabase.Client
	loc    *time.Location
	locks  *KeyedMutex
	clock  *stamper
	logger *slog.Logger
}

var _ Ledger = (*SupabaseLedger)(nil)

// NewSupabaseLedger создаёт клиента Supabase.
func NewSupabaseLedger(url, key string, opts ...Option) (*SupabaseLedger, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	o := buildOptions(opts)
	return &SupabaseLedger{
		client: client,
		loc:    o.location,
		locks:  NewKeyedMutex(),
		clock:  newStamper(o),
		logger: slog.With("component", "storage", "backend", "supabase"),
	}, nil
}

// Close ничего не делает: HTTP-клиент не держит соединений.
func (l *SupabaseLedger) Close() error {
	return nil
}

func (l *SupabaseLedger) Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error) {
	minor, err := validateEntry(amount, category)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(userID)
	defer unlock()

	row := expenseRow{
		UserID:      userID,
		AmountMinor: minor,
		Category:    category,
		CreatedAt:   l.clock.next(),
	}
	data, _, err := l.client.From(expensesTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return nil, unavailable("append expense", err)
	}

	created, err := decodeRows(data)
	if err != nil {
		return nil, unavailable("append expense", err)
	}
	if len(created) == 0 {
		return nil, unavailable("append expense", fmt.Errorf("empty insert response"))
	}

	l.logger.DebugContext(ctx, "expense appended", "user_id", userID, "expense_id", created[0].ID)
	expense := created[0].toExpense(l.loc)
	return &expense, nil
}

func (l *SupabaseLedger) UndoLast(ctx context.Context, userID int64) (*model.Expense, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	data, _, err := l.client.From(expensesTable).
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Order("id", &postgrest.OrderOpts{Ascending: false}).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, unavailable("undo last expense", err)
	}
	last, err := decodeRows(data)
	if err != nil {
		return nil, unavailable("undo last expense", err)
	}
	if len(last) == 0 {
		return nil, nil
	}

	_, _, err = l.client.From(expensesTable).
		Delete("minimal", "").
		Eq("id", strconv.FormatInt(last[0].ID, 10)).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return nil, unavailable("undo last expense", err)
	}

	expense := last[0].toExpense(l.loc)
	return &expense, nil
}

func (l *SupabaseLedger) ResetAll(ctx context.Context, userID int64) (int64, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	data, _, err := l.client.From(expensesTable).
		Delete("representation", "").
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return 0, unavailable("reset expenses", err)
	}
	deleted, err := decodeRows(data)
	if err != nil {
		return 0, unavailable("reset expenses", err)
	}
	return int64(len(deleted)), nil
}

func (l *SupabaseLedger) QueryRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error) {
	rows, err := readPages(supabasePageSize, func(from, to int) ([]expenseRow, error) {
		data, _, err := l.client.From(expensesTable).
			Select("id,category,amount_minor", "", false).
			Eq("user_id", strconv.FormatInt(userID, 10)).
			Gte("created_at", start.UTC().Format(time.RFC3339Nano)).
			Lt("created_at", end.UTC().Format(time.RFC3339Nano)).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(from, to, "").
			Execute()
		if err != nil {
			return nil, err
		}
		return decodeRows(data)
	})
	if err != nil {
		return nil, unavailable("query range", err)
	}
	return groupTotals(rows), nil
}

func (l *SupabaseLedger) QueryAll(ctx context.Context, userID int64) ([]model.Expense, error) {
	rows, err := l.fetchAll(userID)
	if err != nil {
		return nil, unavailable("query all", err)
	}

	expenses := make([]model.Expense, 0, len(rows))
	for _, r := range rows {
		expenses = append(expenses, r.toExpense(l.loc))
	}
	sortExpenses(expenses)
	return expenses, nil
}

func (l *SupabaseLedger) ProfileAggregates(ctx context.Context, userID int64, now time.Time) (*model.ProfileAggregates, error) {
	rows, err := l.fetchAll(userID)
	if err != nil {
		return nil, unavailable("profile aggregates", err)
	}
	return aggregateProfile(rows, now, l.loc), nil
}

func (l *SupabaseLedger) fetchAll(userID int64) ([]expenseRow, error) {
	return readPages(supabasePageSize, func(from, to int) ([]expenseRow, error) {
		data, _, err := l.client.From(expensesTable).
			Select("*", "", false).
			Eq("user_id", strconv.FormatInt(userID, 10)).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(from, to, "").
			Execute()
		if err != nil {
			return nil, err
		}
		return decodeRows(data)
	})
}

// supabasePageSize - сколько строк запрашивать за раз. Совпадает с
// max-rows PostgREST по умолчанию.
const supabasePageSize = 1000

// readPages читает выборку страницами [from, to], пока сервер не вернёт
// пустую страницу. Сервер может отдать меньше строк, чем просили (свой
// лимит max-rows), поэтому короткая страница не считается последней.
func readPages(pageSize int, fetch func(from, to int) ([]expenseRow, error)) ([]expenseRow, error) {
	var all []expenseRow
	for from := 0; ; {
		page, err := fetch(from, from+pageSize-1)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		from += len(page)
	}
}

func decodeRows(data []byte) ([]expenseRow, error) {
	var rows []expenseRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse expenses: %w", err)
	}
	return rows, nil
}
