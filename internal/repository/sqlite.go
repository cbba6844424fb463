package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/model"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteLedger хранит журнал в SQLite. Время записей хранится в микросекундах
// Unix, суммы - в копейках.
type SQLiteLedger struct {
	db     *sql.DB
	loc    *time.Location
	locks  *KeyedMutex
	clock  *stamper
	logger *slog.Logger
}

var _ Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger открывает базу, применяет миграции и возвращает журнал.
func NewSQLiteLedger(dbPath string, opts ...Option) (*SQLiteLedger, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Все записи идут через одно соединение.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	o := buildOptions(opts)
	return &SQLiteLedger{
		db:     db,
		loc:    o.location,
		locks:  NewKeyedMutex(),
		clock:  newStamper(o),
		logger: slog.With("component", "storage", "backend", "sqlite"),
	}, nil
}

// Close закрывает соединение с базой.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error) {
	minor, err := validateEntry(amount, category)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(userID)
	defer unlock()

	createdAt := l.clock.next()
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_minor, category, created_at) VALUES (?, ?, ?, ?)`,
		userID, minor, category, createdAt.UnixMicro())
	if err != nil {
		return nil, unavailable("append expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable("append expense", err)
	}

	l.logger.DebugContext(ctx, "expense appended", "user_id", userID, "expense_id", id)
	return &model.Expense{
		ID:        id,
		UserID:    userID,
		Amount:    model.FromMinorUnits(minor),
		Category:  category,
		CreatedAt: createdAt,
	}, nil
}

func (l *SQLiteLedger) UndoLast(ctx context.Context, userID int64) (*model.Expense, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("undo last expense", err)
	}
	defer tx.Rollback()

	var (
		row     expenseRow
		created int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, amount_minor, category, created_at FROM expenses
		 WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID).
		Scan(&row.ID, &row.UserID, &row.AmountMinor, &row.Category, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable("undo last expense", err)
	}
	row.CreatedAt = time.UnixMicro(created)

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, row.ID); err != nil {
		return nil, unavailable("undo last expense", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, unavailable("undo last expense", err)
	}

	expense := row.toExpense(l.loc)
	return &expense, nil
}

func (l *SQLiteLedger) ResetAll(ctx context.Context, userID int64) (int64, error) {
	unlock := l.locks.Lock(userID)
	defer unlock()

	res, err := l.db.ExecContext(ctx, `DELETE FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return 0, unavailable("reset expenses", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("reset expenses", err)
	}
	return n, nil
}

func (l *SQLiteLedger) QueryRange(ctx context.Context, userID int64, start, end time.Time) ([]model.CategoryTotal, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT category, SUM(amount_minor) AS total FROM expenses
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY category ORDER BY total DESC, category ASC`,
		userID, start.UnixMicro(), end.UnixMicro())
	if err != nil {
		return nil, unavailable("query range", err)
	}
	defer rows.Close()

	totals := make([]model.CategoryTotal, 0)
	for rows.Next() {
		var (
			category string
			minor    int64
		)
		if err := rows.Scan(&category, &minor); err != nil {
			return nil, unavailable("query range", err)
		}
		totals = append(totals, model.CategoryTotal{Category: category, Amount: model.FromMinorUnits(minor)})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query range", err)
	}
	return totals, nil
}

func (l *SQLiteLedger) QueryAll(ctx context.Context, userID int64) ([]model.Expense, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, user_id, amount_minor, category, created_at FROM expenses
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, unavailable("query all", err)
	}
	defer rows.Close()

	expenses := make([]model.Expense, 0)
	for rows.Next() {
		var (
			row     expenseRow
			created int64
		)
		if err := rows.Scan(&row.ID, &row.UserID, &row.AmountMinor, &row.Category, &created); err != nil {
			return nil, unavailable("query all", err)
		}
		row.CreatedAt = time.UnixMicro(created)
		expenses = append(expenses, row.toExpense(l.loc))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("query all", err)
	}
	return expenses, nil
}

// ProfileAggregates читает все агрегаты в одной транзакции, поэтому
// параллельная запись не может попасть в часть подзапросов.
func (l *SQLiteLedger) ProfileAggregates(ctx context.Context, userID int64, now time.Time) (*model.ProfileAggregates, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("profile aggregates", err)
	}
	defer tx.Rollback()

	var total int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_minor), 0) FROM expenses WHERE user_id = ?`, userID).
		Scan(&total); err != nil {
		return nil, unavailable("profile aggregates", err)
	}

	var top string
	err = tx.QueryRowContext(ctx,
		`SELECT category FROM expenses WHERE user_id = ?
		 GROUP BY category ORDER BY SUM(amount_minor) DESC, category ASC LIMIT 1`, userID).
		Scan(&top)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, unavailable("profile aggregates", err)
	}

	start, end := last30Bounds(now, l.loc)
	var last30 int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_minor), 0) FROM expenses
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		userID, start.UnixMicro(), end.UnixMicro()).
		Scan(&last30); err != nil {
		return nil, unavailable("profile aggregates", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT created_at FROM expenses WHERE user_id = ?`, userID)
	if err != nil {
		return nil, unavailable("profile aggregates", err)
	}
	defer rows.Close()

	stamps := make([]time.Time, 0)
	for rows.Next() {
		var created int64
		if err := rows.Scan(&created); err != nil {
			return nil, unavailable("profile aggregates", err)
		}
		stamps = append(stamps, time.UnixMicro(created))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("profile aggregates", err)
	}

	days := distinctDays(stamps, l.loc)
	return &model.ProfileAggregates{
		Total:        model.FromMinorUnits(total),
		TopCategory:  top,
		DistinctDays: len(days),
		Last30Total:  model.FromMinorUnits(last30),
		ActiveDays:   days,
	}, nil
}
