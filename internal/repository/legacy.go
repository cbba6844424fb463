package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/model"
)

// ImportLegacy переносит записи из базы первой версии бота:
// expenses(user_id, amount REAL, category TEXT, created_at TEXT в ISO 8601).
// Категории копируются как есть; их подписи берутся из исторической
// таблицы каталога. Возвращает число перенесённых записей.
//
// Повторный импорт ничего не дублирует: строка переносится, только если
// таких же (user_id, amount_minor, category, created_at) в журнале меньше,
// чем в источнике.
func (l *SQLiteLedger) ImportLegacy(ctx context.Context, legacyPath string) (int, error) {
	if _, err := os.Stat(legacyPath); err != nil {
		return 0, fmt.Errorf("open legacy database: %w", err)
	}
	src, err := sql.Open("sqlite", readOnlyDSN(legacyPath))
	if err != nil {
		return 0, fmt.Errorf("open legacy database: %w", err)
	}
	defer src.Close()

	rows, err := src.QueryContext(ctx,
		`SELECT user_id, amount, category, created_at FROM expenses ORDER BY id`)
	if err != nil {
		return 0, fmt.Errorf("read legacy expenses: %w", err)
	}
	defer rows.Close()

	type legacyRow struct {
		userID    int64
		minor     int64
		category  string
		createdAt int64
	}
	var batch []legacyRow
	for rows.Next() {
		var (
			userID   int64
			amount   float64
			category string
			created  string
		)
		if err := rows.Scan(&userID, &amount, &category, &created); err != nil {
			return 0, fmt.Errorf("scan legacy expense: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			l.logger.WarnContext(ctx, "skipping legacy row with bad timestamp", "created_at", created, "error", err)
			continue
		}
		minor := model.ToMinorUnits(decimal.NewFromFloat(amount))
		if minor <= 0 || category == "" {
			l.logger.WarnContext(ctx, "skipping invalid legacy row", "user_id", userID, "amount", amount)
			continue
		}
		batch = append(batch, legacyRow{userID: userID, minor: minor, category: category, createdAt: ts.UnixMicro()})
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read legacy expenses: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("import legacy", err)
	}
	defer tx.Rollback()

	count, err := tx.PrepareContext(ctx,
		`SELECT COUNT(*) FROM expenses
		 WHERE user_id = ? AND amount_minor = ? AND category = ? AND created_at = ?`)
	if err != nil {
		return 0, unavailable("import legacy", err)
	}
	defer count.Close()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (user_id, amount_minor, category, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, unavailable("import legacy", err)
	}
	defer insert.Close()

	existing := make(map[legacyRow]int)
	seen := make(map[legacyRow]int)
	imported := 0
	for _, r := range batch {
		if _, ok := existing[r]; !ok {
			var n int
			if err := count.QueryRowContext(ctx, r.userID, r.minor, r.category, r.createdAt).Scan(&n); err != nil {
				return 0, unavailable("import legacy", err)
			}
			existing[r] = n
		}
		seen[r]++
		if seen[r] <= existing[r] {
			continue
		}
		if _, err := insert.ExecContext(ctx, r.userID, r.minor, r.category, r.createdAt); err != nil {
			return 0, unavailable("import legacy", err)
		}
		imported++
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("import legacy", err)
	}

	l.logger.InfoContext(ctx, "legacy expenses imported",
		"count", imported, "already_present", len(batch)-imported, "path", legacyPath)
	return imported, nil
}

// readOnlyDSN открывает файл только на чтение: несуществующая база
// не создаётся.
func readOnlyDSN(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(path)
	return "file:" + escaped + "?mode=ro"
}
