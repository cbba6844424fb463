// Package events публикует уведомления об изменениях журнала расходов.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dorraborra/finbot/internal/model"
)

// Type - вид изменения журнала. Используется как routing key.
type Type string

const (
	Appended Type = "expense.appended"
	Undone   Type = "expense.undone"
	Reset    Type = "ledger.reset"
)

// Event - уведомление об изменении журнала пользователя.
type Event struct {
	Type        Type      `json:"type"`
	UserID      int64     `json:"user_id"`
	ExpenseID   int64     `json:"expense_id,omitempty"`
	AmountMinor int64     `json:"amount_minor,omitempty"`
	Category    string    `json:"category,omitempty"`
	Count       int64     `json:"count,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseEvent описывает добавление или отмену записи.
func NewExpenseEvent(t Type, e *model.Expense, now time.Time) Event {
	return Event{
		Type:        t,
		UserID:      e.UserID,
		ExpenseID:   e.ID,
		AmountMinor: model.ToMinorUnits(e.Amount),
		Category:    e.Category,
		Timestamp:   now,
	}
}

// NewResetEvent описывает полный сброс журнала.
func NewResetEvent(userID, deleted int64, now time.Time) Event {
	return Event{Type: Reset, UserID: userID, Count: deleted, Timestamp: now}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher доставляет события подписчикам.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher молча отбрасывает события. Используется, когда брокер не настроен.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
