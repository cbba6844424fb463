// Package conversation ведёт диалог добавления расхода: сумма, затем
// категория. Отмена и сброс доступны в любом состоянии.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/model"
)

// resetConfirmWindow - сколько живёт запрос на сброс.
const resetConfirmWindow = 5 * time.Minute

// Ledger - операции журнала, которые нужны диалогу.
type Ledger interface {
	Append(ctx context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error)
	UndoLast(ctx context.Context, userID int64) (*model.Expense, error)
	ResetAll(ctx context.Context, userID int64) (int64, error)
}

// Machine - конечный автомат диалога. Безопасен для конкурентного
// использования: события одного пользователя обрабатываются по очереди.
type Machine struct {
	ledger   Ledger
	catalog  *catalog.Catalog
	sessions *SessionStore
	pageSize int
	logger   *slog.Logger
}

// NewMachine создаёт автомат.
func NewMachine(ledger Ledger, cat *catalog.Catalog, sessions *SessionStore, pageSize int) *Machine {
	return &Machine{
		ledger:   ledger,
		catalog:  cat,
		sessions: sessions,
		pageSize: pageSize,
		logger:   slog.With("component", "conversation"),
	}
}

// HandleStart начинает диалог заново.
func (m *Machine) HandleStart(ctx context.Context, userID int64) (Action, error) {
	err := m.sessions.With(userID, func(s *Session) error {
		*s = Session{}
		return nil
	})
	return Action{Kind: ActionAskAmount}, err
}

// HandleText разбирает свободный текст в зависимости от состояния: в ожидании
// категории текст сначала сверяется с каталогом, всё остальное считается суммой.
func (m *Machine) HandleText(ctx context.Context, userID int64, text string) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		var err error
		if s.State == AwaitingCategory {
			if key, ok := m.catalog.Resolve(text); ok {
				action, err = m.selectCategory(ctx, userID, s, key)
				return err
			}
			if _, perr := model.ParseAmount(text); perr != nil {
				action = m.unknownCategory(s, text)
				return nil
			}
		}
		action = m.amountInput(s, text)
		return nil
	})
	return action, err
}

// HandleAmountInput принимает сумму в любом состоянии.
func (m *Machine) HandleAmountInput(ctx context.Context, userID int64, text string) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		action = m.amountInput(s, text)
		return nil
	})
	return action, err
}

// HandleCategorySelection записывает расход с выбранной категорией.
func (m *Machine) HandleCategorySelection(ctx context.Context, userID int64, key string) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		var err error
		action, err = m.selectCategory(ctx, userID, s, key)
		return err
	})
	return action, err
}

// HandlePageRequest показывает другую страницу категорий.
func (m *Machine) HandlePageRequest(ctx context.Context, userID int64, page int) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		if s.State != AwaitingCategory || !s.PendingAmount.Valid {
			s.clear()
			action = Action{Kind: ActionDesync}
			return nil
		}
		action = Action{
			Kind:   ActionChooseCategory,
			Amount: s.PendingAmount.Decimal,
			Page:   m.catalog.Page(page, m.pageSize),
		}
		return nil
	})
	return action, err
}

// HandleUndo удаляет последнюю запись пользователя. Сессию не меняет.
func (m *Machine) HandleUndo(ctx context.Context, userID int64) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		expense, err := m.ledger.UndoLast(ctx, userID)
		if err != nil {
			s.clear()
			return storageFailure("undo", err)
		}
		if expense == nil {
			action = Action{Kind: ActionNothingToUndo}
			return nil
		}
		action = Action{Kind: ActionUndone, Expense: expense}
		return nil
	})
	return action, err
}

// HandleResetRequest запрашивает подтверждение сброса.
func (m *Machine) HandleResetRequest(ctx context.Context, userID int64) (Action, error) {
	err := m.sessions.With(userID, func(s *Session) error {
		s.ResetRequested = true
		s.ResetRequestedAt = m.sessions.now()
		return nil
	})
	return Action{Kind: ActionConfirmReset}, err
}

// HandleResetConfirm удаляет все записи пользователя, если сброс был
// запрошен и запрос не устарел.
func (m *Machine) HandleResetConfirm(ctx context.Context, userID int64) (Action, error) {
	var action Action
	err := m.sessions.With(userID, func(s *Session) error {
		requested := s.ResetRequested && m.sessions.now().Sub(s.ResetRequestedAt) <= resetConfirmWindow
		s.ResetRequested = false
		s.ResetRequestedAt = time.Time{}
		if !requested {
			action = Action{Kind: ActionResetExpired}
			return nil
		}

		deleted, err := m.ledger.ResetAll(ctx, userID)
		if err != nil {
			s.clear()
			return storageFailure("reset", err)
		}
		m.logger.InfoContext(ctx, "ledger reset", "user_id", userID, "deleted", deleted)
		action = Action{Kind: ActionResetDone, Deleted: deleted}
		return nil
	})
	return action, err
}

// HandleResetCancel отменяет запрос на сброс.
func (m *Machine) HandleResetCancel(ctx context.Context, userID int64) (Action, error) {
	err := m.sessions.With(userID, func(s *Session) error {
		s.ResetRequested = false
		s.ResetRequestedAt = time.Time{}
		return nil
	})
	return Action{Kind: ActionResetCancelled}, err
}

func (m *Machine) amountInput(s *Session, text string) Action {
	amount, err := model.ParseAmount(text)
	if err != nil {
		s.clear()
		return Action{Kind: ActionAskAmount, Invalid: true}
	}

	s.State = AwaitingCategory
	s.PendingAmount = decimal.NewNullDecimal(amount)
	return Action{
		Kind:   ActionChooseCategory,
		Amount: amount,
		Page:   m.catalog.Page(0, m.pageSize),
	}
}

func (m *Machine) selectCategory(ctx context.Context, userID int64, s *Session, key string) (Action, error) {
	if s.State != AwaitingCategory || !s.PendingAmount.Valid {
		m.logger.DebugContext(ctx, "category without pending amount", "user_id", userID, "category", key)
		s.clear()
		return Action{Kind: ActionDesync}, nil
	}
	if !m.catalog.Contains(key) {
		return Action{
			Kind:   ActionUnknownCategory,
			Amount: s.PendingAmount.Decimal,
			Page:   m.catalog.Page(0, m.pageSize),
		}, nil
	}

	expense, err := m.ledger.Append(ctx, userID, s.PendingAmount.Decimal, key)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidAmount):
		s.clear()
		return Action{Kind: ActionAskAmount, Invalid: true}, nil
	case errors.Is(err, model.ErrUnknownCategory):
		return Action{
			Kind:   ActionUnknownCategory,
			Amount: s.PendingAmount.Decimal,
			Page:   m.catalog.Page(0, m.pageSize),
		}, nil
	default:
		s.clear()
		return Action{}, storageFailure("append", err)
	}

	s.clear()
	return Action{Kind: ActionCommitted, Expense: expense}, nil
}

func (m *Machine) unknownCategory(s *Session, text string) Action {
	action := Action{
		Kind:   ActionUnknownCategory,
		Amount: s.PendingAmount.Decimal,
		Page:   m.catalog.Page(0, m.pageSize),
	}
	if opt, ok := m.catalog.Suggest(text); ok {
		action.Suggestion = &opt
	}
	return action
}

// storageFailure приводит любую ошибку журнала к ErrStorageUnavailable.
func storageFailure(op string, err error) error {
	if errors.Is(err, model.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}
