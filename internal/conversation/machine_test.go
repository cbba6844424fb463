package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorraborra/finbot/internal/catalog"
	"github.com/dorraborra/finbot/internal/model"
)

type fakeLedger struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64][]model.Expense
	err     error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[int64][]model.Expense)}
}

func (f *fakeLedger) Append(_ context.Context, userID int64, amount decimal.Decimal, category string) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	e := model.Expense{ID: f.nextID, UserID: userID, Amount: amount, Category: category, CreatedAt: time.Now()}
	f.records[userID] = append(f.records[userID], e)
	return &e, nil
}

func (f *fakeLedger) UndoLast(_ context.Context, userID int64) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	recs := f.records[userID]
	if len(recs) == 0 {
		return nil, nil
	}
	last := recs[len(recs)-1]
	f.records[userID] = recs[:len(recs)-1]
	return &last, nil
}

func (f *fakeLedger) ResetAll(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	n := int64(len(f.records[userID]))
	delete(f.records, userID)
	return n, nil
}

func (f *fakeLedger) count(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records[userID])
}

func newTestMachine(ledger Ledger) (*Machine, *SessionStore) {
	sessions := NewSessionStore(time.Hour)
	return NewMachine(ledger, catalog.Default(), sessions, 6), sessions
}

func TestMachine_AmountThenCategory(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, sessions := newTestMachine(ledger)

	action, err := m.HandleText(ctx, 1, "390")
	require.NoError(t, err)
	assert.Equal(t, ActionChooseCategory, action.Kind)
	assert.Equal(t, "390", action.Amount.String())
	assert.Equal(t, 0, action.Page.Index)
	assert.Len(t, action.Page.Options, 6)
	assert.True(t, action.Page.HasNext)

	s, ok := sessions.Get(1)
	require.True(t, ok)
	assert.Equal(t, AwaitingCategory, s.State)

	action, err = m.HandleCategorySelection(ctx, 1, "coffee")
	require.NoError(t, err)
	assert.Equal(t, ActionCommitted, action.Kind)
	require.NotNil(t, action.Expense)
	assert.Equal(t, "coffee", action.Expense.Category)
	assert.Equal(t, "390", action.Expense.Amount.String())

	s, _ = sessions.Get(1)
	assert.Equal(t, AwaitingAmount, s.State)
	assert.False(t, s.PendingAmount.Valid)
	assert.Equal(t, 1, ledger.count(1))
}

func TestMachine_InvalidAmountReprompts(t *testing.T) {
	ctx := context.Background()
	m, sessions := newTestMachine(newFakeLedger())

	for _, text := range []string{"abc", "0", "-5", "1.2.3", ""} {
		action, err := m.HandleText(ctx, 1, text)
		require.NoError(t, err)
		assert.Equal(t, ActionAskAmount, action.Kind, text)
		assert.True(t, action.Invalid, text)
	}

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingAmount, s.State)
}

func TestMachine_CategoryByLabelText(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, _ := newTestMachine(ledger)

	_, err := m.HandleText(ctx, 1, "12,5")
	require.NoError(t, err)

	action, err := m.HandleText(ctx, 1, "☕ Кофе")
	require.NoError(t, err)
	require.Equal(t, ActionCommitted, action.Kind)
	assert.Equal(t, "coffee", action.Expense.Category)
	assert.Equal(t, "12.5", action.Expense.Amount.String())
}

func TestMachine_UnknownCategoryTextSuggests(t *testing.T) {
	ctx := context.Background()
	m, sessions := newTestMachine(newFakeLedger())

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)

	action, err := m.HandleText(ctx, 1, "такси!")
	require.NoError(t, err)
	assert.Equal(t, ActionUnknownCategory, action.Kind)
	require.NotNil(t, action.Suggestion)
	assert.Equal(t, "taxi", action.Suggestion.Key)
	assert.Equal(t, "100", action.Amount.String())

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingCategory, s.State)
	assert.True(t, s.PendingAmount.Valid)
}

func TestMachine_NewAmountWhileChoosingCategory(t *testing.T) {
	ctx := context.Background()
	m, sessions := newTestMachine(newFakeLedger())

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)
	action, err := m.HandleText(ctx, 1, "250")
	require.NoError(t, err)
	assert.Equal(t, ActionChooseCategory, action.Kind)

	s, _ := sessions.Get(1)
	assert.Equal(t, "250", s.PendingAmount.Decimal.String())
}

func TestMachine_UnknownCategoryKey(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, _ := newTestMachine(ledger)

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)

	action, err := m.HandleCategorySelection(ctx, 1, "yachts")
	require.NoError(t, err)
	assert.Equal(t, ActionUnknownCategory, action.Kind)
	assert.Equal(t, 0, action.Page.Index)
	assert.Zero(t, ledger.count(1))
}

func TestMachine_DesyncWithoutAmount(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, sessions := newTestMachine(ledger)

	action, err := m.HandleCategorySelection(ctx, 1, "coffee")
	require.NoError(t, err)
	assert.Equal(t, ActionDesync, action.Kind)
	assert.Zero(t, ledger.count(1))

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingAmount, s.State)

	action, err = m.HandlePageRequest(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionDesync, action.Kind)
}

func TestMachine_PageRequestClamps(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMachine(newFakeLedger())

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)

	action, err := m.HandlePageRequest(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionChooseCategory, action.Kind)
	assert.Equal(t, 1, action.Page.Index)
	assert.True(t, action.Page.HasPrev)
	assert.False(t, action.Page.HasNext)

	action, err = m.HandlePageRequest(ctx, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, action.Page.Index)

	action, err = m.HandlePageRequest(ctx, 1, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, action.Page.Index)
}

func TestMachine_UndoKeepsSession(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, sessions := newTestMachine(ledger)

	action, err := m.HandleUndo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionNothingToUndo, action.Kind)

	_, err = m.HandleText(ctx, 1, "100")
	require.NoError(t, err)
	_, err = m.HandleCategorySelection(ctx, 1, "taxi")
	require.NoError(t, err)
	_, err = m.HandleText(ctx, 1, "50")
	require.NoError(t, err)

	action, err = m.HandleUndo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionUndone, action.Kind)
	assert.Equal(t, "taxi", action.Expense.Category)

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingCategory, s.State)
	assert.Equal(t, "50", s.PendingAmount.Decimal.String())
}

func TestMachine_ResetRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, _ := newTestMachine(ledger)

	for _, amount := range []string{"1", "2"} {
		_, err := m.HandleText(ctx, 1, amount)
		require.NoError(t, err)
		_, err = m.HandleCategorySelection(ctx, 1, "other")
		require.NoError(t, err)
	}

	action, err := m.HandleResetConfirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetExpired, action.Kind)
	assert.Equal(t, 2, ledger.count(1))

	action, err = m.HandleResetRequest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionConfirmReset, action.Kind)

	action, err = m.HandleResetCancel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetCancelled, action.Kind)

	action, err = m.HandleResetConfirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetExpired, action.Kind)

	_, err = m.HandleResetRequest(ctx, 1)
	require.NoError(t, err)
	action, err = m.HandleResetConfirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetDone, action.Kind)
	assert.EqualValues(t, 2, action.Deleted)
	assert.Zero(t, ledger.count(1))

	action, err = m.HandleResetConfirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetExpired, action.Kind)
}

func TestMachine_ResetRequestExpires(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, sessions := newTestMachine(ledger)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions.now = func() time.Time { return now }

	_, err := m.HandleResetRequest(ctx, 1)
	require.NoError(t, err)

	now = now.Add(resetConfirmWindow + time.Second)
	action, err := m.HandleResetConfirm(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionResetExpired, action.Kind)
}

func TestMachine_StorageFailureReturnsToAwaitingAmount(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, sessions := newTestMachine(ledger)

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)

	ledger.err = errors.New("disk I/O error")
	_, err = m.HandleCategorySelection(ctx, 1, "coffee")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingAmount, s.State)
	assert.False(t, s.PendingAmount.Valid)

	_, err = m.HandleUndo(ctx, 1)
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)
}

func TestMachine_StartClearsSession(t *testing.T) {
	ctx := context.Background()
	m, sessions := newTestMachine(newFakeLedger())

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)
	_, err = m.HandleResetRequest(ctx, 1)
	require.NoError(t, err)

	action, err := m.HandleStart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, ActionAskAmount, action.Kind)
	assert.False(t, action.Invalid)

	s, _ := sessions.Get(1)
	assert.Equal(t, AwaitingAmount, s.State)
	assert.False(t, s.ResetRequested)
}

func TestMachine_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	m, _ := newTestMachine(ledger)

	_, err := m.HandleText(ctx, 1, "100")
	require.NoError(t, err)

	action, err := m.HandleCategorySelection(ctx, 2, "coffee")
	require.NoError(t, err)
	assert.Equal(t, ActionDesync, action.Kind)

	action, err = m.HandleCategorySelection(ctx, 1, "coffee")
	require.NoError(t, err)
	assert.Equal(t, ActionCommitted, action.Kind)
}
