package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// State - шаг диалога добавления расхода.
type State int

const (
	AwaitingAmount State = iota
	AwaitingCategory
)

func (s State) String() string {
	if s == AwaitingCategory {
		return "awaiting_category"
	}
	return "awaiting_amount"
}

// Session - незавершённый ввод пользователя. Хранится только в памяти.
type Session struct {
	State            State
	PendingAmount    decimal.NullDecimal
	ResetRequested   bool
	ResetRequestedAt time.Time
	UpdatedAt        time.Time
}

// clear возвращает сессию в начальное состояние, не трогая запрос на сброс.
func (s *Session) clear() {
	s.State = AwaitingAmount
	s.PendingAmount = decimal.NullDecimal{}
}

// SessionStore хранит сессии по ID пользователя. Операции над одной
// сессией выполняются строго по очереди, разные пользователи друг друга
// не блокируют. Сессии, к которым не обращались дольше ttl, удаляет Sweep.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session Session
	refs    int
	touched time.Time
}

// NewSessionStore создаёт хранилище; ttl <= 0 отключает вытеснение.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]*sessionEntry),
	}
}

// With выполняет fn над сессией пользователя, удерживая блокировку только
// этого пользователя. Сессия создаётся при первом обращении.
func (s *SessionStore) With(userID int64, fn func(*Session) error) error {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &sessionEntry{}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	err := fn(&e.session)
	now := s.now()
	e.session.UpdatedAt = now
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	e.touched = now
	s.mu.Unlock()

	return err
}

// Get возвращает копию сессии пользователя.
func (s *SessionStore) Get(userID int64) (Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if ok {
		e.refs++
	}
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	session := e.session
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	s.mu.Unlock()
	return session, true
}

// Sweep удаляет простаивающие сессии и возвращает их количество.
// Сессии, которые сейчас обрабатываются, не трогает.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		if e.refs == 0 && now.Sub(e.touched) > s.ttl {
			delete(s.entries, userID)
			removed++
		}
	}
	return removed
}

// RunSweeper периодически удаляет устаревшие сессии, пока не отменён ctx.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) error {
	if s.ttl <= 0 || interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.DebugContext(ctx, "expired sessions removed", "count", n, "remaining", s.Len())
			}
		}
	}
}

// Len возвращает число сессий в памяти.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
