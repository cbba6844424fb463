package bot

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// HandlerFunc обрабатывает одно обновление.
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

type queuedUpdate struct {
	ctx    context.Context
	update tgbotapi.Update
}

// Dispatcher раздаёт обновления по пользователям: обновления одного
// пользователя обрабатываются строго в порядке поступления, разные
// пользователи обслуживаются параллельно. Одновременно работает не больше
// maxWorkers обработчиков; при исчерпании лимита Submit ждёт.
type Dispatcher struct {
	handle HandlerFunc
	group  errgroup.Group
	logger *slog.Logger

	mu     sync.Mutex
	queues map[int64][]queuedUpdate
}

func NewDispatcher(maxWorkers int, handle HandlerFunc) *Dispatcher {
	d := &Dispatcher{
		handle: handle,
		logger: slog.With("component", "dispatcher"),
		queues: make(map[int64][]queuedUpdate),
	}
	if maxWorkers > 0 {
		d.group.SetLimit(maxWorkers)
	}
	return d
}

// Submit ставит обновление в очередь его пользователя.
func (d *Dispatcher) Submit(ctx context.Context, update tgbotapi.Update) {
	userID, ok := updateUserID(update)
	if !ok {
		return
	}
	item := queuedUpdate{ctx: ctx, update: update}

	d.mu.Lock()
	if queue, active := d.queues[userID]; active {
		d.queues[userID] = append(queue, item)
		d.mu.Unlock()
		return
	}
	// Пустая очередь отмечает, что у пользователя уже есть обработчик.
	d.queues[userID] = []queuedUpdate{}
	d.mu.Unlock()

	d.group.Go(func() error {
		d.drain(userID, item)
		return nil
	})
}

func (d *Dispatcher) drain(userID int64, item queuedUpdate) {
	for {
		d.safeHandle(userID, item)

		d.mu.Lock()
		queue := d.queues[userID]
		if len(queue) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		item = queue[0]
		d.queues[userID] = queue[1:]
		d.mu.Unlock()
	}
}

// safeHandle не даёт панике в обработчике уронить процесс или оставить
// очередь пользователя занятой.
func (d *Dispatcher) safeHandle(userID int64, item queuedUpdate) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(item.ctx, "update handler panicked",
				"user_id", userID, "update_id", item.update.UpdateID,
				"panic", r, "stack", string(debug.Stack()))
		}
	}()
	d.handle(item.ctx, item.update)
}

// Wait дожидается, пока все очереди опустеют.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}

// Active возвращает число пользователей, чьи обновления сейчас обрабатываются.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}
