package usecase

import (
	"context"
	"sync"

	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

// HandlerFunc обрабатывает одно входящее событие.
type HandlerFunc func(ctx context.Context, u Update)

// Dispatcher держит отдельную очередь на каждый чат: события одного чата
// обрабатываются строго по очереди, разные чаты не ждут друг друга.
// Одновременно обрабатывается не больше workers чатов.
type Dispatcher struct {
	handle HandlerFunc
	log    *logger.Logger
	slots  chan struct{}
	limit  int

	mu      sync.Mutex
	ctx     context.Context
	pending map[int64][]Update
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatcher: perChat ограничивает число ждущих событий одного чата,
// лишние отбрасываются; 0 — без ограничения.
func NewDispatcher(workers, perChat int, handle HandlerFunc, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		handle:  handle,
		log:     log,
		slots:   make(chan struct{}, workers),
		limit:   perChat,
		ctx:     context.Background(),
		pending: make(map[int64][]Update),
	}
}

// Start задаёт контекст, с которым вызывается обработчик.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()
}

// Dispatch ставит событие в очередь чата и не блокируется.
func (d *Dispatcher) Dispatch(u Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn().Int64("chat_id", u.ChatID).Msg("dispatcher stopped, update dropped")
		return
	}
	q, busy := d.pending[u.ChatID]
	if d.limit > 0 && len(q) >= d.limit {
		d.log.Warn().Int64("chat_id", u.ChatID).Int("queued", len(q)).Msg("chat queue full, update dropped")
		return
	}
	d.pending[u.ChatID] = append(q, u)
	if !busy {
		d.wg.Add(1)
		go d.drain(d.ctx, u.ChatID)
	}
}

// Stop перестаёт принимать события и ждёт, пока очереди опустеют.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// drain разбирает очередь чата; запись в pending живёт, пока работает drain.
func (d *Dispatcher) drain(ctx context.Context, chatID int64) {
	defer d.wg.Done()
	d.slots <- struct{}{}
	defer func() { <-d.slots }()
	for {
		d.mu.Lock()
		q := d.pending[chatID]
		if len(q) == 0 {
			delete(d.pending, chatID)
			d.mu.Unlock()
			return
		}
		u := q[0]
		d.pending[chatID] = q[1:]
		d.mu.Unlock()
		d.safeHandle(ctx, u)
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int64("chat_id", u.ChatID).Msg("update handler panicked")
		}
	}()
	d.handle(ctx, u)
}
