package memory

import (
	"context"
	"sync"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/usecase"
)

// BroadcastStatRepo хранит итоги рассылок, новые в конце.
type BroadcastStatRepo struct {
	mu    sync.RWMutex
	stats []usecase.BroadcastStat
	now   func() time.Time
}

func NewBroadcastStatRepo() *BroadcastStatRepo {
	return &BroadcastStatRepo{now: time.Now}
}

func (r *BroadcastStatRepo) Save(_ context.Context, stat usecase.BroadcastStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stat.CreatedAt.IsZero() {
		stat.CreatedAt = r.now()
	}
	r.stats = append(r.stats, stat)
	return nil
}

// ListRecent — последние n итогов, свежие первыми. n <= 0 означает все.
func (r *BroadcastStatRepo) ListRecent(_ context.Context, n int) ([]usecase.BroadcastStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 || n > len(r.stats) {
		n = len(r.stats)
	}
	res := make([]usecase.BroadcastStat, n)
	for i := range res {
		res[i] = r.stats[len(r.stats)-1-i]
	}
	return res, nil
}
