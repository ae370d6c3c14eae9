package memory

import (
	"context"
	"sync"

	"github.com/a4tg/SDS-crm-bot/internal/usecase"
)

type hitKey struct {
	step   usecase.Step
	chatID int64
}

// FunnelRepo считает уникальные чаты на каждом шаге.
type FunnelRepo struct {
	mu   sync.RWMutex
	hits map[hitKey]struct{}
}

func NewFunnelRepo() *FunnelRepo {
	return &FunnelRepo{hits: make(map[hitKey]struct{})}
}

func (r *FunnelRepo) Hit(_ context.Context, step usecase.Step, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[hitKey{step: step, chatID: chatID}] = struct{}{}
	return nil
}

func (r *FunnelRepo) Counts(_ context.Context) (map[usecase.Step]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[usecase.Step]int)
	for k := range r.hits {
		out[k.step]++
	}
	return out, nil
}
