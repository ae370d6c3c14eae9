package memory

import (
	"context"
	"sync"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type LeadRepo struct {
	mu    sync.RWMutex
	leads []domain.Lead
}

func NewLeadRepo() *LeadRepo {
	return &LeadRepo{}
}

func (r *LeadRepo) CreateLead(_ context.Context, l domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, l)
	return nil
}

// ListLeadsByOwner возвращает лиды в порядке создания.
func (r *LeadRepo) ListLeadsByOwner(_ context.Context, ownerID int64) ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domain.Lead
	for _, l := range r.leads {
		if l.OwnerID == ownerID {
			res = append(res, l)
		}
	}
	return res, nil
}
