package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

// ProfileRepo — справочник профилей; в памяти заполняется через Upsert.
type ProfileRepo struct {
	mu       sync.RWMutex
	profiles map[int64]domain.Profile
}

func NewProfileRepo(seed ...domain.Profile) *ProfileRepo {
	r := &ProfileRepo{profiles: make(map[int64]domain.Profile)}
	for _, p := range seed {
		r.profiles[p.TelegramID] = p
	}
	return r
}

func (r *ProfileRepo) Upsert(_ context.Context, p domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.TelegramID] = p
	return nil
}

func (r *ProfileRepo) FindProfile(_ context.Context, telegramID int64) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[telegramID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProfileRepo) FindProfilesByRoles(_ context.Context, roles []domain.Role) ([]domain.Profile, error) {
	want := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		want[role] = struct{}{}
	}
	return r.filter(func(p domain.Profile) bool {
		_, ok := want[p.Role]
		return ok
	}), nil
}

func (r *ProfileRepo) FindProfilesByName(_ context.Context, name string) ([]domain.Profile, error) {
	return r.filter(func(p domain.Profile) bool { return domain.SameName(p.FullName, name) }), nil
}

func (r *ProfileRepo) filter(keep func(domain.Profile) bool) []domain.Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domain.Profile
	for _, p := range r.profiles {
		if keep(p) {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].TelegramID < res[j].TelegramID })
	return res
}
