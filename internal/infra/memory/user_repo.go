package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[int64]domain.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]domain.User)}
}

func (r *UserRepo) FindUser(_ context.Context, telegramID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[telegramID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) CreateUser(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.TelegramID]; ok {
		return domain.ErrRejected
	}
	r.users[u.TelegramID] = u
	return nil
}

func (r *UserRepo) ListUserIDs(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]int64, 0, len(r.users))
	for id := range r.users {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}
