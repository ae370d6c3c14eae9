package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type TaskRepo struct {
	mu          sync.RWMutex
	order       []string
	tasks       map[string]domain.Task
	attachments []domain.TaskAttachment
}

func NewTaskRepo() *TaskRepo {
	return &TaskRepo{tasks: make(map[string]domain.Task)}
}

// CreateTask присваивает задаче id, если его нет.
func (r *TaskRepo) CreateTask(_ context.Context, t domain.Task) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := r.tasks[t.ID]; ok {
		return "", domain.ErrRejected
	}
	r.tasks[t.ID] = t
	r.order = append(r.order, t.ID)
	return t.ID, nil
}

func (r *TaskRepo) UpdateTask(_ context.Context, id string, upd domain.TaskUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return domain.ErrNotFound
	}
	result := upd.Result
	at := upd.UpdatedAt
	t.Status = upd.Status
	t.Result = &result
	t.UpdatedAt = &at
	r.tasks[id] = t
	return nil
}

func (r *TaskRepo) CreateAttachment(_ context.Context, a domain.TaskAttachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[a.TaskID]; !ok {
		return domain.ErrNotFound
	}
	r.attachments = append(r.attachments, a)
	return nil
}

func (r *TaskRepo) GetTask(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TaskRepo) ListTasksByAssigner(_ context.Context, telegramID int64) ([]domain.Task, error) {
	return r.filter(func(t domain.Task) bool { return t.AssignerID == telegramID }), nil
}

func (r *TaskRepo) ListTasksByAssignee(_ context.Context, telegramID int64) ([]domain.Task, error) {
	return r.filter(func(t domain.Task) bool { return t.AssigneeID == telegramID }), nil
}

// Attachments — вложения задачи в порядке добавления.
func (r *TaskRepo) Attachments(taskID string) []domain.TaskAttachment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domain.TaskAttachment
	for _, a := range r.attachments {
		if a.TaskID == taskID {
			res = append(res, a)
		}
	}
	return res
}

func (r *TaskRepo) filter(keep func(domain.Task) bool) []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []domain.Task
	for _, id := range r.order {
		if t := r.tasks[id]; keep(t) {
			res = append(res, t)
		}
	}
	return res
}
