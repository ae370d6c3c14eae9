package domain

import (
	"context"
	"time"
)

type TaskStatus string

// Значения совпадают с тем, что уже лежит в таблице tasks.
const (
	StatusInProgress    TaskStatus = "Выполняется"
	StatusPendingReview TaskStatus = "Результат на согласовании"
)

type Task struct {
	ID          string
	Title       string
	Client      *string
	Due         *time.Time
	Description *string
	Status      TaskStatus
	Result      *string
	AssignerID  int64
	AssigneeID  int64
	UpdatedAt   *time.Time
}

// Involves сообщает, является ли пользователь постановщиком или исполнителем задачи.
func (t Task) Involves(telegramID int64) bool {
	return t.AssignerID == telegramID || t.AssigneeID == telegramID
}

// TaskUpdate — единственная мутация задачи: прикрепление результата.
type TaskUpdate struct {
	Status    TaskStatus
	Result    string
	UpdatedAt time.Time
}

type TaskAttachment struct {
	TaskID  string
	FileRef string
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t Task) (string, error)
	UpdateTask(ctx context.Context, id string, upd TaskUpdate) error
	CreateAttachment(ctx context.Context, a TaskAttachment) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasksByAssigner(ctx context.Context, telegramID int64) ([]Task, error)
	ListTasksByAssignee(ctx context.Context, telegramID int64) ([]Task, error)
}
