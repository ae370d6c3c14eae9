package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, title, client, due_date, description, status, result,
assigner_telegram_id, assignee_telegram_id, updated_at`

func (r *TaskRepo) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, nullString(t.Client), nullTime(t.Due), nullString(t.Description), string(t.Status),
		nullString(t.Result), t.AssignerID, t.AssigneeID, nullTime(t.UpdatedAt))
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

func (r *TaskRepo) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET status = ?, result = ?, updated_at = ? WHERE id = ?`,
		string(upd.Status), upd.Result, upd.UpdatedAt.UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TaskRepo) CreateAttachment(ctx context.Context, a domain.TaskAttachment) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO task_files(task_id, file_url) VALUES(?,?)`, a.TaskID, a.FileRef)
	return err
}

// Attachments — файлы задачи в порядке добавления.
func (r *TaskRepo) Attachments(ctx context.Context, taskID string) ([]domain.TaskAttachment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT task_id, file_url FROM task_files WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.TaskAttachment
	for rows.Next() {
		var a domain.TaskAttachment
		if err := rows.Scan(&a.TaskID, &a.FileRef); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *TaskRepo) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) ListTasksByAssigner(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return r.list(ctx, `assigner_telegram_id`, telegramID)
}

func (r *TaskRepo) ListTasksByAssignee(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return r.list(ctx, `assignee_telegram_id`, telegramID)
}

func (r *TaskRepo) list(ctx context.Context, column string, telegramID int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+column+` = ? ORDER BY rowid`, telegramID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t                           domain.Task
		status                      string
		client, description, result sql.NullString
		due, updated                sql.NullTime
	)
	err := s.Scan(&t.ID, &t.Title, &client, &due, &description, &status, &result,
		&t.AssignerID, &t.AssigneeID, &updated)
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(status)
	t.Client = fromNullString(client)
	t.Description = fromNullString(description)
	t.Result = fromNullString(result)
	t.Due = fromNullTime(due)
	t.UpdatedAt = fromNullTime(updated)
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
