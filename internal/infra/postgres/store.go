package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

var (
	_ domain.UserRepository    = (*Store)(nil)
	_ domain.LeadRepository    = (*Store)(nil)
	_ domain.TaskRepository    = (*Store)(nil)
	_ domain.ProfileRepository = (*Store)(nil)
)

// Store работает с той же схемой, что и Supabase, но напрямую через pgx.
type Store struct {
	q Querier
}

func NewStore(q Querier) *Store {
	return &Store{q: q}
}

// wrap помечает ошибки драйвера как недоступность хранилища.
func wrap(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}

func (s *Store) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := s.q.QueryRow(ctx, `
		SELECT telegram_id, coalesce(username, ''), coalesce(first_name, ''), coalesce(last_name, '')
		FROM users WHERE telegram_id = $1`, telegramID,
	).Scan(&u.TelegramID, &u.Username, &u.FirstName, &u.LastName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("find user", err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO users (telegram_id, username, first_name, last_name) VALUES ($1, $2, $3, $4)`,
		u.TelegramID, u.Username, u.FirstName, u.LastName)
	if err != nil {
		return wrap("create user", err)
	}
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.q.Query(ctx, `SELECT telegram_id FROM users ORDER BY telegram_id`)
	if err != nil {
		return nil, wrap("list users", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrap("list users", err)
	}
	return ids, nil
}

func (s *Store) CreateLead(ctx context.Context, l domain.Lead) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := s.q.Exec(ctx, `
		INSERT INTO leads (telegram_id, name, phone, email, created_at) VALUES ($1, $2, $3, $4, $5)`,
		l.OwnerID, l.Name, l.Phone, l.Email, l.CreatedAt)
	if err != nil {
		return wrap("create lead", err)
	}
	return nil
}

func (s *Store) ListLeadsByOwner(ctx context.Context, ownerID int64) ([]domain.Lead, error) {
	rows, err := s.q.Query(ctx, `
		SELECT telegram_id, name, phone, email, created_at
		FROM leads WHERE telegram_id = $1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, wrap("list leads", err)
	}
	defer rows.Close()
	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.OwnerID, &l.Name, &l.Phone, &l.Email, &l.CreatedAt); err != nil {
			return nil, wrap("scan lead", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list leads", err)
	}
	return out, nil
}

const taskColumns = `id::text, title, client, due_date, description, status, result,
	assigner_telegram_id, assignee_telegram_id, updated_at`

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	var id string
	err := s.q.QueryRow(ctx, `
		INSERT INTO tasks (title, client, due_date, description, status, assigner_telegram_id, assignee_telegram_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text`,
		t.Title, t.Client, t.Due, t.Description, string(t.Status), t.AssignerID, t.AssigneeID,
	).Scan(&id)
	if err != nil {
		return "", wrap("create task", err)
	}
	return id, nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE tasks SET status = $1, result = $2, updated_at = $3 WHERE id::text = $4`,
		string(upd.Status), upd.Result, upd.UpdatedAt, id)
	if err != nil {
		return wrap("update task", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update task %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateAttachment(ctx context.Context, a domain.TaskAttachment) error {
	_, err := s.q.Exec(ctx, `INSERT INTO task_files (task_id, file_url) VALUES ($1, $2)`, a.TaskID, a.FileRef)
	if err != nil {
		return wrap("create task file", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(s.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id::text = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get task", err)
	}
	return &t, nil
}

func (s *Store) ListTasksByAssigner(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE assigner_telegram_id = $1`, telegramID)
}

func (s *Store) ListTasksByAssignee(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE assignee_telegram_id = $1`, telegramID)
}

func (s *Store) listTasks(ctx context.Context, query string, telegramID int64) ([]domain.Task, error) {
	rows, err := s.q.Query(ctx, query, telegramID)
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	defer rows.Close()
	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrap("scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list tasks", err)
	}
	return out, nil
}

func scanTask(row pgx.Row) (domain.Task, error) {
	var (
		t      domain.Task
		status string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Client, &t.Due, &t.Description, &status, &t.Result,
		&t.AssignerID, &t.AssigneeID, &t.UpdatedAt)
	t.Status = domain.TaskStatus(status)
	return t, err
}

func (s *Store) FindProfile(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	var (
		p    domain.Profile
		role string
	)
	err := s.q.QueryRow(ctx, `
		SELECT telegram_id, coalesce(full_name, ''), coalesce(role, '') FROM profiles WHERE telegram_id = $1`,
		telegramID).Scan(&p.TelegramID, &p.FullName, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("find profile", err)
	}
	p.Role = domain.Role(role)
	return &p, nil
}

// Upsert заводит или обновляет профиль; используется командой `profile set`.
func (s *Store) Upsert(ctx context.Context, p domain.Profile) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO profiles (telegram_id, full_name, role) VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET full_name = EXCLUDED.full_name, role = EXCLUDED.role`,
		p.TelegramID, p.FullName, string(p.Role))
	if err != nil {
		return wrap("upsert profile", err)
	}
	return nil
}

func (s *Store) FindProfilesByRoles(ctx context.Context, roles []domain.Role) ([]domain.Profile, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	return s.profiles(ctx, `
		SELECT telegram_id, coalesce(full_name, ''), coalesce(role, '')
		FROM profiles WHERE role = ANY($1) ORDER BY telegram_id`, names)
}

func (s *Store) FindProfilesByName(ctx context.Context, name string) ([]domain.Profile, error) {
	return s.profiles(ctx, `
		SELECT telegram_id, coalesce(full_name, ''), coalesce(role, '')
		FROM profiles WHERE lower(btrim(full_name)) = lower(btrim($1)) ORDER BY telegram_id`, name)
}

func (s *Store) profiles(ctx context.Context, query string, arg any) ([]domain.Profile, error) {
	rows, err := s.q.Query(ctx, query, arg)
	if err != nil {
		return nil, wrap("find profiles", err)
	}
	defer rows.Close()
	var out []domain.Profile
	for rows.Next() {
		var (
			p    domain.Profile
			role string
		)
		if err := rows.Scan(&p.TelegramID, &p.FullName, &role); err != nil {
			return nil, wrap("scan profile", err)
		}
		p.Role = domain.Role(role)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("find profiles", err)
	}
	return out, nil
}
