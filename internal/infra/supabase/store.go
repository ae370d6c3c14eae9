package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

// Store реализует все репозитории поверх одного клиента.
type Store struct {
	c *Client
}

func NewStore(c *Client) *Store {
	return &Store{c: c}
}

func (s *Store) FindUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	var rows []userRow
	q := url.Values{"telegram_id": {eq(telegramID)}, "limit": {"1"}}
	if err := s.c.selectRows(ctx, "users", q, &rows); err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[0]
	return &domain.User{TelegramID: r.TelegramID, Username: r.Username, FirstName: r.FirstName, LastName: r.LastName}, nil
}

func (s *Store) CreateUser(ctx context.Context, u domain.User) error {
	row := userRow{TelegramID: u.TelegramID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
	if err := s.c.insert(ctx, "users", row, nil); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	var rows []userRow
	q := url.Values{"select": {"telegram_id"}, "order": {"telegram_id.asc"}}
	if err := s.c.selectRows(ctx, "users", q, &rows); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TelegramID)
	}
	return ids, nil
}

func (s *Store) CreateLead(ctx context.Context, l domain.Lead) error {
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	row := leadRow{
		TelegramID: l.OwnerID,
		Name:       l.Name,
		Phone:      l.Phone,
		Email:      l.Email,
		CreatedAt:  created.UTC().Format(time.RFC3339),
	}
	if err := s.c.insert(ctx, "leads", row, nil); err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (s *Store) ListLeadsByOwner(ctx context.Context, ownerID int64) ([]domain.Lead, error) {
	var rows []leadRow
	q := url.Values{"telegram_id": {eq(ownerID)}, "order": {"created_at.asc"}}
	if err := s.c.selectRows(ctx, "leads", q, &rows); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	out := make([]domain.Lead, 0, len(rows))
	for _, r := range rows {
		l := domain.Lead{OwnerID: r.TelegramID, Name: r.Name, Phone: r.Phone, Email: r.Email}
		if t := parseTime(&r.CreatedAt, time.UTC); t != nil {
			l.CreatedAt = *t
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	row := newTaskRow{
		Title:       t.Title,
		Client:      t.Client,
		DueDate:     formatWall(t.Due, s.c.Location),
		Description: t.Description,
		Status:      string(t.Status),
		AssignerID:  t.AssignerID,
		AssigneeID:  t.AssigneeID,
	}
	var created []taskRow
	if err := s.c.insert(ctx, "tasks", row, &created); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	if len(created) == 0 || created[0].ID == "" {
		return "", fmt.Errorf("create task: %w: no id returned", domain.ErrUnavailable)
	}
	return string(created[0].ID), nil
}

func (s *Store) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) error {
	patch := taskPatch{
		Status:    string(upd.Status),
		Result:    upd.Result,
		UpdatedAt: upd.UpdatedAt.UTC().Format(time.RFC3339),
	}
	var updated []taskRow
	if err := s.c.update(ctx, "tasks", url.Values{"id": {eq(id)}}, patch, &updated); err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("update task %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateAttachment(ctx context.Context, a domain.TaskAttachment) error {
	if err := s.c.insert(ctx, "task_files", taskFileRow{TaskID: a.TaskID, FileURL: a.FileRef}, nil); err != nil {
		return fmt.Errorf("create task file: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var rows []taskRow
	q := url.Values{"id": {eq(id)}, "limit": {"1"}}
	if err := s.c.selectRows(ctx, "tasks", q, &rows); err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rows[0].toDomain(s.c.Location)
	return &t, nil
}

func (s *Store) ListTasksByAssigner(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return s.listTasks(ctx, "assigner_telegram_id", telegramID)
}

func (s *Store) ListTasksByAssignee(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	return s.listTasks(ctx, "assignee_telegram_id", telegramID)
}

func (s *Store) listTasks(ctx context.Context, column string, telegramID int64) ([]domain.Task, error) {
	var rows []taskRow
	if err := s.c.selectRows(ctx, "tasks", url.Values{column: {eq(telegramID)}}, &rows); err != nil {
		return nil, fmt.Errorf("list tasks by %s: %w", column, err)
	}
	out := make([]domain.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain(s.c.Location))
	}
	return out, nil
}

func (s *Store) FindProfile(ctx context.Context, telegramID int64) (*domain.Profile, error) {
	var rows []profileRow
	q := url.Values{"telegram_id": {eq(telegramID)}, "limit": {"1"}}
	if err := s.c.selectRows(ctx, "profiles", q, &rows); err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := rows[0].toDomain()
	return &p, nil
}

// Upsert заводит или обновляет профиль (on_conflict по telegram_id).
func (s *Store) Upsert(ctx context.Context, p domain.Profile) error {
	row := profileRow{TelegramID: p.TelegramID, FullName: p.FullName, Role: string(p.Role)}
	endpoint := s.c.endpoint("profiles", url.Values{"on_conflict": {"telegram_id"}})
	if err := s.c.do(ctx, http.MethodPost, endpoint, row, "resolution=merge-duplicates,return=minimal", nil); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
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
	var rows []profileRow
	q := url.Values{"role": {in(names)}, "order": {"telegram_id.asc"}}
	if err := s.c.selectRows(ctx, "profiles", q, &rows); err != nil {
		return nil, fmt.Errorf("find profiles by role: %w", err)
	}
	return toProfiles(rows, nil), nil
}

// FindProfilesByName: ilike отбирает кандидатов на сервере, окончательное
// сравнение делает domain.SameName.
func (s *Store) FindProfilesByName(ctx context.Context, name string) ([]domain.Profile, error) {
	var rows []profileRow
	q := url.Values{"full_name": {ilike(name)}}
	if err := s.c.selectRows(ctx, "profiles", q, &rows); err != nil {
		return nil, fmt.Errorf("find profiles by name: %w", err)
	}
	return toProfiles(rows, func(p domain.Profile) bool { return domain.SameName(p.FullName, name) }), nil
}

func toProfiles(rows []profileRow, keep func(domain.Profile) bool) []domain.Profile {
	out := make([]domain.Profile, 0, len(rows))
	for _, r := range rows {
		p := r.toDomain()
		if keep != nil && !keep(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Ping проверяет доступность REST-интерфейса для /healthz.
func (s *Store) Ping(ctx context.Context) error {
	var rows []profileRow
	q := url.Values{"select": {"telegram_id"}, "limit": {strconv.Itoa(1)}}
	return s.c.selectRows(ctx, "profiles", q, &rows)
}
