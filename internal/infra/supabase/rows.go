package supabase

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

// flexibleID принимает id и числом, и строкой: таблица tasks заводилась
// с разными типами ключа.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type userRow struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

type leadRow struct {
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	CreatedAt  string `json:"created_at"`
}

type taskRow struct {
	ID          flexibleID `json:"id,omitempty"`
	Title       string     `json:"title"`
	Client      *string    `json:"client"`
	DueDate     *string    `json:"due_date"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Result      *string    `json:"result"`
	AssignerID  int64      `json:"assigner_telegram_id"`
	AssigneeID  int64      `json:"assignee_telegram_id"`
	UpdatedAt   *string    `json:"updated_at,omitempty"`
}

// newTaskRow — тело вставки: без id и updated_at, их заполняет база.
type newTaskRow struct {
	Title       string  `json:"title"`
	Client      *string `json:"client"`
	DueDate     *string `json:"due_date"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	AssignerID  int64   `json:"assigner_telegram_id"`
	AssigneeID  int64   `json:"assignee_telegram_id"`
}

type taskPatch struct {
	Status    string `json:"status"`
	Result    string `json:"result"`
	UpdatedAt string `json:"updated_at"`
}

type taskFileRow struct {
	TaskID  string `json:"task_id"`
	FileURL string `json:"file_url"`
}

type profileRow struct {
	TelegramID int64  `json:"telegram_id"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{TelegramID: r.TelegramID, FullName: r.FullName, Role: domain.Role(r.Role)}
}

// Дата задачи хранится без смещения, как её ввёл пользователь.
const wallLayout = "2006-01-02T15:04:05"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	wallLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime разбирает дату из базы; нераспознанная строка даёт nil.
func parseTime(s *string, loc *time.Location) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return &t
		}
	}
	return nil
}

func formatWall(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	s := t.In(loc).Format(wallLayout)
	return &s
}

func (r taskRow) toDomain(loc *time.Location) domain.Task {
	return domain.Task{
		ID:          string(r.ID),
		Title:       r.Title,
		Client:      r.Client,
		Due:         parseTime(r.DueDate, loc),
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		Result:      r.Result,
		AssignerID:  r.AssignerID,
		AssigneeID:  r.AssigneeID,
		UpdatedAt:   parseTime(r.UpdatedAt, loc),
	}
}
