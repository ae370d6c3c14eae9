package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

const maxButtonTitle = 30

// TaskView собирает задачи, где пользователь постановщик или исполнитель.
type TaskView struct {
	tasks domain.TaskRepository
}

func NewTaskView(tasks domain.TaskRepository) *TaskView {
	return &TaskView{tasks: tasks}
}

// ListTasksFor: оба запроса обязательны — при ошибке любого частичный список не отдаём.
func (v *TaskView) ListTasksFor(ctx context.Context, telegramID int64) ([]domain.Task, error) {
	assigned, err := v.tasks.ListTasksByAssigner(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by assigner: %w", err)
	}
	received, err := v.tasks.ListTasksByAssignee(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by assignee: %w", err)
	}
	return MergeTasks(assigned, received), nil
}

// MergeTasks склеивает списки без повторов по id (порядок первого появления)
// и стабильно сортирует по дедлайну; задачи без дедлайна идут первыми.
func MergeTasks(lists ...[]domain.Task) []domain.Task {
	seen := make(map[string]struct{})
	var out []domain.Task
	for _, list := range lists {
		for _, t := range list {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return dueKey(out[i]) < dueKey(out[j])
	})
	return out
}

func dueKey(t domain.Task) string {
	if t.Due == nil {
		return ""
	}
	return t.Due.UTC().Format("2006-01-02T15:04:05")
}

// buttonTitle обрезает длинные названия, чтобы кнопка оставалась читаемой.
func buttonTitle(title string) string {
	r := []rune(title)
	if len(r) <= maxButtonTitle {
		return title
	}
	return string(r[:maxButtonTitle-3]) + "…"
}

// TaskListKeyboard: «добавить» первой, задачи, затем «главное меню».
func TaskListKeyboard(tasks []domain.Task) Keyboard {
	buttons := make([]Button, 0, len(tasks)+2)
	buttons = append(buttons, Button{Label: textNewTaskButton, Action: ActionNewTask})
	for _, t := range tasks {
		buttons = append(buttons, Button{Label: buttonTitle(t.Title), Action: ActionTaskPrefix + t.ID})
	}
	buttons = append(buttons, Button{Label: textMenuButton, Action: ActionMenu})
	return Column(buttons...)
}

// TaskListReply — текст списка и клавиатура. Дедлайны показываются в loc,
// в том же поясе, в котором их вводили.
func TaskListReply(tasks []domain.Task, loc *time.Location) Reply {
	if loc == nil {
		loc = time.UTC
	}
	if len(tasks) == 0 {
		return Reply{Text: textNoTasks, Keyboard: TaskListKeyboard(nil)}
	}
	var b strings.Builder
	b.WriteString(textTasksHeader)
	for _, t := range tasks {
		due := "без срока"
		if t.Due != nil {
			due = "до " + t.Due.In(loc).Format(DueFormat)
		}
		fmt.Fprintf(&b, "\n%s (%s) — %s", t.Title, due, t.Status)
	}
	return Reply{Text: b.String(), Keyboard: TaskListKeyboard(tasks)}
}

// LeadListText — нумерованный список лидов.
func LeadListText(leads []domain.Lead) string {
	if len(leads) == 0 {
		return textNoLeads
	}
	var b strings.Builder
	b.WriteString(textLeadsHeader)
	for i, l := range leads {
		fmt.Fprintf(&b, "\n%d. %s | %s | %s", i+1, l.Name, l.Phone, l.Email)
	}
	return b.String()
}
