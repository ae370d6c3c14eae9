package usecase

import (
	"context"
	"fmt"
	"strings"
)

// Отметки воронки о завершённых сценариях (в черновике не встречаются).
const (
	FunnelLeadSaved   Step = "lead_saved"
	FunnelTaskSaved   Step = "task_saved"
	FunnelResultSaved Step = "result_saved"
)

type FunnelRepository interface {
	Hit(ctx context.Context, step Step, chatID int64) error
	Counts(ctx context.Context) (map[Step]int, error)
}

// FunnelUsecase считает, сколько чатов дошло до каждого шага сценариев.
type FunnelUsecase struct {
	repo  FunnelRepository
	order []Step
}

func NewFunnelUsecase(repo FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{
		repo: repo,
		order: []Step{
			StepLeadName,
			StepLeadPhone,
			StepLeadEmail,
			FunnelLeadSaved,
			StepTaskTitle,
			StepTaskClient,
			StepTaskDue,
			StepTaskDescription,
			StepTaskAssignee,
			FunnelTaskSaved,
			StepAwaitingResult,
			FunnelResultSaved,
		},
	}
}

// Reach отмечает, что чат дошёл до шага. Повторные отметки не считаются.
func (u *FunnelUsecase) Reach(ctx context.Context, chatID int64, step Step) error {
	if step == StepNone {
		return nil
	}
	return u.repo.Hit(ctx, step, chatID)
}

// Chart — текстовая воронка; база — первый шаг каждого сценария.
func (u *FunnelUsecase) Chart(ctx context.Context) string {
	counts, err := u.repo.Counts(ctx)
	if err != nil || len(counts) == 0 {
		return "Данных по воронке пока нет"
	}
	var b strings.Builder
	b.WriteString("Воронка по шагам:\n")
	var base, prev int
	for _, s := range u.order {
		c := counts[s]
		relPrev := 100
		if isScenarioStart(s) {
			base = c
		} else {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% от начала | %3d%% от пред. %s\n", stepLabel(s), c, percent(c, base), relPrev, bar20(c, base))
		prev = c
	}
	return b.String()
}

func isScenarioStart(s Step) bool {
	return s == StepLeadName || s == StepTaskTitle || s == StepAwaitingResult
}

// GraphData возвращает метки и значения по порядку шагов для построения графика.
func (u *FunnelUsecase) GraphData(ctx context.Context) ([]string, []int, error) {
	counts, err := u.repo.Counts(ctx)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, stepLabel(s))
		values = append(values, counts[s])
	}
	return labels, values, nil
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stepLabel(s Step) string {
	switch s {
	case StepLeadName:
		return "Лид: имя"
	case StepLeadPhone:
		return "Лид: телефон"
	case StepLeadEmail:
		return "Лид: e-mail"
	case FunnelLeadSaved:
		return "Лид сохранён"
	case StepTaskTitle:
		return "Задача: название"
	case StepTaskClient:
		return "Задача: клиент"
	case StepTaskDue:
		return "Задача: дедлайн"
	case StepTaskDescription:
		return "Задача: описание"
	case StepTaskAssignee:
		return "Задача: исполнитель"
	case FunnelTaskSaved:
		return "Задача создана"
	case StepAwaitingResult:
		return "Результат: ожидание"
	case FunnelResultSaved:
		return "Результат прикреплён"
	default:
		return string(s)
	}
}
