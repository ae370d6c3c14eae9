package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

type UpdateKind int

const (
	UpdateCommand UpdateKind = iota
	UpdateText
	UpdateFile
	UpdatePhoto
	UpdateOther
	UpdateButton
)

// Update — входящее событие чата, уже отвязанное от Telegram.
type Update struct {
	Kind       UpdateKind
	ChatID     int64
	UserID     int64
	MessageID  int
	CallbackID string
	Command    string // без слэша
	Text       string // текст сообщения, аргументы команды или callback data
	FileID     string
	Caption    string
	From       domain.User
}

type Repositories struct {
	Users    domain.UserRepository
	Leads    domain.LeadRepository
	Tasks    domain.TaskRepository
	Profiles domain.ProfileRepository
}

// ChartRenderer рисует столбчатую диаграмму в PNG.
type ChartRenderer interface {
	RenderBars(labels []string, values []int) ([]byte, error)
}

var errBroadcastOff = errors.New("broadcast is not configured")

// Engine принимает события чата, ведёт диалоги и выполняет их эффекты.
type Engine struct {
	repos     Repositories
	dialog    *Dialog
	scratch   *ScratchStore
	resolver  *AssigneeResolver
	view      *TaskView
	out       Messenger
	funnel    *FunnelUsecase
	chart     ChartRenderer
	broadcast *BroadcastUsecase
	admins    map[int64]struct{}
	now       func() time.Time
	log       *logger.Logger
}

type EngineOption func(*Engine)

func WithFunnel(f *FunnelUsecase, chart ChartRenderer) EngineOption {
	return func(e *Engine) {
		e.funnel = f
		e.chart = chart
	}
}

func WithBroadcast(b *BroadcastUsecase) EngineOption {
	return func(e *Engine) { e.broadcast = b }
}

func WithAdmins(ids map[int64]struct{}) EngineOption {
	return func(e *Engine) { e.admins = ids }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(repos Repositories, dialog *Dialog, scratch *ScratchStore, out Messenger, log *logger.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		repos:    repos,
		dialog:   dialog,
		scratch:  scratch,
		resolver: NewAssigneeResolver(repos.Profiles, log),
		view:     NewTaskView(repos.Tasks),
		out:      out,
		admins:   map[int64]struct{}{},
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle обрабатывает одно событие до конца. Ошибки не пробрасываются:
// пользователь получает сообщение, состояние остаётся согласованным.
func (e *Engine) Handle(ctx context.Context, u Update) {
	switch u.Kind {
	case UpdateCommand:
		e.onCommand(ctx, u)
	case UpdateButton:
		e.onButton(ctx, u)
	case UpdateText:
		if strings.EqualFold(strings.TrimSpace(u.Text), "cancel") {
			e.apply(ctx, u, e.event(u, EventCancel))
			return
		}
		e.onContent(ctx, u, EventText)
	case UpdateFile:
		e.onContent(ctx, u, EventFile)
	case UpdatePhoto:
		e.onContent(ctx, u, EventPhoto)
	default:
		e.onContent(ctx, u, EventUnsupported)
	}
}

func (e *Engine) event(u Update, kind EventKind) Event {
	return Event{
		Kind:    kind,
		Actor:   u.UserID,
		Text:    u.Text,
		FileID:  u.FileID,
		Caption: u.Caption,
		At:      e.now(),
	}
}

func (e *Engine) onContent(ctx context.Context, u Update, kind EventKind) {
	if !e.scratch.Get(u.ChatID).Active() {
		if kind == EventText {
			e.send(ctx, u.ChatID, Reply{Text: textUnknown, Keyboard: mainMenu()})
		}
		return
	}
	e.apply(ctx, u, e.event(u, kind))
}

func (e *Engine) onCommand(ctx context.Context, u Update) {
	switch u.Command {
	case "start":
		e.scratch.Clear(u.ChatID)
		e.register(ctx, u)
		e.send(ctx, u.ChatID, Reply{Text: textWelcome, Keyboard: mainMenu()})
	case "help":
		e.send(ctx, u.ChatID, Reply{Text: textHelp})
	case "newlead":
		e.apply(ctx, u, e.event(u, EventStartLead))
	case "newtask":
		e.apply(ctx, u, e.event(u, EventStartTask))
	case "myleads":
		e.scratch.Clear(u.ChatID)
		e.showLeads(ctx, u)
	case "mytasks":
		e.scratch.Clear(u.ChatID)
		e.showTasks(ctx, u)
	case "cancel":
		e.apply(ctx, u, e.event(u, EventCancel))
	case "admin":
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.send(ctx, u.ChatID, Reply{Text: textAdminMenu, Keyboard: adminMenu()})
	case "broadcast":
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.apply(ctx, u, e.event(u, EventStartBroadcast))
	case "stats":
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.sendStats(ctx, u)
	case "funnel":
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.sendFunnel(ctx, u)
	default:
		e.send(ctx, u.ChatID, Reply{Text: textUnknown})
	}
}

func (e *Engine) onButton(ctx context.Context, u Update) {
	if u.CallbackID != "" {
		if err := e.out.AnswerCallback(ctx, u.CallbackID); err != nil {
			e.log.Debug().Err(err).Int64("chat_id", u.ChatID).Msg("answer callback failed")
		}
	}

	data := u.Text
	switch {
	case data == ActionMenu:
		e.scratch.Clear(u.ChatID)
		e.removeButtons(ctx, u)
		e.send(ctx, u.ChatID, Reply{Text: textMainMenu, Keyboard: mainMenu()})
	case data == ActionMyTasks:
		e.scratch.Clear(u.ChatID)
		e.showTasks(ctx, u)
	case data == ActionNewTask:
		e.apply(ctx, u, e.event(u, EventStartTask))
	case data == ActionCancel:
		e.scratch.Clear(u.ChatID)
		e.removeButtons(ctx, u)
		e.showTasks(ctx, u)
	case strings.HasPrefix(data, ActionTaskPrefix):
		e.selectTask(ctx, u, strings.TrimPrefix(data, ActionTaskPrefix))
	case strings.HasPrefix(data, ActionAssignPrefix):
		if e.scratch.Get(u.ChatID).Step != StepTaskAssignee {
			return // кнопка от завершённого диалога
		}
		e.removeButtons(ctx, u)
		ev := e.event(u, EventAssign)
		ev.AssigneeID, ev.Self = parseAssignAction(data)
		e.apply(ctx, u, ev)
	case data == ActionBcastSend || data == ActionBcastDiscard:
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.removeButtons(ctx, u)
		kind := EventBroadcastSend
		if data == ActionBcastDiscard {
			kind = EventBroadcastDiscard
		}
		e.apply(ctx, u, e.event(u, kind))
	case data == ActionAdminBcast:
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.apply(ctx, u, e.event(u, EventStartBroadcast))
	case data == ActionAdminStats:
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.sendStats(ctx, u)
	case data == ActionAdminFunnel:
		if e.denyNonAdmin(ctx, u) {
			return
		}
		e.sendFunnel(ctx, u)
	default:
		e.log.Debug().Str("data", data).Int64("chat_id", u.ChatID).Msg("unknown callback")
	}
}

// apply прогоняет событие через автомат и выполняет эффекты. Если запись в
// хранилище на финальном шаге не удалась, черновик остаётся прежним; если
// обновляемой задачи больше нет, черновик сбрасывается.
func (e *Engine) apply(ctx context.Context, u Update, ev Event) {
	cur := e.scratch.Get(u.ChatID)
	for {
		next, effects := e.dialog.Transition(cur, ev)
		follow, err := e.run(ctx, u, effects)
		if errors.Is(err, domain.ErrNotFound) {
			// запись исчезла после выбора: повтор не поможет
			e.log.Warn().Err(err).Int64("chat_id", u.ChatID).Int64("user_id", u.UserID).
				Str("step", string(cur.Step)).Msg("dialog target gone, draft dropped")
			e.scratch.Clear(u.ChatID)
			e.send(ctx, u.ChatID, Reply{Text: textTaskNotFound, Keyboard: mainMenu()})
			return
		}
		if err != nil {
			e.log.Error().Err(err).Int64("chat_id", u.ChatID).Int64("user_id", u.UserID).
				Str("step", string(cur.Step)).Msg("dialog commit failed, draft kept")
			e.send(ctx, u.ChatID, Reply{Text: textSaveFailed})
			return
		}
		e.scratch.Put(u.ChatID, next)
		if next.Step != cur.Step {
			e.track(ctx, u.ChatID, next.Step)
		}
		if follow == nil {
			return
		}
		cur, ev = next, *follow
	}
}

// run выполняет эффекты по порядку. Возвращает событие-продолжение (для
// поиска исполнителя по имени) или ошибку финальной записи.
func (e *Engine) run(ctx context.Context, u Update, effects []Effect) (*Event, error) {
	var follow *Event
	for _, eff := range effects {
		switch x := eff.(type) {
		case Reply:
			e.send(ctx, u.ChatID, x)
		case PromptAssignee:
			opts := e.resolver.Propose(ctx, u.UserID)
			e.send(ctx, u.ChatID, Reply{Text: textChooseAssignee, Keyboard: AssigneeKeyboard(opts)})
		case LookupAssignee:
			ev := e.event(u, EventAssigneeUnresolved)
			if id, ok := e.resolver.ResolveName(ctx, x.Name); ok {
				ev.Kind = EventAssigneeResolved
				ev.AssigneeID = id
			}
			follow = &ev
		case SaveLead:
			if err := e.repos.Leads.CreateLead(ctx, x.Lead); err != nil {
				return nil, fmt.Errorf("save lead: %w", err)
			}
			e.log.Info().Int64("user_id", x.Lead.OwnerID).Str("name", x.Lead.Name).Msg("lead saved")
			e.track(ctx, u.ChatID, FunnelLeadSaved)
		case SaveTask:
			id, err := e.repos.Tasks.CreateTask(ctx, x.Task)
			if err != nil {
				return nil, fmt.Errorf("save task: %w", err)
			}
			e.log.Info().Str("task_id", id).Int64("assigner", x.Task.AssignerID).
				Int64("assignee", x.Task.AssigneeID).Msg("task saved")
			e.track(ctx, u.ChatID, FunnelTaskSaved)
		case SaveResult:
			if err := e.repos.Tasks.UpdateTask(ctx, x.TaskID, x.Update); err != nil {
				return nil, fmt.Errorf("save task result: %w", err)
			}
			if x.FileRef != "" {
				// задача уже обновлена; потеря вложения не отменяет результат
				a := domain.TaskAttachment{TaskID: x.TaskID, FileRef: x.FileRef}
				if err := e.repos.Tasks.CreateAttachment(ctx, a); err != nil {
					e.log.Warn().Err(err).Str("task_id", x.TaskID).Msg("task attachment not saved")
				}
			}
			e.log.Info().Str("task_id", x.TaskID).Int64("user_id", u.UserID).Msg("task result attached")
			e.track(ctx, u.ChatID, FunnelResultSaved)
		case SendBroadcast:
			if e.broadcast == nil {
				return nil, errBroadcastOff
			}
			summary, err := e.broadcast.Send(ctx, x.Draft)
			if err != nil {
				return nil, err
			}
			e.log.Info().Int64("chat_id", u.ChatID).Msg("broadcast sent")
			e.send(ctx, u.ChatID, Reply{Text: summary})
		}
	}
	return follow, nil
}

func (e *Engine) register(ctx context.Context, u Update) {
	existing, err := e.repos.Users.FindUser(ctx, u.UserID)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", u.UserID).Msg("user lookup failed, registration skipped")
		return
	}
	if existing != nil {
		return
	}
	user := u.From
	user.TelegramID = u.UserID
	if err := e.repos.Users.CreateUser(ctx, user); err != nil {
		e.log.Error().Err(err).Int64("user_id", u.UserID).Msg("user registration failed")
		return
	}
	e.log.Info().Int64("user_id", u.UserID).Str("username", user.Username).Msg("user registered")
}

func (e *Engine) showTasks(ctx context.Context, u Update) {
	tasks, err := e.view.ListTasksFor(ctx, u.UserID)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", u.UserID).Msg("task list failed")
		e.send(ctx, u.ChatID, Reply{Text: textTasksFailed, Keyboard: mainMenu()})
		return
	}
	e.send(ctx, u.ChatID, TaskListReply(tasks, e.dialog.Location()))
}

func (e *Engine) showLeads(ctx context.Context, u Update) {
	leads, err := e.repos.Leads.ListLeadsByOwner(ctx, u.UserID)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", u.UserID).Msg("lead list failed")
		e.send(ctx, u.ChatID, Reply{Text: textLeadsFailed, Keyboard: mainMenu()})
		return
	}
	e.send(ctx, u.ChatID, Reply{Text: LeadListText(leads), Keyboard: mainMenu()})
}

func (e *Engine) selectTask(ctx context.Context, u Update, taskID string) {
	e.scratch.Clear(u.ChatID)
	task, err := e.repos.Tasks.GetTask(ctx, taskID)
	if err != nil {
		e.log.Error().Err(err).Str("task_id", taskID).Msg("task lookup failed")
		e.send(ctx, u.ChatID, Reply{Text: textTaskLoadFailed, Keyboard: mainMenu()})
		return
	}
	if task == nil || !task.Involves(u.UserID) {
		e.send(ctx, u.ChatID, Reply{Text: textTaskNotFound})
		return
	}
	ev := e.event(u, EventSelectTask)
	ev.TaskID = task.ID
	ev.TaskTitle = task.Title
	e.apply(ctx, u, ev)
}

func (e *Engine) isAdmin(userID int64) bool {
	_, ok := e.admins[userID]
	return ok
}

func (e *Engine) denyNonAdmin(ctx context.Context, u Update) bool {
	if e.isAdmin(u.UserID) {
		return false
	}
	e.log.Warn().Int64("user_id", u.UserID).Msg("admin denied")
	e.send(ctx, u.ChatID, Reply{Text: textAccessDenied})
	return true
}

func (e *Engine) sendStats(ctx context.Context, u Update) {
	if e.broadcast == nil {
		e.send(ctx, u.ChatID, Reply{Text: textStatsOff})
		return
	}
	e.send(ctx, u.ChatID, Reply{Text: e.broadcast.StatsSummary(ctx, 5)})
}

func (e *Engine) sendFunnel(ctx context.Context, u Update) {
	if e.funnel == nil {
		e.send(ctx, u.ChatID, Reply{Text: textFunnelOff})
		return
	}
	if e.chart != nil {
		labels, values, err := e.funnel.GraphData(ctx)
		var png []byte
		if err == nil {
			png, err = e.chart.RenderBars(labels, values)
		}
		if err == nil {
			err = e.out.SendImage(ctx, u.ChatID, "funnel.png", png)
		}
		if err == nil {
			return
		}
		e.log.Error().Err(err).Msg("funnel chart failed")
	}
	e.send(ctx, u.ChatID, Reply{Text: e.funnel.Chart(ctx)})
}

func (e *Engine) track(ctx context.Context, chatID int64, step Step) {
	if e.funnel == nil {
		return
	}
	if err := e.funnel.Reach(ctx, chatID, step); err != nil {
		e.log.Debug().Err(err).Int64("chat_id", chatID).Msg("funnel hit not recorded")
	}
}

func (e *Engine) send(ctx context.Context, chatID int64, r Reply) {
	if err := e.out.Send(ctx, chatID, r); err != nil {
		e.log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func (e *Engine) removeButtons(ctx context.Context, u Update) {
	if u.MessageID == 0 {
		return
	}
	if err := e.out.RemoveButtons(ctx, u.ChatID, u.MessageID); err != nil {
		e.log.Debug().Err(err).Int64("chat_id", u.ChatID).Msg("remove buttons failed")
	}
}
