package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

// Логические состояния диалога, независимые от Telegram.

type Step string

const (
	StepNone             Step = ""
	StepLeadName         Step = "lead_name"
	StepLeadPhone        Step = "lead_phone"
	StepLeadEmail        Step = "lead_email"
	StepTaskTitle        Step = "task_title"
	StepTaskClient       Step = "task_client"
	StepTaskDue          Step = "task_due"
	StepTaskDescription  Step = "task_description"
	StepTaskAssignee     Step = "task_assignee"
	StepAwaitingResult   Step = "awaiting_result"
	StepBroadcastText    Step = "broadcast_text"
	StepBroadcastConfirm Step = "broadcast_confirm"
)

// DueLayout — формат ввода дедлайна; месяц, день и час можно писать без ведущего нуля.
// DueFormat — как дедлайн показывается в списках.
const (
	DueLayout = "2006-1-2 15:04"
	DueFormat = "2006-01-02 15:04"
)

type LeadDraft struct {
	Name  string
	Phone string
	Email string
}

type TaskDraft struct {
	Title       string
	Client      *string
	Due         time.Time
	Description *string
}

type BroadcastDraft struct {
	Text        string
	PhotoFileID string
	Caption     string
}

// Scratch — черновик текущего диалога чата. Нулевое значение означает «диалога нет».
type Scratch struct {
	Step      Step
	Lead      LeadDraft
	Task      TaskDraft
	TaskID    string
	Broadcast BroadcastDraft
}

func (s Scratch) Active() bool { return s.Step != StepNone }

type EventKind int

const (
	EventText EventKind = iota
	EventFile
	EventPhoto
	EventUnsupported
	EventStartLead
	EventStartTask
	EventSelectTask
	EventAssign
	EventAssigneeResolved
	EventAssigneeUnresolved
	EventStartBroadcast
	EventBroadcastSend
	EventBroadcastDiscard
	EventCancel
)

// Event — входное событие автомата. Actor — кто действует, At — «сейчас».
type Event struct {
	Kind       EventKind
	Actor      int64
	Text       string
	FileID     string
	Caption    string
	TaskID     string
	TaskTitle  string
	AssigneeID int64
	Self       bool
	At         time.Time
}

// Effect — то, что движок должен выполнить после перехода.
type Effect interface{ isEffect() }

// PromptAssignee — показать список доступных исполнителей.
type PromptAssignee struct{}

// LookupAssignee — найти исполнителя по имени и вернуть результат событием
// EventAssigneeResolved / EventAssigneeUnresolved.
type LookupAssignee struct{ Name string }

type SaveLead struct{ Lead domain.Lead }

type SaveTask struct{ Task domain.Task }

type SaveResult struct {
	TaskID  string
	Update  domain.TaskUpdate
	FileRef string
}

type SendBroadcast struct{ Draft BroadcastDraft }

func (Reply) isEffect()          {}
func (PromptAssignee) isEffect() {}
func (LookupAssignee) isEffect() {}
func (SaveLead) isEffect()       {}
func (SaveTask) isEffect()       {}
func (SaveResult) isEffect()     {}
func (SendBroadcast) isEffect()  {}

// IsCommit: эффекты, которые пишут во внешнее хранилище в конце сценария.
func IsCommit(e Effect) bool {
	switch e.(type) {
	case SaveLead, SaveTask, SaveResult, SendBroadcast:
		return true
	}
	return false
}

type Dialog struct {
	loc *time.Location
}

// NewDialog: loc — часовой пояс, в котором вводится дедлайн.
func NewDialog(loc *time.Location) *Dialog {
	if loc == nil {
		loc = time.UTC
	}
	return &Dialog{loc: loc}
}

// Location — пояс, в котором вводятся и показываются дедлайны.
func (d *Dialog) Location() *time.Location { return d.loc }

func say(text string, kb Keyboard) []Effect {
	return []Effect{Reply{Text: text, Keyboard: kb}}
}

// Transition — чистая функция перехода: по черновику и событию возвращает
// новый черновик и список эффектов. Ввода-вывода здесь нет.
func (d *Dialog) Transition(s Scratch, ev Event) (Scratch, []Effect) {
	switch ev.Kind {
	case EventCancel:
		if !s.Active() {
			return s, nil
		}
		return Scratch{}, say(textCancelled, mainMenu())
	case EventStartLead:
		return Scratch{Step: StepLeadName}, say(textLeadName, mainMenu())
	case EventStartTask:
		return Scratch{Step: StepTaskTitle}, say(textTaskTitle, mainMenu())
	case EventSelectTask:
		return Scratch{Step: StepAwaitingResult, TaskID: ev.TaskID},
			say(fmt.Sprintf(textAwaitResult, ev.TaskTitle), cancelKeyboard())
	case EventStartBroadcast:
		return Scratch{Step: StepBroadcastText}, say(textBroadcastStart, nil)
	}

	switch s.Step {
	case StepLeadName, StepLeadPhone, StepLeadEmail:
		return d.lead(s, ev)
	case StepTaskTitle, StepTaskClient, StepTaskDue, StepTaskDescription:
		return d.task(s, ev)
	case StepTaskAssignee:
		return d.assignee(s, ev)
	case StepAwaitingResult:
		return d.result(s, ev)
	case StepBroadcastText, StepBroadcastConfirm:
		return d.broadcast(s, ev)
	}
	return s, nil
}

func isContent(k EventKind) bool {
	switch k {
	case EventText, EventFile, EventPhoto, EventUnsupported:
		return true
	}
	return false
}

func (d *Dialog) lead(s Scratch, ev Event) (Scratch, []Effect) {
	if !isContent(ev.Kind) {
		return s, nil
	}
	if ev.Kind != EventText {
		return s, say(textTextOnly, nil)
	}
	text := strings.TrimSpace(ev.Text)
	switch s.Step {
	case StepLeadName:
		s.Lead.Name = text
		s.Step = StepLeadPhone
		return s, say(textLeadPhone, mainMenu())
	case StepLeadPhone:
		s.Lead.Phone = text
		s.Step = StepLeadEmail
		return s, say(textLeadEmail, mainMenu())
	default:
		lead := domain.Lead{
			OwnerID:   ev.Actor,
			Name:      s.Lead.Name,
			Phone:     s.Lead.Phone,
			Email:     text,
			CreatedAt: ev.At,
		}
		return Scratch{}, []Effect{SaveLead{Lead: lead}, Reply{Text: textLeadSaved, Keyboard: mainMenu()}}
	}
}

// optional: пустая строка или одиночное тире означают «нет значения».
func optional(text string) *string {
	if text == "" || text == "-" {
		return nil
	}
	return &text
}

func (d *Dialog) task(s Scratch, ev Event) (Scratch, []Effect) {
	if !isContent(ev.Kind) {
		return s, nil
	}
	if ev.Kind != EventText {
		return s, say(textTextOnly, nil)
	}
	text := strings.TrimSpace(ev.Text)
	switch s.Step {
	case StepTaskTitle:
		if text == "" {
			return s, say(textTaskTitleEmpty, nil)
		}
		s.Task.Title = text
		s.Step = StepTaskClient
		return s, say(textTaskClient, mainMenu())
	case StepTaskClient:
		s.Task.Client = optional(text)
		s.Step = StepTaskDue
		return s, say(textTaskDue, mainMenu())
	case StepTaskDue:
		due, err := time.ParseInLocation(DueLayout, text, d.loc)
		if err != nil {
			return s, say(textTaskDueInvalid, nil)
		}
		s.Task.Due = due
		s.Step = StepTaskDescription
		return s, say(textTaskDescription, mainMenu())
	default:
		s.Task.Description = optional(text)
		s.Step = StepTaskAssignee
		return s, []Effect{PromptAssignee{}}
	}
}

func (d *Dialog) assignee(s Scratch, ev Event) (Scratch, []Effect) {
	switch ev.Kind {
	case EventAssign:
		if ev.Self {
			return commitTask(s, ev.Actor, ev.Actor)
		}
		return commitTask(s, ev.Actor, ev.AssigneeID)
	case EventAssigneeResolved:
		return commitTask(s, ev.Actor, ev.AssigneeID)
	case EventAssigneeUnresolved, EventFile, EventPhoto, EventUnsupported:
		return s, say(textAssigneeUnknown, mainMenu())
	case EventText:
		text := strings.TrimSpace(ev.Text)
		if text == "0" {
			return commitTask(s, ev.Actor, ev.Actor)
		}
		if isDigits(text) {
			id, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return s, say(textAssigneeUnknown, mainMenu())
			}
			// TODO: проверять, что такой профиль существует (сейчас можно назначить несуществующий id)
			return commitTask(s, ev.Actor, id)
		}
		if text == "" {
			return s, say(textAssigneeUnknown, mainMenu())
		}
		return s, []Effect{LookupAssignee{Name: text}}
	}
	return s, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func commitTask(s Scratch, assigner, assignee int64) (Scratch, []Effect) {
	due := s.Task.Due
	task := domain.Task{
		Title:       s.Task.Title,
		Client:      s.Task.Client,
		Due:         &due,
		Description: s.Task.Description,
		Status:      domain.StatusInProgress,
		AssignerID:  assigner,
		AssigneeID:  assignee,
	}
	return Scratch{}, []Effect{SaveTask{Task: task}, Reply{Text: textTaskSaved, Keyboard: mainMenu()}}
}

// FileResult — как файл записывается в поле result задачи.
func FileResult(fileID string) string {
	return fmt.Sprintf("[Файл: %s]", fileID)
}

func (d *Dialog) result(s Scratch, ev Event) (Scratch, []Effect) {
	var payload, fileRef string
	switch ev.Kind {
	case EventText:
		payload = strings.TrimSpace(ev.Text)
		if payload == "" {
			return s, say(textResultKinds, cancelKeyboard())
		}
	case EventFile, EventPhoto:
		fileRef = ev.FileID
		payload = FileResult(ev.FileID)
	case EventUnsupported:
		return s, say(textResultKinds, cancelKeyboard())
	default:
		return s, nil
	}
	upd := domain.TaskUpdate{
		Status:    domain.StatusPendingReview,
		Result:    payload,
		UpdatedAt: ev.At,
	}
	return Scratch{}, []Effect{
		SaveResult{TaskID: s.TaskID, Update: upd, FileRef: fileRef},
		Reply{Text: textResultSaved, Keyboard: afterResultMenu()},
	}
}

func (d *Dialog) broadcast(s Scratch, ev Event) (Scratch, []Effect) {
	if s.Step == StepBroadcastText {
		switch ev.Kind {
		case EventText:
			if strings.TrimSpace(ev.Text) == "" {
				return s, say(textBroadcastEmpty, nil)
			}
			s.Broadcast = BroadcastDraft{Text: ev.Text}
			s.Step = StepBroadcastConfirm
			return s, say(textBroadcastAsk, broadcastConfirmKeyboard())
		case EventPhoto:
			if strings.TrimSpace(ev.FileID) == "" {
				return s, say(textBroadcastStart, nil)
			}
			s.Broadcast = BroadcastDraft{PhotoFileID: ev.FileID, Caption: ev.Caption}
			s.Step = StepBroadcastConfirm
			return s, say(textBroadcastPhoto, broadcastConfirmKeyboard())
		case EventFile, EventUnsupported:
			return s, say(textBroadcastStart, nil)
		case EventBroadcastDiscard:
			return Scratch{}, say(textBroadcastDrop, nil)
		}
		return s, nil
	}

	switch ev.Kind {
	case EventBroadcastSend:
		return Scratch{}, []Effect{SendBroadcast{Draft: s.Broadcast}}
	case EventBroadcastDiscard:
		return Scratch{}, say(textBroadcastDrop, nil)
	}
	if isContent(ev.Kind) {
		return s, say(textBroadcastPick, broadcastConfirmKeyboard())
	}
	return s, nil
}
