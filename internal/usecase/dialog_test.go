package usecase

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
)

const actor int64 = 100

var clock = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func text(s string) Event {
	return Event{Kind: EventText, Actor: actor, Text: s, At: clock}
}

func kind(k EventKind) Event {
	return Event{Kind: k, Actor: actor, At: clock}
}

// drive прогоняет события подряд, возвращая итоговый черновик и эффекты последнего шага.
func drive(t *testing.T, d *Dialog, s Scratch, events ...Event) (Scratch, []Effect) {
	t.Helper()
	var eff []Effect
	for _, ev := range events {
		s, eff = d.Transition(s, ev)
	}
	return s, eff
}

func firstReply(t *testing.T, effects []Effect) Reply {
	t.Helper()
	for _, e := range effects {
		if r, ok := e.(Reply); ok {
			return r
		}
	}
	t.Fatalf("no reply in %v", effects)
	return Reply{}
}

func TestLeadDialog(t *testing.T) {
	d := NewDialog(time.UTC)

	s, eff := drive(t, d, Scratch{}, kind(EventStartLead))
	assert.Equal(t, StepLeadName, s.Step)
	assert.Equal(t, textLeadName, firstReply(t, eff).Text)

	s, eff = drive(t, d, s, text(" Anna "), text("+7 900 000-00-00"), text("anna@example.com"))
	assert.False(t, s.Active())
	require.Len(t, eff, 2)
	save, ok := eff[0].(SaveLead)
	require.True(t, ok)
	assert.Equal(t, domain.Lead{
		OwnerID:   actor,
		Name:      "Anna",
		Phone:     "+7 900 000-00-00",
		Email:     "anna@example.com",
		CreatedAt: clock,
	}, save.Lead)
	assert.Equal(t, textLeadSaved, firstReply(t, eff).Text)
}

func TestLeadDialog_NonTextKeepsStep(t *testing.T) {
	d := NewDialog(time.UTC)
	s, _ := drive(t, d, Scratch{}, kind(EventStartLead), text("Anna"))

	next, eff := d.Transition(s, Event{Kind: EventFile, FileID: "f1", Actor: actor})
	assert.Equal(t, s, next)
	assert.Equal(t, textTextOnly, firstReply(t, eff).Text)
}

func TestTaskDialog_SelfAssign(t *testing.T) {
	d := NewDialog(time.UTC)

	s, eff := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"), text("-"), text("2025-01-10 09:00"), text(""))
	assert.Equal(t, StepTaskAssignee, s.Step)
	assert.Equal(t, []Effect{PromptAssignee{}}, eff)

	s, eff = d.Transition(s, Event{Kind: EventAssign, Actor: actor, Self: true})
	assert.False(t, s.Active())
	require.NotEmpty(t, eff)
	save, ok := eff[0].(SaveTask)
	require.True(t, ok)

	due := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, domain.Task{
		Title:      "Call",
		Due:        &due,
		Status:     domain.StatusInProgress,
		AssignerID: actor,
		AssigneeID: actor,
	}, save.Task)
}

func TestTaskDialog_BadDateKeepsDraft(t *testing.T) {
	d := NewDialog(time.UTC)
	s, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"), text("ACME"))

	next, eff := d.Transition(s, text("31/12/2025"))
	assert.Equal(t, StepTaskDue, next.Step)
	assert.Equal(t, "Call", next.Task.Title)
	require.NotNil(t, next.Task.Client)
	assert.Equal(t, "ACME", *next.Task.Client)
	assert.Equal(t, textTaskDueInvalid, firstReply(t, eff).Text)
}

func TestTaskDialog_EmptyTitleRejected(t *testing.T) {
	d := NewDialog(time.UTC)
	s, _ := drive(t, d, Scratch{}, kind(EventStartTask))

	next, eff := d.Transition(s, text("   "))
	assert.Equal(t, StepTaskTitle, next.Step)
	assert.Equal(t, textTaskTitleEmpty, firstReply(t, eff).Text)
}

func TestTaskDialog_DueInLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*60*60)
	d := NewDialog(loc)
	s, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"), text("-"), text("2025-01-10 09:00"))

	assert.Equal(t, time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC), s.Task.Due.UTC())
}

func TestTaskDialog_DueWithoutLeadingZeros(t *testing.T) {
	d := NewDialog(time.UTC)
	s, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"), text("-"), text("2025-6-1 9:05"))

	assert.Equal(t, StepTaskDescription, s.Step)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 5, 0, 0, time.UTC), s.Task.Due.UTC())
}

func TestAssigneeStep(t *testing.T) {
	d := NewDialog(time.UTC)
	at, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"), text("-"), text("2025-01-10 09:00"), text("-"))
	require.Equal(t, StepTaskAssignee, at.Step)

	t.Run("zero means self", func(t *testing.T) {
		_, eff := d.Transition(at, text("0"))
		assert.Equal(t, actor, eff[0].(SaveTask).Task.AssigneeID)
	})
	t.Run("own id without lookup", func(t *testing.T) {
		next, eff := d.Transition(at, text(strconv.FormatInt(actor, 10)))
		assert.False(t, next.Active())
		for _, e := range eff {
			_, lookup := e.(LookupAssignee)
			assert.False(t, lookup)
		}
		assert.Equal(t, actor, eff[0].(SaveTask).Task.AssigneeID)
	})
	t.Run("numeric id", func(t *testing.T) {
		_, eff := d.Transition(at, text("555"))
		assert.Equal(t, int64(555), eff[0].(SaveTask).Task.AssigneeID)
	})
	t.Run("button", func(t *testing.T) {
		_, eff := d.Transition(at, Event{Kind: EventAssign, Actor: actor, AssigneeID: 42})
		assert.Equal(t, int64(42), eff[0].(SaveTask).Task.AssigneeID)
	})
	t.Run("name asks for lookup", func(t *testing.T) {
		next, eff := d.Transition(at, text("Ivan Petrov"))
		assert.Equal(t, at, next)
		assert.Equal(t, []Effect{LookupAssignee{Name: "Ivan Petrov"}}, eff)
	})
	t.Run("resolved name", func(t *testing.T) {
		next, eff := d.Transition(at, Event{Kind: EventAssigneeResolved, Actor: actor, AssigneeID: 7})
		assert.False(t, next.Active())
		assert.Equal(t, int64(7), eff[0].(SaveTask).Task.AssigneeID)
	})
	t.Run("unresolved name", func(t *testing.T) {
		next, eff := d.Transition(at, kind(EventAssigneeUnresolved))
		assert.Equal(t, at, next)
		assert.Equal(t, textAssigneeUnknown, firstReply(t, eff).Text)
	})
	t.Run("file", func(t *testing.T) {
		next, eff := d.Transition(at, kind(EventFile))
		assert.Equal(t, at, next)
		assert.Equal(t, textAssigneeUnknown, firstReply(t, eff).Text)
	})
}

func TestResultDialog(t *testing.T) {
	d := NewDialog(time.UTC)
	sel := Event{Kind: EventSelectTask, Actor: actor, TaskID: "t1", TaskTitle: "Call"}
	s, eff := d.Transition(Scratch{}, sel)
	assert.Equal(t, StepAwaitingResult, s.Step)
	assert.Equal(t, "t1", s.TaskID)
	assert.Contains(t, firstReply(t, eff).Text, "Call")

	t.Run("text", func(t *testing.T) {
		next, eff := d.Transition(s, text("done"))
		assert.False(t, next.Active())
		assert.Equal(t, SaveResult{
			TaskID: "t1",
			Update: domain.TaskUpdate{Status: domain.StatusPendingReview, Result: "done", UpdatedAt: clock},
		}, eff[0])
	})
	t.Run("file", func(t *testing.T) {
		_, eff := d.Transition(s, Event{Kind: EventFile, Actor: actor, FileID: "BQAC", At: clock})
		res := eff[0].(SaveResult)
		assert.Equal(t, "[Файл: BQAC]", res.Update.Result)
		assert.Equal(t, "BQAC", res.FileRef)
	})
	t.Run("sticker", func(t *testing.T) {
		next, eff := d.Transition(s, kind(EventUnsupported))
		assert.Equal(t, s, next)
		assert.Equal(t, textResultKinds, firstReply(t, eff).Text)
	})
}

func TestCancel(t *testing.T) {
	d := NewDialog(time.UTC)

	t.Run("idle is a no-op", func(t *testing.T) {
		next, eff := d.Transition(Scratch{}, kind(EventCancel))
		assert.False(t, next.Active())
		assert.Empty(t, eff)
	})
	t.Run("mid dialog", func(t *testing.T) {
		s, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"))
		next, eff := d.Transition(s, kind(EventCancel))
		assert.Equal(t, Scratch{}, next)
		assert.Equal(t, textCancelled, firstReply(t, eff).Text)
	})
}

func TestStartResetsPreviousDialog(t *testing.T) {
	d := NewDialog(time.UTC)
	s, _ := drive(t, d, Scratch{}, kind(EventStartTask), text("Call"))

	next, _ := d.Transition(s, kind(EventStartLead))
	assert.Equal(t, Scratch{Step: StepLeadName}, next)
}

func TestIdleIgnoresContent(t *testing.T) {
	d := NewDialog(time.UTC)
	next, eff := d.Transition(Scratch{}, text("hello"))
	assert.Equal(t, Scratch{}, next)
	assert.Empty(t, eff)
}

func TestBroadcastDialog(t *testing.T) {
	d := NewDialog(time.UTC)

	s, _ := drive(t, d, Scratch{}, kind(EventStartBroadcast), text("Собрание в 10:00"))
	assert.Equal(t, StepBroadcastConfirm, s.Step)

	next, eff := d.Transition(s, text("ещё текст"))
	assert.Equal(t, s, next)
	assert.Equal(t, textBroadcastPick, firstReply(t, eff).Text)

	next, eff = d.Transition(s, kind(EventBroadcastSend))
	assert.False(t, next.Active())
	assert.Equal(t, []Effect{SendBroadcast{Draft: BroadcastDraft{Text: "Собрание в 10:00"}}}, eff)

	photo := Event{Kind: EventPhoto, Actor: actor, FileID: "ph1", Caption: "план"}
	s, _ = drive(t, d, Scratch{}, kind(EventStartBroadcast), photo)
	assert.Equal(t, BroadcastDraft{PhotoFileID: "ph1", Caption: "план"}, s.Broadcast)

	next, eff = d.Transition(s, kind(EventBroadcastDiscard))
	assert.False(t, next.Active())
	assert.Equal(t, textBroadcastDrop, firstReply(t, eff).Text)
}

func TestIsCommit(t *testing.T) {
	assert.True(t, IsCommit(SaveLead{}))
	assert.True(t, IsCommit(SaveTask{}))
	assert.True(t, IsCommit(SaveResult{}))
	assert.True(t, IsCommit(SendBroadcast{}))
	assert.False(t, IsCommit(Reply{}))
	assert.False(t, IsCommit(LookupAssignee{}))
}

func TestOptional(t *testing.T) {
	assert.Nil(t, optional(""))
	assert.Nil(t, optional("-"))
	require.NotNil(t, optional("ACME"))
	assert.Equal(t, "ACME", *optional("ACME"))
}
