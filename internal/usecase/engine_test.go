package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/internal/infra/memory"
	"github.com/a4tg/SDS-crm-bot/internal/usecase"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

const (
	chat  int64 = 500
	user  int64 = 100
	admin int64 = 1
)

var now = time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

type sent struct {
	ChatID int64
	Reply  usecase.Reply
}

type recorder struct {
	mu      sync.Mutex
	replies []sent
	photos  []string
	images  int
	removed []int
	failFor map[int64]bool
}

func (r *recorder) Send(_ context.Context, chatID int64, rp usecase.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[chatID] {
		return errors.New("blocked")
	}
	r.replies = append(r.replies, sent{ChatID: chatID, Reply: rp})
	return nil
}

func (r *recorder) SendPhoto(_ context.Context, chatID int64, fileID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos = append(r.photos, fileID)
	return nil
}

func (r *recorder) SendImage(context.Context, int64, string, []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images++
	return nil
}

func (r *recorder) RemoveButtons(_ context.Context, _ int64, messageID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, messageID)
	return nil
}

func (r *recorder) AnswerCallback(context.Context, string) error { return nil }

func (r *recorder) last() usecase.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.replies) == 0 {
		return usecase.Reply{}
	}
	return r.replies[len(r.replies)-1].Reply
}

// failingTasks отказывает в записи, пока fail выставлен; gone имитирует
// задачу, удалённую после выбора.
type failingTasks struct {
	*memory.TaskRepo
	fail bool
	gone bool
}

func (f *failingTasks) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) error {
	if f.gone {
		return domain.ErrNotFound
	}
	return f.TaskRepo.UpdateTask(ctx, id, upd)
}

// countingProfiles считает обращения к справочнику профилей.
type countingProfiles struct {
	*memory.ProfileRepo
	mu    sync.Mutex
	calls int
}

func (c *countingProfiles) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingProfiles) FindProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	c.hit()
	return c.ProfileRepo.FindProfile(ctx, id)
}

func (c *countingProfiles) FindProfilesByRoles(ctx context.Context, roles []domain.Role) ([]domain.Profile, error) {
	c.hit()
	return c.ProfileRepo.FindProfilesByRoles(ctx, roles)
}

func (c *countingProfiles) FindProfilesByName(ctx context.Context, name string) ([]domain.Profile, error) {
	c.hit()
	return c.ProfileRepo.FindProfilesByName(ctx, name)
}

func (f *failingTasks) CreateTask(ctx context.Context, t domain.Task) (string, error) {
	if f.fail {
		return "", domain.ErrUnavailable
	}
	return f.TaskRepo.CreateTask(ctx, t)
}

type fixture struct {
	engine   *usecase.Engine
	out      *recorder
	scratch  *usecase.ScratchStore
	users    *memory.UserRepo
	leads    *memory.LeadRepo
	tasks    *failingTasks
	profiles *countingProfiles
	funnel   *memory.FunnelRepo
}

func newFixture(t *testing.T, profiles ...domain.Profile) *fixture {
	t.Helper()
	f := &fixture{
		out:      &recorder{failFor: map[int64]bool{}},
		scratch:  usecase.NewScratchStore(),
		users:    memory.NewUserRepo(),
		leads:    memory.NewLeadRepo(),
		tasks:    &failingTasks{TaskRepo: memory.NewTaskRepo()},
		profiles: &countingProfiles{ProfileRepo: memory.NewProfileRepo(profiles...)},
		funnel:   memory.NewFunnelRepo(),
	}
	repos := usecase.Repositories{Users: f.users, Leads: f.leads, Tasks: f.tasks, Profiles: f.profiles}
	log := logger.Nop()
	bcast := usecase.NewBroadcastUsecase(f.users, f.out, memory.NewBroadcastStatRepo(), log)
	f.engine = usecase.NewEngine(repos, usecase.NewDialog(time.UTC), f.scratch, f.out, log,
		usecase.WithClock(func() time.Time { return now }),
		usecase.WithAdmins(map[int64]struct{}{admin: {}}),
		usecase.WithFunnel(usecase.NewFunnelUsecase(f.funnel), nil),
		usecase.WithBroadcast(bcast),
	)
	return f
}

func (f *fixture) command(name string) {
	f.engine.Handle(context.Background(), usecase.Update{Kind: usecase.UpdateCommand, ChatID: chat, UserID: user, Command: name})
}

func (f *fixture) text(s string) {
	f.engine.Handle(context.Background(), usecase.Update{Kind: usecase.UpdateText, ChatID: chat, UserID: user, Text: s})
}

func (f *fixture) button(data string) {
	f.engine.Handle(context.Background(), usecase.Update{
		Kind: usecase.UpdateButton, ChatID: chat, UserID: user, MessageID: 9, CallbackID: "cb", Text: data,
	})
}

func TestEngine_NewLead(t *testing.T) {
	f := newFixture(t)

	f.command("newlead")
	f.text("Anna")
	f.text("+7 900")
	f.text("anna@example.com")

	leads, err := f.leads.ListLeadsByOwner(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, domain.Lead{OwnerID: user, Name: "Anna", Phone: "+7 900", Email: "anna@example.com", CreatedAt: now}, leads[0])
	assert.False(t, f.scratch.Get(chat).Active())
	assert.Equal(t, "Лид успешно добавлен!", f.out.last().Text)
}

func TestEngine_NewTaskSelfAssign(t *testing.T) {
	f := newFixture(t)

	f.command("newtask")
	f.text("Call")
	f.text("-")
	f.text("2025-01-10 09:00")
	f.text("")
	f.button(usecase.ActionAssignSelf)

	got, err := f.tasks.ListTasksByAssignee(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, got, 1)
	task := got[0]
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "Call", task.Title)
	assert.Nil(t, task.Client)
	assert.Nil(t, task.Description)
	require.NotNil(t, task.Due)
	assert.Equal(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC), *task.Due)
	assert.Equal(t, domain.StatusInProgress, task.Status)
	assert.Equal(t, user, task.AssignerID)
	assert.Equal(t, user, task.AssigneeID)
	assert.False(t, f.scratch.Get(chat).Active())
	assert.Contains(t, f.out.removed, 9)
}

func TestEngine_AssigneeKeyboardFollowsRole(t *testing.T) {
	f := newFixture(t,
		domain.Profile{TelegramID: user, FullName: "Boss", Role: domain.RoleProjectHead},
		domain.Profile{TelegramID: 7, FullName: "Lead One", Role: domain.RoleTeamLeader},
		domain.Profile{TelegramID: 8, FullName: "Junior", Role: domain.RoleJuniorManager},
	)

	f.command("newtask")
	f.text("Call")
	f.text("-")
	f.text("2025-01-10 09:00")
	f.text("-")

	kb := f.out.last().Keyboard
	require.Len(t, kb, 2)
	assert.Equal(t, usecase.ActionAssignSelf, kb[0][0].Action)
	assert.Equal(t, "Lead One", kb[1][0].Label)
	assert.Equal(t, "assign:7", kb[1][0].Action)
}

func TestEngine_AmbiguousNameKeepsStep(t *testing.T) {
	f := newFixture(t,
		domain.Profile{TelegramID: 7, FullName: "Ivan Petrov", Role: domain.RoleTeamLeader},
		domain.Profile{TelegramID: 8, FullName: "ivan petrov", Role: domain.RoleTeamLeader},
		domain.Profile{TelegramID: 9, FullName: "Olga Sidorova", Role: domain.RoleTeamLeader},
	)

	f.command("newtask")
	f.text("Call")
	f.text("-")
	f.text("2025-01-10 09:00")
	f.text("-")
	f.text("Ivan Petrov")

	assert.Equal(t, usecase.StepTaskAssignee, f.scratch.Get(chat).Step)
	got, _ := f.tasks.ListTasksByAssigner(context.Background(), user)
	assert.Empty(t, got)

	f.text("olga sidorova")
	got, _ = f.tasks.ListTasksByAssigner(context.Background(), user)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].AssigneeID)
}

func TestEngine_CommitFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	f.tasks.fail = true

	f.command("newtask")
	f.text("Call")
	f.text("ACME")
	f.text("2025-01-10 09:00")
	f.text("notes")
	before := f.scratch.Get(chat)
	f.text("0")

	assert.Equal(t, before, f.scratch.Get(chat))
	assert.Contains(t, f.out.last().Text, "Не удалось сохранить")

	f.tasks.fail = false
	f.text("0")
	assert.False(t, f.scratch.Get(chat).Active())
	got, _ := f.tasks.ListTasksByAssignee(context.Background(), user)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Client)
	assert.Equal(t, "ACME", *got[0].Client)
}

func TestEngine_OwnIDSkipsProfileLookup(t *testing.T) {
	f := newFixture(t, domain.Profile{TelegramID: user, FullName: "Boss", Role: domain.RoleProjectHead})

	f.command("newtask")
	f.text("Call")
	f.text("-")
	f.text("2025-01-10 09:00")
	f.text("-")
	f.profiles.calls = 0
	f.text("100")

	assert.Zero(t, f.profiles.calls)
	got, _ := f.tasks.ListTasksByAssignee(context.Background(), user)
	require.Len(t, got, 1)
	assert.Equal(t, user, got[0].AssigneeID)
}

func TestEngine_ResultForVanishedTask(t *testing.T) {
	f := newFixture(t)
	id, err := f.tasks.CreateTask(context.Background(), domain.Task{
		Title: "Call", Status: domain.StatusInProgress, AssignerID: 2, AssigneeID: user,
	})
	require.NoError(t, err)

	f.button(usecase.ActionTaskPrefix + id)
	f.tasks.gone = true
	f.text("done")

	assert.False(t, f.scratch.Get(chat).Active())
	assert.Equal(t, "Задача не найдена или недоступна.", f.out.last().Text)
}

func TestEngine_CancelWhenIdleIsSilent(t *testing.T) {
	f := newFixture(t)

	f.command("cancel")
	f.text("Cancel")

	assert.Empty(t, f.out.replies)
	assert.False(t, f.scratch.Get(chat).Active())
}

func TestEngine_CancelWordMidDialog(t *testing.T) {
	f := newFixture(t)
	f.command("newlead")
	f.text("CANCEL")

	assert.False(t, f.scratch.Get(chat).Active())
	assert.Equal(t, "Ввод отменён.", f.out.last().Text)
}

func TestEngine_HelpKeepsDialog(t *testing.T) {
	f := newFixture(t)
	f.command("newlead")
	f.text("Anna")
	f.command("help")

	assert.Equal(t, usecase.StepLeadPhone, f.scratch.Get(chat).Step)
}

func TestEngine_MenuClearsDialog(t *testing.T) {
	f := newFixture(t)
	f.command("newlead")
	f.button(usecase.ActionMenu)

	assert.False(t, f.scratch.Get(chat).Active())
}

func TestEngine_StartRegistersOnce(t *testing.T) {
	f := newFixture(t)
	upd := usecase.Update{
		Kind: usecase.UpdateCommand, ChatID: chat, UserID: user, Command: "start",
		From: domain.User{Username: "anna", FirstName: "Anna"},
	}
	f.engine.Handle(context.Background(), upd)
	f.engine.Handle(context.Background(), upd)

	u, err := f.users.FindUser(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, domain.User{TelegramID: user, Username: "anna", FirstName: "Anna"}, *u)
	ids, _ := f.users.ListUserIDs(context.Background())
	assert.Len(t, ids, 1)
}

func TestEngine_TaskResult(t *testing.T) {
	f := newFixture(t)
	id, err := f.tasks.CreateTask(context.Background(), domain.Task{
		Title: "Call", Status: domain.StatusInProgress, AssignerID: 2, AssigneeID: user,
	})
	require.NoError(t, err)

	f.button(usecase.ActionTaskPrefix + id)
	assert.Equal(t, usecase.StepAwaitingResult, f.scratch.Get(chat).Step)

	f.engine.Handle(context.Background(), usecase.Update{Kind: usecase.UpdateFile, ChatID: chat, UserID: user, FileID: "BQAC"})

	task, err := f.tasks.GetTask(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingReview, task.Status)
	require.NotNil(t, task.Result)
	assert.Equal(t, "[Файл: BQAC]", *task.Result)
	require.NotNil(t, task.UpdatedAt)
	assert.Equal(t, now, *task.UpdatedAt)
	assert.Equal(t, []domain.TaskAttachment{{TaskID: id, FileRef: "BQAC"}}, f.tasks.Attachments(id))
	assert.False(t, f.scratch.Get(chat).Active())
}

func TestEngine_ForeignTaskNotSelectable(t *testing.T) {
	f := newFixture(t)
	id, err := f.tasks.CreateTask(context.Background(), domain.Task{Title: "Secret", AssignerID: 2, AssigneeID: 3})
	require.NoError(t, err)

	f.button(usecase.ActionTaskPrefix + id)

	assert.False(t, f.scratch.Get(chat).Active())
	assert.Equal(t, "Задача не найдена или недоступна.", f.out.last().Text)
}

func TestEngine_MyTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.tasks.CreateTask(ctx, domain.Task{ID: "t1", Title: "Own", AssignerID: user, AssigneeID: user})
	_, _ = f.tasks.CreateTask(ctx, domain.Task{ID: "t2", Title: "Given", AssignerID: 2, AssigneeID: user})
	_, _ = f.tasks.CreateTask(ctx, domain.Task{ID: "t3", Title: "Other", AssignerID: 2, AssigneeID: 3})

	f.command("mytasks")

	kb := f.out.last().Keyboard
	require.Len(t, kb, 4)
	assert.Equal(t, "task:t1", kb[1][0].Action)
	assert.Equal(t, "task:t2", kb[2][0].Action)
}

func TestEngine_AdminOnly(t *testing.T) {
	f := newFixture(t)
	f.command("admin")
	assert.Equal(t, "Доступ запрещен", f.out.last().Text)

	f.button(usecase.ActionAdminBcast)
	assert.False(t, f.scratch.Get(chat).Active())
}

func TestEngine_Broadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []int64{admin, 20, 30} {
		require.NoError(t, f.users.CreateUser(ctx, domain.User{TelegramID: id}))
	}
	f.out.failFor[30] = true

	adminUpd := func(u usecase.Update) {
		u.ChatID, u.UserID = admin, admin
		f.engine.Handle(ctx, u)
	}
	adminUpd(usecase.Update{Kind: usecase.UpdateButton, Text: usecase.ActionAdminBcast})
	adminUpd(usecase.Update{Kind: usecase.UpdateText, Text: "Собрание в 10:00"})
	adminUpd(usecase.Update{Kind: usecase.UpdateButton, Text: usecase.ActionBcastSend})

	assert.Equal(t, "Рассылка отправлена: 2 успешно, 1 с ошибками.", f.out.last().Text)
	assert.False(t, f.scratch.Get(admin).Active())
}

func TestEngine_FunnelTracksSteps(t *testing.T) {
	f := newFixture(t)
	f.command("newlead")
	f.text("Anna")
	f.text("1")
	f.text("a@x")

	counts, err := f.funnel.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[usecase.StepLeadName])
	assert.Equal(t, 1, counts[usecase.StepLeadEmail])
	assert.Equal(t, 1, counts[usecase.FunnelLeadSaved])
}
