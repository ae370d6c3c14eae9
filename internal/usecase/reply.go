package usecase

import (
	"context"
	"strconv"
	"strings"
)

// Токены кнопок (callback data).
const (
	ActionMenu         = "menu"
	ActionMyTasks      = "mytasks"
	ActionNewTask      = "newtask"
	ActionCancel       = "cancel_action"
	ActionTaskPrefix   = "task:"
	ActionAssignPrefix = "assign:"
	ActionAssignSelf   = "assign:self"
	ActionAdminBcast   = "admin:broadcast"
	ActionAdminStats   = "admin:stats"
	ActionAdminFunnel  = "admin:funnel"
	ActionBcastSend    = "broadcast:send"
	ActionBcastDiscard = "broadcast:cancel"
)

type Button struct {
	Label  string
	Action string
}

// Keyboard — строки инлайн-кнопок.
type Keyboard [][]Button

// Column раскладывает кнопки по одной в строке.
func Column(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []Button{b})
	}
	return kb
}

// Reply — логический исходящий ответ, не зависящий от Telegram.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

// Messenger реализуется транспортным адаптером.
type Messenger interface {
	Send(ctx context.Context, chatID int64, r Reply) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error
	SendImage(ctx context.Context, chatID int64, name string, png []byte) error
	RemoveButtons(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

func mainMenu() Keyboard {
	return Column(
		Button{Label: "📋 Мои задачи", Action: ActionMyTasks},
		Button{Label: "➕ Новая задача", Action: ActionNewTask},
	)
}

func afterResultMenu() Keyboard {
	return Column(
		Button{Label: "📋 К списку задач", Action: ActionMyTasks},
		Button{Label: "⬅️ Главное меню", Action: ActionMenu},
	)
}

func cancelKeyboard() Keyboard {
	return Column(Button{Label: "❌ Отмена", Action: ActionCancel})
}

func adminMenu() Keyboard {
	return Column(
		Button{Label: "Создать рассылку", Action: ActionAdminBcast},
		Button{Label: "Статистика", Action: ActionAdminStats},
		Button{Label: "Воронка", Action: ActionAdminFunnel},
	)
}

func broadcastConfirmKeyboard() Keyboard {
	return Keyboard{{
		{Label: "Отправить", Action: ActionBcastSend},
		{Label: "Отмена", Action: ActionBcastDiscard},
	}}
}

// assignAction кодирует выбор исполнителя в callback data.
func assignAction(id int64) string {
	return ActionAssignPrefix + strconv.FormatInt(id, 10)
}

// parseAssignAction возвращает (id, self). Неразборчивый токен трактуется как «себе».
func parseAssignAction(data string) (int64, bool) {
	code := strings.TrimPrefix(data, ActionAssignPrefix)
	if code == "self" {
		return 0, true
	}
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, true
	}
	return id, false
}
