package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/a4tg/SDS-crm-bot/internal/domain"
	"github.com/a4tg/SDS-crm-bot/internal/usecase"
	"github.com/a4tg/SDS-crm-bot/pkg/logger"
)

// Handler читает long polling и передаёт события диспетчеру.
type Handler struct {
	bot      *tgbotapi.BotAPI
	dispatch func(usecase.Update)
	log      *logger.Logger
}

func NewHandler(bot *tgbotapi.BotAPI, dispatch func(usecase.Update), log *logger.Logger) *Handler {
	return &Handler{bot: bot, dispatch: dispatch, log: log}
}

// Run блокируется до отмены ctx.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	h.log.Info().Str("bot", h.bot.Self.UserName).Msg("polling started")
	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			h.log.Info().Msg("polling stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			in, ok := toUpdate(upd)
			if !ok {
				continue
			}
			h.dispatch(in)
		}
	}
}

// toUpdate переводит апдейт Telegram во внутреннее событие. Апдейты без
// отправителя (посты каналов и т.п.) пропускаются.
func toUpdate(upd tgbotapi.Update) (usecase.Update, bool) {
	if cb := upd.CallbackQuery; cb != nil {
		if cb.From == nil {
			return usecase.Update{}, false
		}
		out := usecase.Update{
			Kind:       usecase.UpdateButton,
			ChatID:     cb.From.ID,
			UserID:     cb.From.ID,
			CallbackID: cb.ID,
			Text:       cb.Data,
			From:       fromUser(cb.From),
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			out.ChatID = cb.Message.Chat.ID
			out.MessageID = cb.Message.MessageID
		}
		return out, true
	}

	m := upd.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return usecase.Update{}, false
	}
	out := usecase.Update{
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		MessageID: m.MessageID,
		From:      fromUser(m.From),
	}
	switch {
	case m.IsCommand():
		out.Kind = usecase.UpdateCommand
		out.Command = strings.ToLower(m.Command())
		out.Text = m.CommandArguments()
	case m.Document != nil:
		out.Kind = usecase.UpdateFile
		out.FileID = m.Document.FileID
		out.Caption = m.Caption
	case len(m.Photo) > 0:
		// последний размер — самый крупный
		out.Kind = usecase.UpdatePhoto
		out.FileID = m.Photo[len(m.Photo)-1].FileID
		out.Caption = m.Caption
	case m.Text != "":
		out.Kind = usecase.UpdateText
		out.Text = m.Text
	default:
		out.Kind = usecase.UpdateOther
	}
	return out, true
}

func fromUser(u *tgbotapi.User) domain.User {
	return domain.User{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}
