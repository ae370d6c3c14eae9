package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/a4tg/SDS-crm-bot/internal/usecase"
)

// botAPI — часть *tgbotapi.BotAPI, нужная отправителю.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender реализует usecase.Messenger поверх Bot API.
type Sender struct {
	bot botAPI
}

func NewSender(bot botAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) Send(_ context.Context, chatID int64, r usecase.Reply) error {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if len(r.Keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(r.Keyboard)
	}
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) SendPhoto(_ context.Context, chatID int64, fileID, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.bot.Send(photo)
	return err
}

func (s *Sender) SendImage(_ context.Context, chatID int64, name string, png []byte) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: png})
	_, err := s.bot.Send(photo)
	return err
}

// RemoveButtons убирает инлайн-клавиатуру у сообщения.
func (s *Sender) RemoveButtons(_ context.Context, chatID int64, messageID int) error {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	_, err := s.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty))
	return err
}

func (s *Sender) AnswerCallback(_ context.Context, callbackID string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

func inlineKeyboard(kb usecase.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, line := range kb {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
		for _, b := range line {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		rows = append(rows, row)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
