package bot

import (
	"fmt"
	"strings"

	"botadmin/impl/core"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

var _ core.Messenger = (*TgBot)(nil)

// Telegram refuses an edit that leaves the message unchanged; that is not a failure here.
const notModified = "message is not modified"

func ignoreNotModified(err error) error {
	if err != nil && strings.Contains(err.Error(), notModified) {
		return nil
	}
	return err
}

func keyboardOf(keyboard core.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// parseMode drops the parse mode when explicit entities are present.
func parseMode(msg core.Outgoing) string {
	if len(msg.Entities) > 0 {
		return ""
	}
	return msg.ParseMode
}

func (t *TgBot) SendText(chatId int64, msg core.Outgoing) (int64, error) {
	opts := &tgbotapi.SendMessageOpts{
		ParseMode: parseMode(msg),
		Entities:  toEntities(msg.Entities),
	}
	if len(msg.Keyboard) > 0 {
		opts.ReplyMarkup = keyboardOf(msg.Keyboard)
	}
	sent, err := t.api.SendMessage(chatId, msg.Text, opts)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatId, err)
	}
	return sent.MessageId, nil
}

func (t *TgBot) SendPhoto(chatId int64, fileId string, msg core.Outgoing) (int64, error) {
	opts := &tgbotapi.SendPhotoOpts{
		Caption:         msg.Text,
		ParseMode:       parseMode(msg),
		CaptionEntities: toEntities(msg.Entities),
	}
	if len(msg.Keyboard) > 0 {
		opts.ReplyMarkup = keyboardOf(msg.Keyboard)
	}
	sent, err := t.api.SendPhoto(chatId, tgbotapi.InputFileByID(fileId), opts)
	if err != nil {
		return 0, fmt.Errorf("send photo to %d: %w", chatId, err)
	}
	return sent.MessageId, nil
}

func (t *TgBot) EditText(chatId, messageId int64, msg core.Outgoing) error {
	_, _, err := t.api.EditMessageText(msg.Text, &tgbotapi.EditMessageTextOpts{
		ChatId:      chatId,
		MessageId:   messageId,
		ParseMode:   parseMode(msg),
		Entities:    toEntities(msg.Entities),
		ReplyMarkup: keyboardOf(msg.Keyboard),
	})
	if err = ignoreNotModified(err); err != nil {
		return fmt.Errorf("edit message %d in %d: %w", messageId, chatId, err)
	}
	return nil
}

func (t *TgBot) EditCaption(chatId, messageId int64, msg core.Outgoing) error {
	_, _, err := t.api.EditMessageCaption(&tgbotapi.EditMessageCaptionOpts{
		ChatId:          chatId,
		MessageId:       messageId,
		Caption:         msg.Text,
		ParseMode:       parseMode(msg),
		CaptionEntities: toEntities(msg.Entities),
		ReplyMarkup:     keyboardOf(msg.Keyboard),
	})
	if err = ignoreNotModified(err); err != nil {
		return fmt.Errorf("edit caption %d in %d: %w", messageId, chatId, err)
	}
	return nil
}

func (t *TgBot) Delete(chatId, messageId int64) error {
	if _, err := t.api.DeleteMessage(chatId, messageId, nil); err != nil {
		return fmt.Errorf("delete message %d in %d: %w", messageId, chatId, err)
	}
	return nil
}

func (t *TgBot) Answer(callbackId, text string, alert bool) error {
	_, err := t.api.AnswerCallbackQuery(callbackId, &tgbotapi.AnswerCallbackQueryOpts{
		Text:      text,
		ShowAlert: alert,
	})
	return err
}
