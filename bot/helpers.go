package bot

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"botadmin/entity"
	"botadmin/impl/core"
	"botadmin/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

const maxTelegramMessageLen = 4096

func actorOf(user *tgbotapi.User) core.Actor {
	if user == nil {
		return core.Actor{}
	}
	return core.Actor{
		Id:        user.Id,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// messageOf converts the effective message; Args excludes the command itself.
func messageOf(ctx *ext.Context) core.Message {
	m := core.Message{From: actorOf(ctx.EffectiveUser)}
	if ctx.EffectiveChat != nil {
		m.ChatId = ctx.EffectiveChat.Id
	}
	msg := ctx.EffectiveMessage
	if msg == nil {
		return m
	}
	m.MessageId = msg.MessageId
	m.Text = msg.Text
	m.Caption = msg.Caption
	if len(msg.Photo) > 0 {
		// Telegram lists sizes ascending; the last one is the original.
		m.PhotoFileId = msg.Photo[len(msg.Photo)-1].FileId
	}
	if msg.Text != "" {
		m.Entities = entitiesOf(msg.Entities)
	} else {
		m.Entities = entitiesOf(msg.CaptionEntities)
	}
	if strings.HasPrefix(msg.Text, "/") {
		if args := strings.Fields(msg.Text); len(args) > 1 {
			m.Args = args[1:]
		}
	}
	return m
}

func callbackOf(cq *tgbotapi.CallbackQuery) core.Callback {
	cb := core.Callback{
		Id:   cq.Id,
		Data: cq.Data,
		From: actorOf(&cq.From),
	}
	if cq.Message != nil {
		cb.ChatId = cq.Message.GetChat().Id
		cb.MessageId = cq.Message.GetMessageId()
	}
	if cb.ChatId == 0 {
		cb.ChatId = cq.From.Id
	}
	return cb
}

func entitiesOf(list []tgbotapi.MessageEntity) []entity.MessageEntity {
	if len(list) == 0 {
		return nil
	}
	out := make([]entity.MessageEntity, 0, len(list))
	for _, e := range list {
		out = append(out, entity.MessageEntity{Type: e.Type, Offset: e.Offset, Length: e.Length, Url: e.Url})
	}
	return out
}

func toEntities(list []entity.MessageEntity) []tgbotapi.MessageEntity {
	if len(list) == 0 {
		return nil
	}
	out := make([]tgbotapi.MessageEntity, 0, len(list))
	for _, e := range list {
		out = append(out, tgbotapi.MessageEntity{Type: e.Type, Offset: e.Offset, Length: e.Length, Url: e.Url})
	}
	return out
}

// plainResponse sends unformatted text; notifications carry arbitrary log content.
func (t *TgBot) plainResponse(chatId int64, text string) {
	if text == "" {
		t.log.With("id", chatId).Debug("empty message")
		return
	}
	for _, part := range splitMessage(text, maxTelegramMessageLen) {
		if _, err := t.api.SendMessage(chatId, part, nil); err != nil {
			t.log.With(slog.Int64("id", chatId)).Warn("sending message", sl.Err(err))
			return
		}
	}
}

// NotifyAdmins sends errors to every admin at once and batches lower levels into the digest.
func (t *TgBot) NotifyAdmins(msg string, level slog.Level) {
	for _, id := range t.core.AdminIds() {
		if level >= slog.LevelError || t.digest == nil {
			t.plainResponse(id, msg)
			continue
		}
		t.digest.Add(id, msg, level)
	}
}

func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		// Try to split at newline
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		} else {
			for cutAt > 0 && !utf8.RuneStart(text[cutAt]) {
				cutAt--
			}
			if cutAt == 0 {
				cutAt = maxLen
			}
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}
