package bot

import (
	"testing"

	"botadmin/entity"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageOfCommand(t *testing.T) {
	ctx := &ext.Context{
		EffectiveUser: &tgbotapi.User{Id: 42, Username: "alice", FirstName: "Alice"},
		EffectiveChat: &tgbotapi.Chat{Id: 42, Type: "private"},
		EffectiveMessage: &tgbotapi.Message{
			MessageId: 7,
			Text:      "/ban  @mallory extra",
		},
	}
	m := messageOf(ctx)
	assert.Equal(t, int64(42), m.ChatId)
	assert.Equal(t, int64(7), m.MessageId)
	assert.Equal(t, "alice", m.From.Username)
	assert.Equal(t, []string{"@mallory", "extra"}, m.Args)
}

func TestMessageOfPhoto(t *testing.T) {
	ctx := &ext.Context{
		EffectiveUser: &tgbotapi.User{Id: 1},
		EffectiveChat: &tgbotapi.Chat{Id: 1},
		EffectiveMessage: &tgbotapi.Message{
			Caption:         "Look",
			Photo:           []tgbotapi.PhotoSize{{FileId: "small"}, {FileId: "large"}},
			CaptionEntities: []tgbotapi.MessageEntity{{Type: "bold", Offset: 0, Length: 4}},
		},
	}
	m := messageOf(ctx)
	assert.Equal(t, "large", m.PhotoFileId)
	assert.Equal(t, "Look", m.Content())
	assert.Equal(t, []entity.MessageEntity{{Type: "bold", Offset: 0, Length: 4}}, m.Entities)
	assert.Empty(t, m.Args)
}

func TestEntitiesRoundTrip(t *testing.T) {
	in := []entity.MessageEntity{{Type: "text_link", Offset: 2, Length: 3, Url: "https://example.com"}}
	assert.Equal(t, in, entitiesOf(toEntities(in)))
	assert.Nil(t, toEntities(nil))
}

func TestCallbackOf(t *testing.T) {
	cq := &tgbotapi.CallbackQuery{
		Id:      "q1",
		Data:    "adm",
		From:    tgbotapi.User{Id: 1, Username: "boss"},
		Message: tgbotapi.Message{MessageId: 5, Chat: tgbotapi.Chat{Id: 9}},
	}
	cb := callbackOf(cq)
	assert.Equal(t, "q1", cb.Id)
	assert.Equal(t, int64(9), cb.ChatId)
	assert.Equal(t, int64(5), cb.MessageId)
	assert.Equal(t, int64(1), cb.From.Id)

	cb = callbackOf(&tgbotapi.CallbackQuery{Id: "q2", From: tgbotapi.User{Id: 3}})
	assert.Equal(t, int64(3), cb.ChatId)
}

func TestTransition(t *testing.T) {
	assert.Equal(t, handlers.EndConversation(), transition(entity.StateChoosing))
	assert.Equal(t, handlers.NextConversationState("WAITING_BROADCAST_EDIT"), transition(entity.StateWaitingBroadcastEdit))
}

func TestMessageFilters(t *testing.T) {
	assert.True(t, plainText(&tgbotapi.Message{Text: "12"}))
	assert.False(t, plainText(&tgbotapi.Message{Text: "/admin"}))
	assert.False(t, plainText(&tgbotapi.Message{}))
	assert.True(t, content(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileId: "x"}}}))
}

func TestKeyboardOf(t *testing.T) {
	markup := keyboardOf(nil)
	require.NotNil(t, markup.InlineKeyboard)
	assert.Empty(t, markup.InlineKeyboard)
}
