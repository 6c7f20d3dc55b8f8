package core

import "botadmin/entity"

// ParseMarkdown is the legacy Markdown mode used for every rendered admin text.
const ParseMarkdown = "Markdown"

// Button is one inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard, one slice per row.
type Keyboard [][]Button

// Row builds a single keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Outgoing is a message body sent or edited through the Messenger.
// Entities take precedence over ParseMode when both are set.
type Outgoing struct {
	Text      string
	ParseMode string
	Entities  []entity.MessageEntity
	Keyboard  Keyboard
}

// Messenger is the chat platform client used by the facade.
// Send methods return the platform-assigned message id.
type Messenger interface {
	SendText(chatId int64, msg Outgoing) (int64, error)
	SendPhoto(chatId int64, fileId string, msg Outgoing) (int64, error)
	EditText(chatId, messageId int64, msg Outgoing) error
	EditCaption(chatId, messageId int64, msg Outgoing) error
	Delete(chatId, messageId int64) error
	Answer(callbackId, text string, alert bool) error
}

// Actor is the user behind an inbound event.
type Actor struct {
	Id        int64
	Username  string
	FirstName string
	LastName  string
}

// Callback is an inline button press.
type Callback struct {
	Id        string
	Data      string
	ChatId    int64
	MessageId int64
	From      Actor
}

// Message is an inbound chat message. Args holds the command arguments, if any.
type Message struct {
	ChatId      int64
	MessageId   int64
	From        Actor
	Text        string
	Caption     string
	PhotoFileId string
	Entities    []entity.MessageEntity
	Args        []string
}

// Content returns the text of the message, falling back to the caption.
func (m Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
