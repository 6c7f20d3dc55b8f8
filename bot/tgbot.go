// Package bot connects the admin facade to the Telegram Bot API.
//
// Architecture overview:
//   - tgbot.go    : TgBot struct, lifecycle (Start/Stop), dispatcher and conversation wiring
//   - handlers.go : update handlers translating gotgbot contexts into facade calls
//   - messenger.go: core.Messenger implementation over the Bot API
//   - menus.go    : per-role command menus via Telegram's BotCommandScope API
//   - digest.go   : DigestBuffer batching low-level admin notifications
//   - helpers.go  : shared utilities: conversions, plainResponse, NotifyAdmins
//
// Every observed update first passes the registration handler in group -1, which records
// the user profile. The conversation handler in group 0 carries the admin flows that wait
// for a follow-up message: custom code count, new broadcast and broadcast edit.
package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"botadmin/entity"
	"botadmin/impl/core"
	"botadmin/lib/sl"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/conversation"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/callbackquery"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers/filters/message"
)

// BotConfig holds Telegram-specific configuration loaded from the YAML config file.
type BotConfig struct {
	DigestInterval time.Duration
}

// TgBot is the Telegram front of the admin facade.
type TgBot struct {
	log     *slog.Logger
	api     *tgbotapi.Bot
	core    *core.Core
	updater *ext.Updater
	digest  *DigestBuffer
	config  BotConfig

	mu    sync.Mutex     // guards menus
	menus map[int64]role // chat id → command menu last pushed
}

func NewTgBot(apiKey string, c *core.Core, log *slog.Logger, cfg BotConfig) (*TgBot, error) {
	if cfg.DigestInterval <= 0 {
		cfg.DigestInterval = 10 * time.Minute
	}

	tgBot := &TgBot{
		log:    log.With(sl.Module("tgbot")),
		core:   c,
		config: cfg,
		menus:  make(map[int64]role),
	}
	tgBot.digest = NewDigestBuffer(tgBot, cfg.DigestInterval)

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

// Start blocks polling for updates until Stop is called.
func (t *TgBot) Start() error {
	t.digest.StartTicker()

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Error("handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	t.updater = ext.NewUpdater(dispatcher, nil)

	// Registration runs ahead of everything else and never consumes the update.
	dispatcher.AddHandlerToGroup(handlers.NewMessage(message.All, t.register), -1)
	dispatcher.AddHandlerToGroup(handlers.NewCallback(callbackquery.All, t.register), -1)

	commands := []ext.Handler{
		handlers.NewCommand("start", t.start),
		handlers.NewCommand("code", t.code),
		handlers.NewCommand("admin", t.admin),
		handlers.NewCommand("ban", t.ban),
		handlers.NewCommand("unban", t.unban),
	}

	// The conversation sees every callback so that any button press can open or close a flow.
	// Commands typed mid-flow leave it.
	dispatcher.AddHandler(handlers.NewConversation(
		[]ext.Handler{handlers.NewCallback(callbackquery.All, t.callback)},
		map[string][]ext.Handler{
			entity.StateWaitingCodeNumber.String():       {handlers.NewMessage(plainText, t.codeNumber)},
			entity.StateWaitingBroadcastMessage.String(): {handlers.NewMessage(content, t.broadcast)},
			entity.StateWaitingBroadcastEdit.String():    {handlers.NewMessage(content, t.broadcastEdit)},
		},
		&handlers.ConversationOpts{
			Exits:        commands,
			Fallbacks:    []ext.Handler{handlers.NewCallback(callbackquery.All, t.callback)},
			AllowReEntry: true,
			StateStorage: conversation.NewInMemoryStorage(conversation.KeyStrategySenderAndChat),
		},
	))
	for _, command := range commands {
		dispatcher.AddHandler(command)
	}

	t.setDefaultCommands()
	t.syncAdminMenus()

	err := t.updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}
	t.log.With(slog.String("username", t.api.User.Username)).Info("telegram bot started")

	t.updater.Idle()
	return nil
}

func (t *TgBot) Stop() {
	if t.updater != nil {
		t.log.Info("stopping telegram bot")
		t.updater.Stop()
	}
	if t.digest != nil {
		t.digest.Stop()
	}
}

// plainText accepts text messages that are not commands.
func plainText(msg *tgbotapi.Message) bool {
	return msg.Text != "" && !strings.HasPrefix(msg.Text, "/")
}

// content accepts any text or photo message that is not a command.
func content(msg *tgbotapi.Message) bool {
	if len(msg.Photo) > 0 {
		return true
	}
	return plainText(msg)
}

// transition maps a facade flow label onto the conversation handler.
func transition(state entity.State) error {
	if state == entity.StateChoosing || state == "" {
		return handlers.EndConversation()
	}
	return handlers.NextConversationState(state.String())
}
