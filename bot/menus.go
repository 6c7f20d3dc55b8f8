package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
)

// Per-role command lists for Telegram's menu button (the "/" icon in the chat input).
// These are pushed via SetMyCommands with BotCommandScopeChat whenever a chat's role changes.

type role int

const (
	roleAnonymous role = iota
	roleUser
	roleAdmin
)

var commandsAnonymous = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the welcome message"},
	{Command: "code", Description: "Redeem an access code"},
}

var commandsUser = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
}

var commandsAdmin = []tgbotapi.BotCommand{
	{Command: "start", Description: "Show the main menu"},
	{Command: "admin", Description: "Open the administration menu"},
	{Command: "ban", Description: "Ban a user by id or @username"},
	{Command: "unban", Description: "Unban a user by id or @username"},
}

func (r role) commands() []tgbotapi.BotCommand {
	switch r {
	case roleAdmin:
		return commandsAdmin
	case roleUser:
		return commandsUser
	default:
		return commandsAnonymous
	}
}

func (t *TgBot) roleOf(id int64) role {
	switch {
	case t.core.IsAdmin(id):
		return roleAdmin
	case t.core.IsAuthorized(id):
		return roleUser
	default:
		return roleAnonymous
	}
}

// setDefaultCommands sets the default bot menu for unknown users.
func (t *TgBot) setDefaultCommands() {
	_, err := t.api.SetMyCommands(commandsAnonymous, &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeDefault{},
	})
	if err != nil {
		t.log.Warn("setting default commands", "error", err)
	}
}

// setUserCommands sets the command menu for a specific chat based on its role.
func (t *TgBot) setUserCommands(chatId int64, r role) bool {
	_, err := t.api.SetMyCommands(r.commands(), &tgbotapi.SetMyCommandsOpts{
		Scope: tgbotapi.BotCommandScopeChat{ChatId: chatId},
	})
	if err != nil {
		t.log.Warn("setting user commands", "chat_id", chatId, "error", err)
		return false
	}
	return true
}

// syncMenu pushes the menu of chatId when its role differs from the one last pushed.
func (t *TgBot) syncMenu(chatId int64) {
	r := t.roleOf(chatId)
	t.mu.Lock()
	last, known := t.menus[chatId]
	t.mu.Unlock()
	if known && last == r {
		return
	}
	if !known && r == roleAnonymous {
		// The default scope already covers it.
		t.mu.Lock()
		t.menus[chatId] = r
		t.mu.Unlock()
		return
	}
	if t.setUserCommands(chatId, r) {
		t.mu.Lock()
		t.menus[chatId] = r
		t.mu.Unlock()
	}
}

// syncAdminMenus sets the admin menu for every configured admin on startup.
func (t *TgBot) syncAdminMenus() {
	for _, id := range t.core.AdminIds() {
		t.syncMenu(id)
	}
}
