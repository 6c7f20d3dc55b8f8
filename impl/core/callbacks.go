package core

import (
	"strconv"
	"strings"

	"botadmin/entity"
)

// HandleCallback routes an inline button press by its callback data.
func (c *Core) HandleCallback(cb Callback) (state entity.State) {
	defer c.guard("callback "+cb.Data, &state)

	switch cb.Data {
	case cbHome:
		c.answer(cb, "", false)
		return c.home(cb)
	case cbNoop:
		c.answer(cb, "", false)
		return entity.StateChoosing
	}

	if !c.IsAdmin(cb.From.Id) {
		c.answer(cb, textDenied, true)
		return entity.StateChoosing
	}
	c.answer(cb, "", false)

	data := cb.Data
	switch {
	case data == cbAdmin:
		c.sessions.reset(cb.From.Id)
		c.edit(cb.ChatId, cb.MessageId, adminMenu())
		return entity.StateChoosing
	case data == cbGenerate:
		c.edit(cb.ChatId, cb.MessageId, generateMenu(c.opts.MaxBatch))
		return entity.StateChoosing
	case data == cbGenerateOne:
		return c.generateCodes(cb, 1)
	case data == cbGenerateFive:
		return c.generateCodes(cb, 5)
	case data == cbGenerateCustom:
		return c.customCodes(cb)
	case data == cbCodes:
		return c.codesHistory(cb)
	case data == cbCodesActive:
		return c.toggleCodes(cb, false)
	case data == cbCodesUsed:
		return c.toggleCodes(cb, true)
	case data == cbCodesPrev:
		return c.codesPage(cb, -1)
	case data == cbCodesNext:
		return c.codesPage(cb, 1)
	case strings.HasPrefix(data, cbUsers):
		page, err := strconv.Atoi(strings.TrimPrefix(data, cbUsers))
		if err != nil {
			page = 0
		}
		return c.userManagement(cb, page)
	case data == cbBanned:
		return c.bannedUsers(cb)
	case strings.HasPrefix(data, cbUnban):
		return c.unbanCallback(cb, strings.TrimPrefix(data, cbUnban))
	case data == cbBroadcasts:
		return c.manageBroadcasts(cb)
	case data == cbBroadcastNew:
		return c.startBroadcast(cb)
	case strings.HasPrefix(data, cbBroadcastOpen):
		return c.openBroadcast(cb, strings.TrimPrefix(data, cbBroadcastOpen))
	case strings.HasPrefix(data, cbBroadcastEdit):
		return c.startBroadcastEdit(cb, strings.TrimPrefix(data, cbBroadcastEdit))
	case strings.HasPrefix(data, cbBroadcastResend):
		return c.resendBroadcast(cb, strings.TrimPrefix(data, cbBroadcastResend))
	case strings.HasPrefix(data, cbBroadcastDelete):
		return c.deleteBroadcast(cb, strings.TrimPrefix(data, cbBroadcastDelete))
	}

	c.log.With("data", data).Debug("unknown callback")
	return entity.StateChoosing
}

// AdminMenu answers the /admin command.
func (c *Core) AdminMenu(m Message) (state entity.State) {
	defer c.guard("admin", &state)
	if !c.IsAdmin(m.From.Id) {
		c.send(m.ChatId, Outgoing{Text: textDenied})
		return entity.StateChoosing
	}
	c.sessions.reset(m.From.Id)
	c.send(m.ChatId, adminMenu())
	return entity.StateChoosing
}

// Start answers /start; an argument is treated as an access code.
func (c *Core) Start(m Message) (state entity.State) {
	defer c.guard("start", &state)
	if len(m.Args) > 0 && !c.IsAuthorized(m.From.Id) {
		return c.Redeem(m, m.Args[0])
	}
	c.send(m.ChatId, c.welcome(m.From.Id))
	return entity.StateChoosing
}

func (c *Core) home(cb Callback) entity.State {
	c.send(cb.ChatId, c.welcome(cb.From.Id))
	return entity.StateChoosing
}

func (c *Core) welcome(id int64) Outgoing {
	switch {
	case c.IsAdmin(id):
		return adminMenu()
	case c.access.IsBanned(id):
		return Outgoing{Text: "🚫 Your access to this bot has been revoked."}
	case c.access.IsAuthorized(id):
		return Outgoing{Text: "👋 Welcome back! You will receive announcements here.", Keyboard: RecipientKeyboard()}
	default:
		return Outgoing{Text: "🔒 This bot is private.\n\nSend /code <CODE> with the access code you received."}
	}
}
