package core

import (
	"strconv"
	"strings"

	"botadmin/entity"
	"botadmin/internal/store"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`")

// EscapeMarkdown escapes the characters legacy Markdown treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// displayName resolves the escaped name of a known user, or the raw id.
func (c *Core) displayName(id int64) string {
	user, ok := c.users.Get(id)
	if !ok {
		return entity.UserKey(id)
	}
	return user.DisplayName(id, EscapeMarkdown)
}

// preview cuts s to at most n runes, marking the cut.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Callback data. Telegram limits it to 64 bytes.
const (
	cbAdmin           = "adm"
	cbGenerate        = "gc"
	cbGenerateOne     = "gc:1"
	cbGenerateFive    = "gc:5"
	cbGenerateCustom  = "gc:custom"
	cbCodes           = "cd"
	cbCodesActive     = "cd:active"
	cbCodesUsed       = "cd:used"
	cbCodesPrev       = "cd:prev"
	cbCodesNext       = "cd:next"
	cbNoop            = "noop"
	cbUsers           = "us:"
	cbBanned          = "bn"
	cbUnban           = "ub:"
	cbBroadcasts      = "bc"
	cbBroadcastNew    = "bc:new"
	cbBroadcastOpen   = "bo:"
	cbBroadcastEdit   = "be:"
	cbBroadcastDelete = "bd:"
	cbBroadcastResend = "br:"
	cbHome            = "home"
)

const (
	textDenied      = "❌ You are not allowed to use this function."
	textBack        = "🔙 Back"
	textAdminMenu   = "🔙 Admin menu"
	textBroadcasts  = "📢 Back to broadcasts"
	textGoneMessage = "❌ This broadcast no longer exists."
)

func backTo(data string) Keyboard {
	return Keyboard{Row(Button{Text: textBack, Data: data})}
}

// RecipientKeyboard is attached to every broadcast delivered to users.
func RecipientKeyboard() Keyboard {
	return Keyboard{Row(Button{Text: "🔄 Main menu", Data: cbHome})}
}

func adminMenu() Outgoing {
	return Outgoing{
		Text:      "⚙️ *Administration*\n\nChoose an action:",
		ParseMode: ParseMarkdown,
		Keyboard: Keyboard{
			Row(Button{Text: "🎫 Generate codes", Data: cbGenerate}),
			Row(Button{Text: "📜 Codes history", Data: cbCodes}),
			Row(Button{Text: "👥 Manage users", Data: cbUsers + "0"}),
			Row(Button{Text: "🚫 Banned users", Data: cbBanned}),
			Row(Button{Text: "📢 Broadcasts", Data: cbBroadcasts}),
		},
	}
}

func generateMenu(maxBatch int) Outgoing {
	return Outgoing{
		Text: "🎫 Access code generation\n\nChoose how many codes to generate:",
		Keyboard: Keyboard{
			Row(Button{Text: "1️⃣ One code", Data: cbGenerateOne}),
			Row(Button{Text: "5️⃣ Five codes", Data: cbGenerateFive}),
			Row(Button{Text: "🔢 Custom number (" + strconv.Itoa(maxBatch) + " max)", Data: cbGenerateCustom}),
			Row(Button{Text: textBack, Data: cbAdmin}),
		},
	}
}

func broadcastsMenu(items []store.BroadcastItem) Outgoing {
	keyboard := make(Keyboard, 0, len(items)+2)
	for _, item := range items {
		keyboard = append(keyboard, Row(Button{
			Text: "📢 " + preview(item.Broadcast.Content, 30),
			Data: cbBroadcastOpen + item.Id,
		}))
	}
	keyboard = append(keyboard,
		Row(Button{Text: "➕ New broadcast", Data: cbBroadcastNew}),
		Row(Button{Text: textBack, Data: cbAdmin}),
	)
	return Outgoing{
		Text:      "📢 *Broadcasts*\n\nSelect a broadcast to manage or create a new one.",
		ParseMode: ParseMarkdown,
		Keyboard:  keyboard,
	}
}
