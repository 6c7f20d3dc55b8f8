package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"botadmin/entity"
	"botadmin/lib/clock"
	"botadmin/lib/paginate"
	"botadmin/lib/sl"
)

type UserStatus string

const (
	StatusAuthorized UserStatus = "authorized"
	StatusPending    UserStatus = "pending"
	StatusBanned     UserStatus = "banned"
)

var (
	ErrInvalidUser   = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
	ErrProtectedUser = errors.New("admins cannot be banned")
)

// UserEntry is a known user with its access status.
type UserEntry struct {
	Id     int64      `json:"id"`
	Status UserStatus `json:"status"`
	entity.User
}

func (s UserStatus) marker() string {
	switch s {
	case StatusAuthorized:
		return "✅"
	case StatusBanned:
		return "🚫"
	default:
		return "⏳"
	}
}

// Users lists known users ordered authorized, pending, banned; ids ascending within a group.
func (c *Core) Users() []UserEntry {
	doc := c.access.Snapshot()
	var authorized, pending, banned []UserEntry
	for _, id := range c.users.Ids() {
		user, _ := c.users.Get(id)
		entry := UserEntry{Id: id, User: user}
		switch {
		case entity.Contains(doc.AuthorizedUsers, id):
			entry.Status = StatusAuthorized
			authorized = append(authorized, entry)
		case entity.Contains(doc.BannedUsers, id):
			entry.Status = StatusBanned
			banned = append(banned, entry)
		default:
			entry.Status = StatusPending
			pending = append(pending, entry)
		}
	}
	entries := make([]UserEntry, 0, len(authorized)+len(pending)+len(banned))
	entries = append(entries, authorized...)
	entries = append(entries, pending...)
	return append(entries, banned...)
}

// AccessSnapshot returns the authorized and banned sets with all code records.
func (c *Core) AccessSnapshot() entity.AccessDocument {
	return c.access.Snapshot()
}

// BanUser bans id; admins are protected.
func (c *Core) BanUser(id int64) error {
	if id <= 0 {
		return ErrInvalidUser
	}
	if c.IsAdmin(id) {
		return ErrProtectedUser
	}
	if !c.access.Ban(id) {
		return fmt.Errorf("ban %d failed", id)
	}
	return nil
}

func (c *Core) UnbanUser(id int64) error {
	if id <= 0 {
		return ErrInvalidUser
	}
	if !c.access.Unban(id) {
		return fmt.Errorf("unban %d failed", id)
	}
	return nil
}

// resolveUser accepts a numeric id or an @username known to the users store.
func (c *Core) resolveUser(target string) (int64, error) {
	target = strings.TrimSpace(target)
	if strings.HasPrefix(target, "@") {
		id, ok := c.users.FindByUsername(target)
		if !ok {
			return 0, ErrUserNotFound
		}
		return id, nil
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUser
	}
	return id, nil
}

func (c *Core) userManagement(cb Callback, index int) entity.State {
	doc := c.access.Snapshot()
	entries := c.Users()
	pendingCount := 0
	for _, e := range entries {
		if e.Status == StatusPending {
			pendingCount++
		}
	}
	page := paginate.New(len(entries), index, paginate.Size)

	var sb strings.Builder
	sb.WriteString("👥 *User management*\n\n")
	sb.WriteString(fmt.Sprintf("✅ Authorized users: %d\n", len(doc.AuthorizedUsers)))
	sb.WriteString(fmt.Sprintf("⏳ Pending users: %d\n", pendingCount))
	sb.WriteString(fmt.Sprintf("🚫 Banned users: %d\n", len(doc.BannedUsers)))
	if page.Multiple() {
		sb.WriteString(fmt.Sprintf("Page %s\n", page.Label()))
	}
	sb.WriteString("\n")

	if len(entries) == 0 {
		sb.WriteString("No registered users.")
	}
	for _, e := range paginate.Slice(entries, page) {
		seen := "never"
		if e.LastSeen != "" {
			seen = clock.DisplaySeen(e.LastSeen)
		}
		sb.WriteString(fmt.Sprintf("%s %s (`%d`)\n", e.Status.marker(), e.DisplayName(e.Id, EscapeMarkdown), e.Id))
		sb.WriteString(fmt.Sprintf("  └ Last seen: %s\n", seen))
	}

	keyboard := Keyboard{}
	if page.Multiple() {
		keyboard = append(keyboard, navigation(page,
			cbUsers+strconv.Itoa(page.Index-1),
			cbUsers+strconv.Itoa(page.Index+1),
		))
	}
	keyboard = append(keyboard,
		Row(Button{Text: "🚫 Banned users", Data: cbBanned}),
		Row(Button{Text: textBack, Data: cbAdmin}),
	)

	c.edit(cb.ChatId, cb.MessageId, Outgoing{Text: sb.String(), ParseMode: ParseMarkdown, Keyboard: keyboard})
	return entity.StateChoosing
}

func (c *Core) renderBanned() Outgoing {
	banned := c.access.Snapshot().BannedUsers

	var sb strings.Builder
	sb.WriteString("🚫 *Banned users*\n\n")
	back := Row(Button{Text: textBack, Data: cbUsers + "0"})
	if len(banned) == 0 {
		sb.WriteString("No banned users.")
		return Outgoing{Text: sb.String(), ParseMode: ParseMarkdown, Keyboard: Keyboard{back}}
	}

	sb.WriteString("Select a user to unban:\n\n")
	keyboard := make(Keyboard, 0, len(banned)+1)
	for _, id := range banned {
		sb.WriteString(fmt.Sprintf("• %s (`%d`)\n", c.displayName(id), id))
		plain := entity.UserKey(id)
		if user, ok := c.users.Get(id); ok {
			plain = user.DisplayName(id, nil)
		}
		keyboard = append(keyboard, Row(Button{Text: "🔓 Unban " + plain, Data: cbUnban + entity.UserKey(id)}))
	}
	keyboard = append(keyboard, back)
	return Outgoing{Text: sb.String(), ParseMode: ParseMarkdown, Keyboard: keyboard}
}

func (c *Core) bannedUsers(cb Callback) entity.State {
	c.edit(cb.ChatId, cb.MessageId, c.renderBanned())
	return entity.StateChoosing
}

// unbanCallback confirms the unban, then re-renders the banned list after a delay.
func (c *Core) unbanCallback(cb Callback, arg string) entity.State {
	id, err := entity.ParseUserKey(arg)
	if err == nil {
		err = c.UnbanUser(id)
	}
	if err != nil {
		c.log.With(sl.User(cb.From.Id), slog.String("target", arg)).Warn("unban from list", sl.Err(err))
		c.edit(cb.ChatId, cb.MessageId, Outgoing{Text: "❌ Could not unban this user.", Keyboard: backTo(cbBanned)})
		return entity.StateChoosing
	}

	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text:      fmt.Sprintf("✅ User %s unbanned.", c.displayName(id)),
		ParseMode: ParseMarkdown,
	})
	c.later(c.opts.UnbanDelay, "banned list", func() error {
		return c.msg.EditText(cb.ChatId, cb.MessageId, c.renderBanned())
	})
	return entity.StateChoosing
}

func (c *Core) userCommand(m Message, usage string, apply func(int64) error, done string) entity.State {
	c.remove(m.ChatId, m.MessageId)
	if !c.IsAdmin(m.From.Id) {
		c.reply(m.ChatId, textDenied)
		return entity.StateChoosing
	}
	if len(m.Args) == 0 {
		c.reply(m.ChatId, usage)
		return entity.StateChoosing
	}

	id, err := c.resolveUser(m.Args[0])
	if err == nil {
		err = apply(id)
	}
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.reply(m.ChatId, "❌ User not found.")
	case errors.Is(err, ErrInvalidUser):
		c.reply(m.ChatId, usage)
	case errors.Is(err, ErrProtectedUser):
		c.reply(m.ChatId, "❌ Admins cannot be banned.")
	case err != nil:
		c.log.With(sl.User(m.From.Id)).Error("user command", sl.Err(err))
		c.reply(m.ChatId, "❌ An error occurred.")
	default:
		c.reply(m.ChatId, fmt.Sprintf("✅ User %d %s.", id, done))
	}
	return entity.StateChoosing
}

// BanCommand handles /ban <id|@username>. The command and the notice are removed from the chat.
func (c *Core) BanCommand(m Message) (state entity.State) {
	defer c.guard("ban", &state)
	return c.userCommand(m, "❌ Usage: /ban <user_id> or /ban @username", c.BanUser, "banned")
}

// UnbanCommand handles /unban <id|@username>.
func (c *Core) UnbanCommand(m Message) (state entity.State) {
	defer c.guard("unban", &state)
	return c.userCommand(m, "❌ Usage: /unban <user_id> or /unban @username", c.UnbanUser, "unbanned")
}
