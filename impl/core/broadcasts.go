package core

import (
	"fmt"
	"log/slog"

	"botadmin/entity"
	"botadmin/internal/store"
	"botadmin/lib/sl"
)

const mediaWithoutText = "Media without text"

// Report counts the outcome of one fan-out.
type Report struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

func (r Report) Total() int {
	return r.Success + r.Failed
}

func (r Report) render(title string) string {
	return fmt.Sprintf("%s\n\n📊 *Delivery report:*\n• Delivered: %d\n• Failed: %d\n• Total: %d",
		title, r.Success, r.Failed, r.Total())
}

// Broadcasts lists stored broadcasts in creation order.
func (c *Core) Broadcasts() []store.BroadcastItem {
	return c.broadcasts.List()
}

func (c *Core) DeleteBroadcast(id string) bool {
	return c.broadcasts.Delete(id)
}

// recipients returns every known user who is authorized and not excluded.
func (c *Core) recipients(exclude int64) []int64 {
	ids := make([]int64, 0)
	for _, id := range c.users.Ids() {
		if id == exclude {
			continue
		}
		if !c.access.IsAuthorized(id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// deliver sends one copy of b to userId.
func (c *Core) deliver(b *entity.Broadcast, userId int64) (int64, error) {
	out := Outgoing{Entities: b.Entities, ParseMode: b.ParseMode, Keyboard: RecipientKeyboard()}
	if b.IsPhoto() {
		out.Text = b.Caption
		return c.msg.SendPhoto(userId, b.FileId, out)
	}
	out.Text = b.Content
	return c.msg.SendText(userId, out)
}

// fanOut delivers b to every recipient and records the delivery ids.
func (c *Core) fanOut(id string, b *entity.Broadcast, recipients []int64) Report {
	var report Report
	for _, userId := range recipients {
		messageId, err := c.deliver(b, userId)
		if err != nil {
			report.Failed++
			c.log.With(slog.String("broadcast", id), sl.User(userId)).Warn("delivering broadcast", sl.Err(err))
			continue
		}
		c.broadcasts.RecordDelivery(id, userId, messageId)
		report.Success++
	}
	c.broadcasts.Save()
	return report
}

// editDeliveries first edits every recorded delivery in place, then sends the new content to
// authorized users who never received it. The admin is skipped in both passes.
func (c *Core) editDeliveries(id string, adminId int64) Report {
	var report Report
	b, ok := c.broadcasts.Get(id)
	if !ok {
		return report
	}

	out := Outgoing{Text: b.Content, Entities: b.Entities, ParseMode: b.ParseMode, Keyboard: RecipientKeyboard()}
	for _, key := range b.Recipients() {
		userId, err := entity.ParseUserKey(key)
		if err != nil || userId == adminId {
			continue
		}
		messageId := b.MessageIds[key]
		if b.IsPhoto() {
			err = c.msg.EditCaption(userId, messageId, out)
		} else {
			err = c.msg.EditText(userId, messageId, out)
		}
		if err != nil {
			report.Failed++
			c.log.With(slog.String("broadcast", id), sl.User(userId)).Warn("editing broadcast", sl.Err(err))
			continue
		}
		report.Success++
	}

	missing := make([]int64, 0)
	for _, userId := range c.recipients(adminId) {
		if !b.Delivered(userId) {
			missing = append(missing, userId)
		}
	}
	sent := c.fanOut(id, b, missing)
	report.Success += sent.Success
	report.Failed += sent.Failed
	return report
}

func (c *Core) startBroadcast(cb Callback) entity.State {
	c.sessions.update(cb.From.Id, func(s *session) {
		s.editingBroadcast = ""
		s.instructionMessage = cb.MessageId
	})
	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text: "📢 *New broadcast*\n\n" +
			"Send the message to broadcast to authorized users.\n" +
			"Text and photos are supported.",
		ParseMode: ParseMarkdown,
		Keyboard:  Keyboard{Row(Button{Text: "❌ Cancel", Data: cbAdmin})},
	})
	return entity.StateWaitingBroadcastMessage
}

func broadcastFrom(m Message) entity.Broadcast {
	content := m.Content()
	if content == "" {
		content = mediaWithoutText
	}
	b := entity.Broadcast{
		Content:  content,
		Type:     entity.BroadcastText,
		Entities: m.Entities,
	}
	if m.PhotoFileId != "" {
		b.Type = entity.BroadcastPhoto
		b.FileId = m.PhotoFileId
		b.Caption = m.Caption
	}
	return b
}

// SendBroadcast stores the admin's message as a broadcast and fans it out.
func (c *Core) SendBroadcast(m Message) (state entity.State) {
	defer c.guard("send broadcast", &state)
	state = entity.StateChoosing
	if !c.IsAdmin(m.From.Id) {
		c.send(m.ChatId, Outgoing{Text: textDenied})
		return
	}

	sess := c.sessions.get(m.From.Id)
	c.remove(m.ChatId, m.MessageId)
	c.remove(m.ChatId, sess.instructionMessage)
	c.sessions.reset(m.From.Id)

	broadcast := broadcastFrom(m)
	id := c.broadcasts.Create(broadcast)
	progress := c.send(m.ChatId, Outgoing{Text: "📤 *Sending broadcast...*", ParseMode: ParseMarkdown})

	report := c.fanOut(id, &broadcast, c.recipients(m.From.Id))
	c.log.With(
		slog.String("broadcast", id),
		slog.Int("success", report.Success),
		slog.Int("failed", report.Failed),
	).Info("broadcast sent")

	c.showReport(m.ChatId, progress, report.render("✅ *Broadcast sent!*"))
	return
}

func (c *Core) showReport(chatId, messageId int64, text string) {
	out := Outgoing{
		Text:      text,
		ParseMode: ParseMarkdown,
		Keyboard: Keyboard{
			Row(Button{Text: "📢 Manage broadcasts", Data: cbBroadcasts}),
			Row(Button{Text: textAdminMenu, Data: cbAdmin}),
		},
	}
	if messageId == 0 {
		c.send(chatId, out)
		return
	}
	c.edit(chatId, messageId, out)
}

func (c *Core) manageBroadcasts(cb Callback) entity.State {
	c.edit(cb.ChatId, cb.MessageId, broadcastsMenu(c.broadcasts.List()))
	return entity.StateChoosing
}

func (c *Core) broadcastGone(cb Callback) entity.State {
	c.edit(cb.ChatId, cb.MessageId, Outgoing{Text: textGoneMessage, Keyboard: backTo(cbBroadcasts)})
	return entity.StateChoosing
}

func (c *Core) openBroadcast(cb Callback, id string) entity.State {
	b, ok := c.broadcasts.Get(id)
	if !ok {
		return c.broadcastGone(cb)
	}
	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text: fmt.Sprintf("📢 *Broadcast management*\n\nCurrent message:\n%s\n\n📬 Delivered to %d users",
			EscapeMarkdown(preview(b.Content, 200)), len(b.MessageIds)),
		ParseMode: ParseMarkdown,
		Keyboard: Keyboard{
			Row(Button{Text: "✏️ Edit", Data: cbBroadcastEdit + id}),
			Row(Button{Text: "🔁 Resend", Data: cbBroadcastResend + id}),
			Row(Button{Text: "❌ Delete", Data: cbBroadcastDelete + id}),
			Row(Button{Text: textBack, Data: cbBroadcasts}),
		},
	})
	return entity.StateChoosing
}

func (c *Core) startBroadcastEdit(cb Callback, id string) entity.State {
	if _, ok := c.broadcasts.Get(id); !ok {
		return c.broadcastGone(cb)
	}
	c.sessions.update(cb.From.Id, func(s *session) {
		s.editingBroadcast = id
		s.instructionMessage = cb.MessageId
	})
	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text:      "✏️ *Edit broadcast*\n\nSend a new message to replace this broadcast.",
		ParseMode: ParseMarkdown,
		Keyboard:  Keyboard{Row(Button{Text: "🔙 Cancel", Data: cbBroadcastOpen + id})},
	})
	return entity.StateWaitingBroadcastEdit
}

// BroadcastEdit replaces the content of the broadcast being edited and updates its deliveries.
func (c *Core) BroadcastEdit(m Message) (state entity.State) {
	defer c.guard("edit broadcast", &state)
	state = entity.StateChoosing
	if !c.IsAdmin(m.From.Id) {
		c.send(m.ChatId, Outgoing{Text: textDenied})
		return
	}

	sess := c.sessions.get(m.From.Id)
	c.sessions.reset(m.From.Id)
	id := sess.editingBroadcast
	if _, ok := c.broadcasts.Get(id); id == "" || !ok {
		c.send(m.ChatId, Outgoing{Text: textGoneMessage, Keyboard: backTo(cbBroadcasts)})
		return
	}

	c.remove(m.ChatId, m.MessageId)
	c.remove(m.ChatId, sess.instructionMessage)

	content := m.Content()
	if content == "" {
		content = mediaWithoutText
	}
	c.broadcasts.UpdateContent(id, content, m.Entities)
	report := c.editDeliveries(id, m.From.Id)
	c.log.With(
		slog.String("broadcast", id),
		slog.Int("success", report.Success),
		slog.Int("failed", report.Failed),
	).Info("broadcast edited")

	c.send(m.ChatId, broadcastsMenu(c.broadcasts.List()))
	confirmation := c.send(m.ChatId, Outgoing{
		Text: fmt.Sprintf("✅ Broadcast updated (%d delivered, %d failed, %d total)\n\n📝 *Content:*\n%s",
			report.Success, report.Failed, report.Total(), EscapeMarkdown(content)),
		ParseMode: ParseMarkdown,
	})
	c.deleteLater(m.ChatId, confirmation)
	return
}

// resendBroadcast delivers a fresh copy to every authorized user except the admin.
// The new message ids replace the recorded ones.
func (c *Core) resendBroadcast(cb Callback, id string) entity.State {
	b, ok := c.broadcasts.Get(id)
	if !ok {
		return c.broadcastGone(cb)
	}
	c.edit(cb.ChatId, cb.MessageId, Outgoing{Text: "📤 *Resending broadcast...*", ParseMode: ParseMarkdown})

	report := c.fanOut(id, b, c.recipients(cb.From.Id))
	c.log.With(
		slog.String("broadcast", id),
		slog.Int("success", report.Success),
		slog.Int("failed", report.Failed),
	).Info("broadcast resent")

	c.showReport(cb.ChatId, cb.MessageId, report.render("✅ *Broadcast resent!*"))
	return entity.StateChoosing
}

func (c *Core) deleteBroadcast(cb Callback, id string) entity.State {
	c.broadcasts.Delete(id)
	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text:      "✅ *Broadcast deleted.*",
		ParseMode: ParseMarkdown,
		Keyboard:  Keyboard{Row(Button{Text: textBroadcasts, Data: cbBroadcasts})},
	})
	return entity.StateChoosing
}
