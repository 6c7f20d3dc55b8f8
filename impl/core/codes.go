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

var ErrInvalidCount = errors.New("invalid number of codes")

// GenerateCodes issues count codes on behalf of issuerId; count must be within 1..MaxBatch.
func (c *Core) GenerateCodes(issuerId int64, issuerName string, count int) ([]entity.AccessCode, error) {
	if count < 1 || count > c.opts.MaxBatch {
		return nil, fmt.Errorf("%w: %d, allowed 1..%d", ErrInvalidCount, count, c.opts.MaxBatch)
	}
	codes := make([]entity.AccessCode, 0, count)
	for i := 0; i < count; i++ {
		code, expiration, err := c.access.GenerateCode(issuerId, issuerName)
		if err != nil {
			return codes, err
		}
		codes = append(codes, entity.AccessCode{Code: code, Expiration: expiration, CreatedBy: issuerId})
	}
	return codes, nil
}

// Codes lists used or active codes.
func (c *Core) Codes(used bool) []entity.AccessCode {
	if used {
		return c.access.ListUsed()
	}
	return c.access.ListActive()
}

// PurgeExpiredCodes drops every expired code and returns how many were removed.
func (c *Core) PurgeExpiredCodes() int {
	return c.access.PurgeExpired()
}

func renderGenerated(codes []entity.AccessCode) string {
	var sb strings.Builder
	sb.WriteString("🎫 *Generated codes:*\n\n")
	for _, code := range codes {
		sb.WriteString("*Temporary access code:*\n")
		sb.WriteString(fmt.Sprintf("`%s`\n", code.Code))
		sb.WriteString("⚠️ Single use\n")
		sb.WriteString(fmt.Sprintf("⏰ Expires %s\n\n", clock.Display(code.Expiration)))
	}
	return sb.String()
}

func (c *Core) issue(actor Actor, count int) (Outgoing, error) {
	codes, err := c.GenerateCodes(actor.Id, actor.Username, count)
	if err != nil {
		return Outgoing{}, err
	}
	c.log.With(sl.User(actor.Id), slog.Int("count", len(codes))).Info("codes issued")
	return Outgoing{
		Text:      renderGenerated(codes),
		ParseMode: ParseMarkdown,
		Keyboard:  backTo(cbGenerate),
	}, nil
}

func (c *Core) generateCodes(cb Callback, count int) entity.State {
	out, err := c.issue(cb.From, count)
	if err != nil {
		c.log.With(sl.User(cb.From.Id)).Error("generating codes", sl.Err(err))
		c.edit(cb.ChatId, cb.MessageId, Outgoing{Text: "❌ Could not generate codes.", Keyboard: backTo(cbGenerate)})
		return entity.StateChoosing
	}
	c.edit(cb.ChatId, cb.MessageId, out)
	return entity.StateChoosing
}

func (c *Core) customCodes(cb Callback) entity.State {
	c.edit(cb.ChatId, cb.MessageId, Outgoing{
		Text:     fmt.Sprintf("🔢 Custom generation\n\nSend the number of codes to generate (maximum %d):", c.opts.MaxBatch),
		Keyboard: backTo(cbGenerate),
	})
	return entity.StateWaitingCodeNumber
}

// CodeNumberInput handles the number sent after a custom generation request.
// Invalid input re-prompts and keeps the flow waiting.
func (c *Core) CodeNumberInput(m Message) (state entity.State) {
	defer c.guard("code number", &state)
	if !c.IsAdmin(m.From.Id) {
		c.send(m.ChatId, Outgoing{Text: textDenied})
		return entity.StateChoosing
	}

	count, err := strconv.Atoi(strings.TrimSpace(m.Text))
	if err != nil || count < 1 || count > c.opts.MaxBatch {
		c.send(m.ChatId, Outgoing{
			Text:     fmt.Sprintf("❌ Please enter a valid number between 1 and %d.", c.opts.MaxBatch),
			Keyboard: backTo(cbGenerate),
		})
		return entity.StateWaitingCodeNumber
	}

	c.remove(m.ChatId, m.MessageId)
	out, err := c.issue(m.From, count)
	if err != nil {
		c.log.With(sl.User(m.From.Id)).Error("generating codes", sl.Err(err))
		c.send(m.ChatId, Outgoing{Text: "❌ Could not generate codes.", Keyboard: backTo(cbGenerate)})
		return entity.StateChoosing
	}
	c.send(m.ChatId, out)
	return entity.StateChoosing
}

func (c *Core) renderHistory(adminId int64) Outgoing {
	sess := c.sessions.get(adminId)
	codes := c.Codes(sess.showUsed)
	page := paginate.New(len(codes), sess.codesPage, paginate.Size)
	c.sessions.update(adminId, func(s *session) { s.codesPage = page.Index })

	var sb strings.Builder
	if len(codes) == 0 {
		sb.WriteString("📜 *No codes to show*")
	} else if sess.showUsed {
		sb.WriteString("📜 *Used codes:*\n\n")
	} else {
		sb.WriteString("📜 *Active codes:*\n\n")
	}
	for _, code := range paginate.Slice(codes, page) {
		sb.WriteString(fmt.Sprintf("`%s`\n", code.Code))
		if sess.showUsed && code.UsedBy != nil {
			sb.WriteString(fmt.Sprintf("✅ Used by: %s (`%d`)\n\n", c.displayName(code.UsedBy.Id), code.UsedBy.Id))
			continue
		}
		sb.WriteString(fmt.Sprintf("⏰ Expires %s\n\n", clock.Display(code.Expiration)))
	}

	activeLabel, usedLabel := "📍 Active codes", "Used codes"
	if sess.showUsed {
		activeLabel, usedLabel = "Active codes", "📍 Used codes"
	}
	keyboard := Keyboard{Row(
		Button{Text: activeLabel, Data: cbCodesActive},
		Button{Text: usedLabel, Data: cbCodesUsed},
	)}
	if page.Multiple() {
		keyboard = append(keyboard, navigation(page, cbCodesPrev, cbCodesNext))
	}
	keyboard = append(keyboard, Row(Button{Text: textBack, Data: cbAdmin}))

	return Outgoing{Text: sb.String(), ParseMode: ParseMarkdown, Keyboard: keyboard}
}

func navigation(page paginate.Page, prev, next string) []Button {
	row := make([]Button, 0, 3)
	if page.HasPrev() {
		row = append(row, Button{Text: "◀️", Data: prev})
	}
	row = append(row, Button{Text: page.Label(), Data: cbNoop})
	if page.HasNext() {
		row = append(row, Button{Text: "▶️", Data: next})
	}
	return row
}

func (c *Core) codesHistory(cb Callback) entity.State {
	c.edit(cb.ChatId, cb.MessageId, c.renderHistory(cb.From.Id))
	return entity.StateChoosing
}

func (c *Core) toggleCodes(cb Callback, used bool) entity.State {
	c.sessions.update(cb.From.Id, func(s *session) {
		s.showUsed = used
		s.codesPage = 0
	})
	return c.codesHistory(cb)
}

func (c *Core) codesPage(cb Callback, delta int) entity.State {
	c.sessions.update(cb.From.Id, func(s *session) {
		s.codesPage += delta
	})
	return c.codesHistory(cb)
}

// Redeem exchanges an access code for authorization.
func (c *Core) Redeem(m Message, code string) (state entity.State) {
	defer c.guard("redeem", &state)
	state = entity.StateChoosing
	code = strings.TrimSpace(code)
	if code == "" {
		c.send(m.ChatId, Outgoing{Text: "❌ Usage: /code <CODE>"})
		return
	}

	id := m.From.Id
	log := c.log.With(sl.User(id))
	switch {
	case c.access.IsBanned(id):
		log.Info("banned user tried to redeem a code")
		c.send(m.ChatId, Outgoing{Text: "🚫 Your access to this bot has been revoked."})
	case c.IsAuthorized(id):
		c.send(m.ChatId, Outgoing{Text: "✅ You already have access.", Keyboard: RecipientKeyboard()})
	case c.access.MarkUsed(code, id, m.From.Username):
		log.Info("access granted by code")
		c.send(m.ChatId, Outgoing{Text: "✅ Access granted! Welcome.", Keyboard: RecipientKeyboard()})
	default:
		c.send(m.ChatId, Outgoing{Text: "❌ This code is invalid, expired or already used."})
	}
	return
}
