package bot

import (
	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
)

// register records the profile of whoever produced the update and refreshes their command menu.
func (t *TgBot) register(_ *tgbotapi.Bot, ctx *ext.Context) error {
	sender := ctx.EffectiveUser
	if sender == nil || sender.IsBot {
		return nil
	}
	t.core.RegisterUser(actorOf(sender))
	if ctx.EffectiveChat != nil && ctx.EffectiveChat.Type == "private" {
		t.syncMenu(sender.Id)
	}
	return nil
}

func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	m := messageOf(ctx)
	state := t.core.Start(m)
	t.syncMenu(m.From.Id)
	return transition(state)
}

// code redeems the code given as the command argument.
func (t *TgBot) code(_ *tgbotapi.Bot, ctx *ext.Context) error {
	m := messageOf(ctx)
	code := ""
	if len(m.Args) > 0 {
		code = m.Args[0]
	}
	state := t.core.Redeem(m, code)
	t.syncMenu(m.From.Id)
	return transition(state)
}

func (t *TgBot) admin(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.AdminMenu(messageOf(ctx)))
}

func (t *TgBot) ban(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.BanCommand(messageOf(ctx)))
}

func (t *TgBot) unban(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.UnbanCommand(messageOf(ctx)))
}

func (t *TgBot) callback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.CallbackQuery == nil {
		return nil
	}
	return transition(t.core.HandleCallback(callbackOf(ctx.CallbackQuery)))
}

func (t *TgBot) codeNumber(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.CodeNumberInput(messageOf(ctx)))
}

func (t *TgBot) broadcast(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.SendBroadcast(messageOf(ctx)))
}

func (t *TgBot) broadcastEdit(_ *tgbotapi.Bot, ctx *ext.Context) error {
	return transition(t.core.BroadcastEdit(messageOf(ctx)))
}
