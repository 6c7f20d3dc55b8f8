package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Notifier delivers a plain text notice to the bot admins.
type Notifier interface {
	NotifyAdmins(msg string, level slog.Level)
}

// TelegramHandler is a slog.Handler that also forwards records at or above
// minLevel to the admins through the Notifier.
type TelegramHandler struct {
	handler  slog.Handler
	notifier Notifier
	minLevel slog.Level
	attrs    []slog.Attr
	group    string
}

func NewTelegramHandler(handler slog.Handler, notifier Notifier, minLevel slog.Level) *TelegramHandler {
	return &TelegramHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
		attrs:    make([]slog.Attr, 0),
	}
}

// Enabled passes records the wrapped handler wants plus everything the admins should see.
func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level) || (h.notifier != nil && level >= h.minLevel)
}

func (h *TelegramHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	if h.handler.Enabled(ctx, record.Level) {
		err = h.handler.Handle(ctx, record)
	}
	if h.notifier != nil && record.Level >= h.minLevel {
		h.notifier.NotifyAdmins(h.format(record), record.Level)
	}
	return err
}

func (h *TelegramHandler) format(record slog.Record) string {
	var sb strings.Builder
	sb.WriteString(record.Level.String())
	sb.WriteString(" ")
	if h.group != "" {
		sb.WriteString(h.group)
		sb.WriteString(".")
	}
	sb.WriteString(record.Message)
	for _, attr := range h.attrs {
		sb.WriteString(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		sb.WriteString(fmt.Sprintf("\n%s: %v", attr.Key, attr.Value))
		return true
	})
	return sb.String()
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &TelegramHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    newAttrs,
		group:    h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &TelegramHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    h.attrs,
		group:    group,
	}
}
