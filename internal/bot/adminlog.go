// Package bot: admin-chat forwarding of error-level log records.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// AdminLogHandler is a slog.Handler that passes every record to the wrapped
// handler and additionally forwards error-level records to an admin Telegram
// chat, so upstream failures are noticed without tailing logs.
type AdminLogHandler struct {
	inner  slog.Handler
	sender Sender
	chatID tele.ChatID
}

// NewAdminLogHandler wraps inner with admin-chat forwarding.
func NewAdminLogHandler(inner slog.Handler, sender Sender, adminChatID int64) *AdminLogHandler {
	return &AdminLogHandler{inner: inner, sender: sender, chatID: tele.ChatID(adminChatID)}
}

// Enabled defers to the wrapped handler.
func (h *AdminLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle logs the record and forwards it to the admin chat when it is an
// error. Forwarding failures are dropped: reporting them here would recurse
// into this handler.
func (h *AdminLogHandler) Handle(ctx context.Context, rec slog.Record) error {
	err := h.inner.Handle(ctx, rec)
	if rec.Level >= slog.LevelError {
		_, _ = h.sender.Send(h.chatID, formatRecord(rec))
	}
	return err
}

// WithAttrs returns a handler whose wrapped handler carries the attributes.
func (h *AdminLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AdminLogHandler{inner: h.inner.WithAttrs(attrs), sender: h.sender, chatID: h.chatID}
}

// WithGroup returns a handler whose wrapped handler carries the group.
func (h *AdminLogHandler) WithGroup(name string) slog.Handler {
	return &AdminLogHandler{inner: h.inner.WithGroup(name), sender: h.sender, chatID: h.chatID}
}

func formatRecord(rec slog.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", rec.Level, rec.Message)
	rec.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&sb, "\n%s=%v", a.Key, a.Value)
		return true
	})
	return sb.String()
}
