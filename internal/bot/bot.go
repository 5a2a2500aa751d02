// Package bot adapts Telegram updates to conversation events and replies.
//
// It is the transport edge of the system: telebot delivers parsed updates,
// the adapter converts them to models.Event, hands them to the flow
// controller, and renders the returned models.Reply as Telegram messages with
// inline keyboards. Each update is handled on its own goroutine by telebot,
// so one user's slow upstream call never blocks another user's dialog.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"fishshop-bot/internal/models"
)

// PollTimeout is the long-poll timeout for fetching Telegram updates.
const PollTimeout = 10 * time.Second

// HandleTimeout bounds the processing of a single update, covering the
// several upstream round trips a screen render may need.
const HandleTimeout = time.Minute

// EventHandler processes one chat event and produces the reply to send.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev models.Event) (models.Reply, error)
}

// Sender sends messages to a Telegram recipient. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Bot is the Telegram transport adapter.
type Bot struct {
	tb      *tele.Bot
	handler EventHandler
}

// New creates the bot and registers the update handlers.
func New(token string, handler EventHandler) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: PollTimeout},
	})
	if err != nil {
		return nil, err
	}

	b := &Bot{tb: tb, handler: handler}
	tb.Handle("/start", b.onCommand("start"))
	tb.Handle("/cancel", b.onCommand("cancel"))
	tb.Handle(tele.OnText, b.onText)
	tb.Handle(tele.OnCallback, b.onCallback)
	return b, nil
}

// Sender exposes the underlying bot for out-of-band sends, e.g. admin
// notifications.
func (b *Bot) Sender() Sender { return b.tb }

// Start begins long polling and blocks until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		slog.Info("bot: stopping")
		b.tb.Stop()
	}()
	slog.Info("bot: starting long polling")
	b.tb.Start()
}

func (b *Bot) onCommand(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.handle(c, models.Event{
			Kind:     models.EventCommand,
			Command:  name,
			UserID:   c.Sender().ID,
			UserName: displayName(c.Sender()),
		})
	}
}

func (b *Bot) onText(c tele.Context) error {
	return b.handle(c, models.Event{
		Kind:     models.EventText,
		Text:     c.Text(),
		UserID:   c.Sender().ID,
		UserName: displayName(c.Sender()),
	})
}

func (b *Bot) onCallback(c tele.Context) error {
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		slog.Debug("bot: callback ack failed", "error", err)
	}
	return b.handle(c, models.Event{
		Kind:     models.EventCallback,
		Data:     callbackData(c.Callback()),
		UserID:   c.Sender().ID,
		UserName: displayName(c.Sender()),
	})
}

// handle runs one event through the controller and sends the reply.
func (b *Bot) handle(c tele.Context, ev models.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), HandleTimeout)
	defer cancel()

	reply, err := b.handler.HandleEvent(ctx, ev)
	if err != nil {
		slog.Error("bot: event handling failed", "user_id", ev.UserID, "kind", ev.Kind, "error", err)
	}
	if reply.Empty() {
		return nil
	}
	return b.sendReply(c, reply)
}

func (b *Bot) sendReply(c tele.Context, reply models.Reply) error {
	markup := inlineMarkup(reply.Buttons)

	var what interface{} = reply.Text
	if reply.PhotoURL != "" {
		what = &tele.Photo{File: tele.FromURL(reply.PhotoURL), Caption: reply.Text}
	}

	if markup != nil {
		return c.Send(what, markup)
	}
	return c.Send(what)
}

// inlineMarkup converts reply buttons to a Telegram inline keyboard.
func inlineMarkup(buttons [][]models.Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	keyboard := make([][]tele.InlineButton, 0, len(buttons))
	for _, row := range buttons {
		teleRow := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			teleRow = append(teleRow, tele.InlineButton{Text: btn.Label, Data: btn.Data})
		}
		keyboard = append(keyboard, teleRow)
	}
	return &tele.ReplyMarkup{InlineKeyboard: keyboard}
}

// callbackData extracts the opaque payload. Buttons bound through telebot's
// typed API carry a "\f<unique>|<data>" envelope; plain inline buttons carry
// the data as-is.
func callbackData(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	data := cb.Data
	if strings.HasPrefix(data, "\f") {
		if _, payload, found := strings.Cut(data[1:], "|"); found {
			return payload
		}
		return data[1:]
	}
	return data
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		name = u.Username
	}
	return name
}
