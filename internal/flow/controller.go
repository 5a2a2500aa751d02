// Package flow implements the conversation state machine for fishshop-bot.
//
// The controller maps (current session state, incoming event) to a handler
// that calls the commerce client and produces a reply plus the next state.
// Handlers own no business logic beyond orchestration; a failed handler
// leaves the session in its pre-event state so re-sending the same event is
// safe.
package flow

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"fishshop-bot/internal/models"
	"fishshop-bot/internal/store"
)

// Commerce is the subset of the commerce client the handlers orchestrate.
type Commerce interface {
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	GetProductPrice(ctx context.Context, sku string) (models.Price, error)
	GetProductStock(ctx context.Context, productID string) (models.Stock, error)
	GetProductPhotoLink(ctx context.Context, imageID string) (string, error)
	GetCartItems(ctx context.Context, cartID string) ([]models.CartItem, error)
	GetCartCost(ctx context.Context, cartID string) (string, error)
	AddProductToCart(ctx context.Context, sku string, quantity int, cartID string) error
	RemoveProductFromCart(ctx context.Context, cartID, itemID string) error
	CreateCustomer(ctx context.Context, email, name string) (models.Customer, error)
}

// Controller routes chat events through the per-user state machine.
type Controller struct {
	store    store.Store
	commerce Commerce
}

// NewController creates a conversation controller.
func NewController(st store.Store, commerce Commerce) *Controller {
	return &Controller{store: st, commerce: commerce}
}

// HandleEvent processes one inbound event and returns the reply to send.
// On handler failure the session is not saved and a generic apology reply is
// returned alongside the error, which the transport logs.
func (c *Controller) HandleEvent(ctx context.Context, ev models.Event) (models.Reply, error) {
	if ev.Kind == models.EventCommand {
		switch ev.Command {
		case "start":
			return c.startDialog(ctx, ev)
		case "cancel":
			if err := c.store.DeleteSession(ctx, ev.UserID); err != nil {
				return apologyReply(), fmt.Errorf("cancel dialog: %w", err)
			}
			slog.Info("flow: dialog cancelled", "user_id", ev.UserID)
			return models.Reply{Text: textFarewell}, nil
		}
	}

	session, err := c.store.GetSession(ctx, ev.UserID)
	if err != nil {
		return apologyReply(), fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		s := newSession(ev.UserID)
		session = &s
	}

	reply, next, err := c.dispatch(ctx, *session, ev)
	if err != nil {
		slog.Error("flow: handler failed", "user_id", ev.UserID, "state", session.State, "error", err)
		return apologyReply(), fmt.Errorf("handle event in state %s: %w", session.State, err)
	}

	if next == models.StateEnded {
		if err := c.store.DeleteSession(ctx, ev.UserID); err != nil {
			return apologyReply(), fmt.Errorf("end dialog: %w", err)
		}
		return reply, nil
	}

	session.State = next
	session.UpdatedAt = time.Now()
	if err := c.store.SaveSession(ctx, *session); err != nil {
		return apologyReply(), fmt.Errorf("save session: %w", err)
	}
	return reply, nil
}

// startDialog resets the user's session to the menu and renders it.
func (c *Controller) startDialog(ctx context.Context, ev models.Event) (models.Reply, error) {
	reply, err := c.renderMenu(ctx)
	if err != nil {
		return apologyReply(), fmt.Errorf("start dialog: %w", err)
	}
	session := newSession(ev.UserID)
	if err := c.store.SaveSession(ctx, session); err != nil {
		return apologyReply(), fmt.Errorf("start dialog: %w", err)
	}
	return reply, nil
}

// dispatch routes one event by session state. An event with no matching
// transition is a no-op: empty reply, unchanged state, no error.
func (c *Controller) dispatch(ctx context.Context, session models.Session, ev models.Event) (models.Reply, models.State, error) {
	switch session.State {
	case models.StateMenu:
		return c.handleMenu(ctx, session, ev)
	case models.StateDetail, models.StateQuantity:
		return c.handleProduct(ctx, session, ev)
	case models.StateCart:
		return c.handleCart(ctx, session, ev)
	case models.StateEmail:
		return c.handleEmail(ctx, session, ev)
	}
	return models.Reply{}, session.State, nil
}

// handleMenu awaits a product selection on the menu screen.
func (c *Controller) handleMenu(ctx context.Context, session models.Session, ev models.Event) (models.Reply, models.State, error) {
	if ev.Kind == models.EventCallback && strings.HasPrefix(ev.Data, productPrefix) {
		productID := strings.TrimPrefix(ev.Data, productPrefix)
		reply, err := c.renderDetail(ctx, productID)
		if err != nil {
			return models.Reply{}, session.State, err
		}
		return reply, models.StateDetail, nil
	}
	return models.Reply{}, session.State, nil
}

// handleProduct serves the detail screen and repeated quantity additions.
func (c *Controller) handleProduct(ctx context.Context, session models.Session, ev models.Event) (models.Reply, models.State, error) {
	if ev.Kind != models.EventCallback {
		return models.Reply{}, session.State, nil
	}
	switch {
	case strings.HasPrefix(ev.Data, quantityPrefix):
		sku, quantity, ok := parseQuantityData(ev.Data)
		if !ok {
			return models.Reply{}, session.State, nil
		}
		if err := c.commerce.AddProductToCart(ctx, sku, quantity, session.CartID); err != nil {
			return models.Reply{}, session.State, err
		}
		slog.Info("flow: product added to cart", "user_id", session.UserID, "sku", sku, "quantity", quantity)
		return models.Reply{Text: fmt.Sprintf(textAddedToCart, quantity)}, models.StateQuantity, nil
	case ev.Data == callbackBack:
		reply, err := c.renderMenu(ctx)
		if err != nil {
			return models.Reply{}, session.State, err
		}
		return reply, models.StateMenu, nil
	case ev.Data == callbackCart:
		reply, err := c.renderCart(ctx, session.CartID)
		if err != nil {
			return models.Reply{}, session.State, err
		}
		return reply, models.StateCart, nil
	}
	return models.Reply{}, session.State, nil
}

// handleCart serves the cart screen: line removal, checkout, back.
func (c *Controller) handleCart(ctx context.Context, session models.Session, ev models.Event) (models.Reply, models.State, error) {
	if ev.Kind != models.EventCallback {
		return models.Reply{}, session.State, nil
	}
	switch {
	case strings.HasPrefix(ev.Data, removePrefix):
		itemID := strings.TrimPrefix(ev.Data, removePrefix)
		if err := c.commerce.RemoveProductFromCart(ctx, session.CartID, itemID); err != nil {
			return models.Reply{}, session.State, err
		}
		reply, err := c.renderCart(ctx, session.CartID)
		if err != nil {
			return models.Reply{}, session.State, err
		}
		return reply, models.StateCart, nil
	case ev.Data == callbackBack:
		reply, err := c.renderMenu(ctx)
		if err != nil {
			return models.Reply{}, session.State, err
		}
		return reply, models.StateMenu, nil
	case ev.Data == callbackCheckout:
		return models.Reply{Text: textEmailPrompt}, models.StateEmail, nil
	}
	return models.Reply{}, session.State, nil
}

// handleEmail validates the free-text email and completes the order.
// Malformed input re-prompts without advancing state.
func (c *Controller) handleEmail(ctx context.Context, session models.Session, ev models.Event) (models.Reply, models.State, error) {
	if ev.Kind != models.EventText {
		return models.Reply{}, session.State, nil
	}

	email := strings.TrimSpace(ev.Text)
	if !validEmail(email) {
		return models.Reply{Text: textEmailInvalid}, session.State, nil
	}

	name := ev.UserName
	if name == "" {
		name = strconv.FormatInt(session.UserID, 10)
	}
	customer, err := c.commerce.CreateCustomer(ctx, email, name)
	if err != nil {
		return models.Reply{}, session.State, err
	}
	slog.Info("flow: customer created", "user_id", session.UserID, "customer_id", customer.ID)
	return models.Reply{Text: fmt.Sprintf(textOrderConfirmed, email)}, models.StateEnded, nil
}

// validEmail checks the address syntax. The parsed address must round-trip
// to the input so display-name forms like "A <a@b.com>" are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func newSession(userID int64) models.Session {
	return models.Session{
		UserID:    userID,
		State:     models.StateMenu,
		CartID:    strconv.FormatInt(userID, 10),
		UpdatedAt: time.Now(),
	}
}

// parseQuantityData splits "qty:<sku>:<n>" into its parts.
func parseQuantityData(data string) (sku string, quantity int, ok bool) {
	rest := strings.TrimPrefix(data, quantityPrefix)
	sku, qty, found := strings.Cut(rest, ":")
	if !found || sku == "" {
		return "", 0, false
	}
	quantity, err := strconv.Atoi(qty)
	if err != nil || quantity <= 0 {
		return "", 0, false
	}
	return sku, quantity, true
}
