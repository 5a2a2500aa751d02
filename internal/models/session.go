// Package models defines session state structures for fishshop-bot conversations.
package models

import "time"

// State identifies a conversation state machine step.
type State string

const (
	// StateMenu means the product menu is shown and a selection is awaited.
	StateMenu State = "display_menu"
	// StateDetail means a product detail screen is shown.
	StateDetail State = "handle_menu"
	// StateQuantity means the user is adding quantities of a product to the cart.
	StateQuantity State = "handle_product"
	// StateCart means the cart screen is shown.
	StateCart State = "handle_cart"
	// StateEmail means an email address is awaited to complete the order.
	StateEmail State = "waiting_email"
	// StateEnded is a terminal marker; the session is dropped instead of being
	// stored in this state, so the next inbound event restarts the dialog.
	StateEnded State = "ended"
)

// Session is the per-user conversation state. CartID correlates to the remote
// cart resource; by convention it is the user's platform id in decimal form.
type Session struct {
	UserID    int64     `json:"user_id"`
	State     State     `json:"state"`
	CartID    string    `json:"cart_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
