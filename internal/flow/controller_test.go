package flow

import (
	"context"
	"strings"
	"testing"

	"fishshop-bot/internal/models"
	"fishshop-bot/internal/moltin"
	"fishshop-bot/internal/store"
)

// fakeCommerce serves canned catalog data and records mutating calls.
type fakeCommerce struct {
	products  []models.Product
	prices    map[string]models.Price
	stock     map[string]models.Stock
	photos    map[string]string
	cartItems map[string][]models.CartItem
	cartCost  map[string]string

	addErr    error
	addCalls  []addCall
	removed   []string
	customers []models.Customer
}

type addCall struct {
	sku      string
	quantity int
	cartID   string
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		products: []models.Product{
			{ID: "p1", SKU: "carp-1", Name: "Карп", Description: "Свежий карп", ImageID: "img-1"},
			{ID: "p2", SKU: "trout-1", Name: "Форель", Description: "Речная форель"},
		},
		prices: map[string]models.Price{
			"carp-1": {SKU: "carp-1", Currencies: map[string]models.Currency{
				"RUB": {Amount: 10050, IncludesTax: true},
			}},
		},
		stock: map[string]models.Stock{
			"p1": {Available: 14},
			"p2": {Available: 3},
		},
		photos:    map[string]string{"img-1": "https://cdn.example.com/carp.jpg"},
		cartItems: map[string][]models.CartItem{},
		cartCost:  map[string]string{},
	}
}

func (f *fakeCommerce) GetProducts(context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeCommerce) GetProduct(_ context.Context, productID string) (models.Product, error) {
	for _, p := range f.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return models.Product{}, &moltin.UpstreamError{Op: "get product", Status: 404}
}

func (f *fakeCommerce) GetProductPrice(_ context.Context, sku string) (models.Price, error) {
	price, ok := f.prices[sku]
	if !ok {
		return models.Price{}, moltin.ErrPriceNotFound
	}
	return price, nil
}

func (f *fakeCommerce) GetProductStock(_ context.Context, productID string) (models.Stock, error) {
	return f.stock[productID], nil
}

func (f *fakeCommerce) GetProductPhotoLink(_ context.Context, imageID string) (string, error) {
	return f.photos[imageID], nil
}

func (f *fakeCommerce) GetCartItems(_ context.Context, cartID string) ([]models.CartItem, error) {
	return f.cartItems[cartID], nil
}

func (f *fakeCommerce) GetCartCost(_ context.Context, cartID string) (string, error) {
	return f.cartCost[cartID], nil
}

func (f *fakeCommerce) AddProductToCart(_ context.Context, sku string, quantity int, cartID string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.addCalls = append(f.addCalls, addCall{sku: sku, quantity: quantity, cartID: cartID})
	return nil
}

func (f *fakeCommerce) RemoveProductFromCart(_ context.Context, cartID, itemID string) error {
	f.removed = append(f.removed, itemID)
	items := f.cartItems[cartID]
	kept := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.cartItems[cartID] = kept
	return nil
}

func (f *fakeCommerce) CreateCustomer(_ context.Context, email, name string) (models.Customer, error) {
	customer := models.Customer{ID: "cust-1", Name: name, Email: email}
	f.customers = append(f.customers, customer)
	return customer, nil
}

func newTestController() (*Controller, *fakeCommerce, store.Store) {
	commerce := newFakeCommerce()
	st := store.NewInMemoryStore()
	return NewController(st, commerce), commerce, st
}

func mustState(t *testing.T, st store.Store, userID int64, want models.State) {
	t.Helper()
	session, err := st.GetSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil {
		t.Fatalf("expected a session in state %s, got none", want)
	}
	if session.State != want {
		t.Fatalf("expected state %s, got %s", want, session.State)
	}
}

func hasButton(reply models.Reply, data string) bool {
	for _, row := range reply.Buttons {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

func TestController_StartRendersMenu(t *testing.T) {
	c, _, st := newTestController()

	reply, err := c.HandleEvent(context.Background(), models.Event{
		Kind: models.EventCommand, Command: "start", UserID: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != textMenuPrompt {
		t.Errorf("unexpected menu text: %q", reply.Text)
	}
	if len(reply.Buttons) != 2 {
		t.Fatalf("expected one button row per product, got %d", len(reply.Buttons))
	}
	if reply.Buttons[0][0].Data != "product:p1" || reply.Buttons[0][0].Label != "Карп" {
		t.Errorf("unexpected first menu button: %+v", reply.Buttons[0][0])
	}
	mustState(t, st, 7, models.StateMenu)
}

func TestController_ProductSelectionShowsDetail(t *testing.T) {
	c, _, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, "Карп") || !strings.Contains(reply.Text, "100.50 RUB за кг") {
		t.Errorf("detail text missing name or price: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "В наличии: 14 кг") {
		t.Errorf("detail text missing stock: %q", reply.Text)
	}
	if reply.PhotoURL != "https://cdn.example.com/carp.jpg" {
		t.Errorf("unexpected photo url: %q", reply.PhotoURL)
	}
	if len(reply.Buttons[0]) != 3 {
		t.Fatalf("expected 3 quantity buttons, got %d", len(reply.Buttons[0]))
	}
	if reply.Buttons[0][1].Data != "qty:carp-1:5" {
		t.Errorf("unexpected quantity callback data: %q", reply.Buttons[0][1].Data)
	}
	if !hasButton(reply, callbackCart) || !hasButton(reply, callbackBack) {
		t.Error("detail screen must offer cart and back controls")
	}
	mustState(t, st, 7, models.StateDetail)
}

func TestController_DetailWithoutPriceStillRenders(t *testing.T) {
	c, _, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p2", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, textPriceMissing) {
		t.Errorf("expected price placeholder in detail text: %q", reply.Text)
	}
	if reply.PhotoURL != "" {
		t.Errorf("expected no photo for product without image, got %q", reply.PhotoURL)
	}
	mustState(t, st, 7, models.StateDetail)
}

func TestController_AddToCart(t *testing.T) {
	c, commerce, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "qty:carp-1:5", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != "Добавлено в корзину: 5 кг" {
		t.Errorf("unexpected confirmation: %q", reply.Text)
	}
	if len(commerce.addCalls) != 1 {
		t.Fatalf("expected 1 add call, got %d", len(commerce.addCalls))
	}
	call := commerce.addCalls[0]
	if call.sku != "carp-1" || call.quantity != 5 || call.cartID != "7" {
		t.Errorf("unexpected add call: %+v", call)
	}
	mustState(t, st, 7, models.StateQuantity)

	// A second quantity tap from the same screen adds again.
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "qty:carp-1:1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commerce.addCalls) != 2 {
		t.Errorf("expected repeated additions to accumulate, got %d calls", len(commerce.addCalls))
	}
}

func TestController_AddToCartFailureKeepsState(t *testing.T) {
	c, commerce, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commerce.addErr = &moltin.UpstreamError{Op: "add product to cart", Status: 500}
	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "qty:carp-1:5", UserID: 7})
	if err == nil {
		t.Fatal("expected error from failed cart addition")
	}
	if reply.Text != textApology {
		t.Errorf("expected apology reply, got %q", reply.Text)
	}
	mustState(t, st, 7, models.StateDetail)
}

func TestController_EmptyCart(t *testing.T) {
	c, _, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: callbackCart, UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != "Корзина пуста" {
		t.Errorf("unexpected empty-cart text: %q", reply.Text)
	}
	if hasButton(reply, callbackCheckout) {
		t.Error("empty cart must not offer checkout")
	}
	if !hasButton(reply, callbackBack) {
		t.Error("empty cart must offer the back control")
	}
	mustState(t, st, 7, models.StateCart)
}

func TestController_CartWithItems(t *testing.T) {
	c, commerce, st := newTestController()
	ctx := context.Background()
	commerce.cartItems["7"] = []models.CartItem{
		{ID: "item-1", Name: "Карп", Quantity: 5, UnitPrice: "100.50 RUB", LinePrice: "502.50 RUB"},
	}
	commerce.cartCost["7"] = "502.50 RUB"

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: callbackCart, UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, "5 кг в корзине на сумму 502.50 RUB") {
		t.Errorf("cart text missing line: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Всего: 502.50 RUB") {
		t.Errorf("cart text missing total: %q", reply.Text)
	}
	if !hasButton(reply, "rm:item-1") {
		t.Error("cart must offer a remove control per line")
	}
	if !hasButton(reply, callbackCheckout) {
		t.Error("non-empty cart must offer checkout")
	}
	mustState(t, st, 7, models.StateCart)
}

func TestController_RemoveFromCart(t *testing.T) {
	c, commerce, _ := newTestController()
	ctx := context.Background()
	commerce.cartItems["7"] = []models.CartItem{
		{ID: "item-1", Name: "Карп", Quantity: 5, UnitPrice: "100.50 RUB", LinePrice: "502.50 RUB"},
	}
	commerce.cartCost["7"] = "502.50 RUB"

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "product:p1", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: callbackCart, UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: "rm:item-1", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(commerce.removed) != 1 || commerce.removed[0] != "item-1" {
		t.Errorf("unexpected removals: %v", commerce.removed)
	}
	if reply.Text != "Корзина пуста" {
		t.Errorf("expected re-rendered empty cart, got %q", reply.Text)
	}
}

func TestController_CheckoutFlow(t *testing.T) {
	c, commerce, st := newTestController()
	ctx := context.Background()
	commerce.cartItems["7"] = []models.CartItem{
		{ID: "item-1", Name: "Карп", Quantity: 5, UnitPrice: "100.50 RUB", LinePrice: "502.50 RUB"},
	}
	commerce.cartCost["7"] = "502.50 RUB"

	events := []models.Event{
		{Kind: models.EventCommand, Command: "start", UserID: 7, UserName: "Ivan"},
		{Kind: models.EventCallback, Data: "product:p1", UserID: 7, UserName: "Ivan"},
		{Kind: models.EventCallback, Data: callbackCart, UserID: 7, UserName: "Ivan"},
	}
	for _, ev := range events {
		if _, err := c.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCallback, Data: callbackCheckout, UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != textEmailPrompt {
		t.Errorf("unexpected email prompt: %q", reply.Text)
	}
	mustState(t, st, 7, models.StateEmail)

	// Malformed address re-prompts without advancing.
	reply, err = c.HandleEvent(ctx, models.Event{Kind: models.EventText, Text: "not-an-email", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != textEmailInvalid {
		t.Errorf("unexpected invalid-email reply: %q", reply.Text)
	}
	mustState(t, st, 7, models.StateEmail)

	// A valid address completes the order and ends the session.
	reply, err = c.HandleEvent(ctx, models.Event{Kind: models.EventText, Text: "ivan@example.com", UserID: 7, UserName: "Ivan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply.Text, "ivan@example.com") {
		t.Errorf("confirmation must echo the address: %q", reply.Text)
	}
	if len(commerce.customers) != 1 {
		t.Fatalf("expected 1 created customer, got %d", len(commerce.customers))
	}
	if commerce.customers[0].Email != "ivan@example.com" || commerce.customers[0].Name != "Ivan" {
		t.Errorf("unexpected customer: %+v", commerce.customers[0])
	}
	session, err := st.GetSession(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected session to be deleted after checkout, got %+v", session)
	}
}

func TestController_CancelDropsSession(t *testing.T) {
	c, _, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "cancel", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Text != textFarewell {
		t.Errorf("unexpected farewell: %q", reply.Text)
	}
	session, err := st.GetSession(ctx, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Errorf("expected session to be gone, got %+v", session)
	}
}

func TestController_UnknownEventIsNoOp(t *testing.T) {
	c, _, st := newTestController()
	ctx := context.Background()

	if _, err := c.HandleEvent(ctx, models.Event{Kind: models.EventCommand, Command: "start", UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Free text on the menu screen matches no transition.
	reply, err := c.HandleEvent(ctx, models.Event{Kind: models.EventText, Text: "hello", UserID: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reply.Empty() {
		t.Errorf("expected empty reply, got %+v", reply)
	}
	mustState(t, st, 7, models.StateMenu)
}

func TestController_EventWithoutSessionStartsAtMenu(t *testing.T) {
	c, _, st := newTestController()

	// No /start yet; the first event gets a fresh menu-state session.
	reply, err := c.HandleEvent(context.Background(), models.Event{
		Kind: models.EventCallback, Data: "product:p1", UserID: 9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Empty() {
		t.Error("expected the detail screen for a product tap from a fresh session")
	}
	mustState(t, st, 9, models.StateDetail)
}

func TestParseQuantityData(t *testing.T) {
	cases := []struct {
		data     string
		sku      string
		quantity int
		ok       bool
	}{
		{"qty:carp-1:5", "carp-1", 5, true},
		{"qty:carp-1:1", "carp-1", 1, true},
		{"qty:carp-1:0", "", 0, false},
		{"qty:carp-1:-2", "", 0, false},
		{"qty:carp-1:x", "", 0, false},
		{"qty::5", "", 0, false},
		{"qty:carp-1", "", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			sku, quantity, ok := parseQuantityData(tc.data)
			if sku != tc.sku || quantity != tc.quantity || ok != tc.ok {
				t.Errorf("parseQuantityData(%q) = (%q, %d, %v), want (%q, %d, %v)",
					tc.data, sku, quantity, ok, tc.sku, tc.quantity, tc.ok)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.com", "ivan.petrov@example.org"}
	invalid := []string{"", "not-an-email", "a@", "Ivan <a@b.com>", "a@b.com extra"}
	for _, s := range valid {
		if !validEmail(s) {
			t.Errorf("validEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if validEmail(s) {
			t.Errorf("validEmail(%q) = true, want false", s)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		name  string
		price models.Price
		want  string
	}{
		{"rubles preferred", models.Price{Currencies: map[string]models.Currency{
			"USD": {Amount: 199}, "RUB": {Amount: 10050},
		}}, "100.50 RUB"},
		{"first code when no rubles", models.Price{Currencies: map[string]models.Currency{
			"USD": {Amount: 199}, "EUR": {Amount: 299},
		}}, "2.99 EUR"},
		{"no currencies", models.Price{}, textPriceMissing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatPrice(tc.price); got != tc.want {
				t.Errorf("formatPrice() = %q, want %q", got, tc.want)
			}
		})
	}
}
