// Package moltin wraps the Elastic Path ("Moltin") commerce HTTP API:
// catalog, pricing, inventory, cart and customer endpoints, plus the OAuth
// client-credentials token lifecycle shared by all of them.
package moltin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fishshop-bot/internal/models"
)

// DefaultBaseURL is the production API host.
const DefaultBaseURL = "https://api.moltin.com"

// RequestTimeout bounds every remote call. Timeouts are not retried here;
// they propagate to the caller.
const RequestTimeout = 10 * time.Second

// Client is a stateful commerce API client. It owns the shared access token;
// all methods are safe for concurrent use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time

	mu    sync.Mutex
	token accessToken
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client used for all requests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a commerce client. The access token is fetched lazily on
// first use.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: RequestTimeout},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs one authenticated API round trip. Every operation goes through
// here, so the token staleness check wraps every token-using call exactly
// once. Non-2xx responses become *UpstreamError carrying op and status.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("moltin: upstream request failed", "op", op, "status", resp.StatusCode, "path", path)
		return &UpstreamError{Op: op, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// GetProducts lists the catalog.
func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	var env productsEnvelope
	if err := c.do(ctx, "get products", http.MethodGet, "/catalog/products", nil, &env); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(env.Data))
	for _, d := range env.Data {
		products = append(products, productFromData(d))
	}
	return products, nil
}

// GetProduct fetches one product's detail by catalog id.
func (c *Client) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	var env productEnvelope
	if err := c.do(ctx, "get product", http.MethodGet, "/pcm/products/"+productID, nil, &env); err != nil {
		return models.Product{}, err
	}
	return productFromData(env.Data), nil
}

// GetProductPhotoLink resolves a file id to its public URL.
func (c *Client) GetProductPhotoLink(ctx context.Context, imageID string) (string, error) {
	var env fileEnvelope
	if err := c.do(ctx, "get product photo", http.MethodGet, "/v2/files/"+imageID, nil, &env); err != nil {
		return "", err
	}
	return env.Data.Link.Href, nil
}

// GetProductStock fetches the inventory level by product id (not SKU).
func (c *Client) GetProductStock(ctx context.Context, productID string) (models.Stock, error) {
	var env inventoryEnvelope
	if err := c.do(ctx, "get product stock", http.MethodGet, "/v2/inventories/"+productID, nil, &env); err != nil {
		return models.Stock{}, err
	}
	return models.Stock{Available: env.Data.Available}, nil
}

// GetCartCost returns the cart's with-tax total as a formatted price string.
func (c *Client) GetCartCost(ctx context.Context, cartID string) (string, error) {
	var env cartEnvelope
	if err := c.do(ctx, "get cart cost", http.MethodGet, "/v2/carts/"+cartID, nil, &env); err != nil {
		return "", err
	}
	return env.Data.Meta.DisplayPrice.WithTax.Formatted, nil
}

// GetCartItems lists the cart's line items.
func (c *Client) GetCartItems(ctx context.Context, cartID string) ([]models.CartItem, error) {
	var env cartItemsEnvelope
	if err := c.do(ctx, "get cart items", http.MethodGet, "/v2/carts/"+cartID+"/items", nil, &env); err != nil {
		return nil, err
	}
	items := make([]models.CartItem, 0, len(env.Data))
	for _, d := range env.Data {
		items = append(items, models.CartItem{
			ID:        d.ID,
			Name:      d.Name,
			Quantity:  d.Quantity,
			UnitPrice: d.Meta.DisplayPrice.WithTax.Unit.Formatted,
			LinePrice: d.Meta.DisplayPrice.WithTax.Value.Formatted,
		})
	}
	return items, nil
}

// AddProductToCart adds quantity units of the SKU to the cart. Not
// idempotent: callers must not retry it automatically.
func (c *Client) AddProductToCart(ctx context.Context, sku string, quantity int, cartID string) error {
	var req addCartItemRequest
	req.Data.SKU = sku
	req.Data.Type = "cart_item"
	req.Data.Quantity = quantity
	return c.do(ctx, "add product to cart", http.MethodPost, "/v2/carts/"+cartID+"/items", req, nil)
}

// RemoveProductFromCart deletes one line item from the cart.
func (c *Client) RemoveProductFromCart(ctx context.Context, cartID, itemID string) error {
	return c.do(ctx, "remove product from cart", http.MethodDelete, "/v2/carts/"+cartID+"/items/"+itemID, nil, nil)
}

// getFirstPricebook fetches the first catalog's pricebook contents. Price
// lookup is two-step: catalogs carry the pricebook id, and the pricebook
// carries the per-SKU prices.
func (c *Client) getFirstPricebook(ctx context.Context) (pricesEnvelope, error) {
	var catalogs catalogsEnvelope
	if err := c.do(ctx, "get catalogs", http.MethodGet, "/pcm/catalogs", nil, &catalogs); err != nil {
		return pricesEnvelope{}, err
	}
	if len(catalogs.Data) == 0 {
		return pricesEnvelope{}, fmt.Errorf("get catalogs: no catalogs configured")
	}
	pricebookID := catalogs.Data[0].Attributes.PricebookID

	var prices pricesEnvelope
	if err := c.do(ctx, "get pricebook prices", http.MethodGet, "/pcm/pricebooks/"+pricebookID+"/prices", nil, &prices); err != nil {
		return pricesEnvelope{}, err
	}
	return prices, nil
}

// GetProductPrice looks up the pricebook entry for a SKU. A SKU with no entry
// yields ErrPriceNotFound, which is absent data rather than a failure.
func (c *Client) GetProductPrice(ctx context.Context, sku string) (models.Price, error) {
	prices, err := c.getFirstPricebook(ctx)
	if err != nil {
		return models.Price{}, err
	}
	for _, entry := range prices.Data {
		if entry.Attributes.SKU != sku {
			continue
		}
		currencies := make(map[string]models.Currency, len(entry.Attributes.Currencies))
		for code, cur := range entry.Attributes.Currencies {
			currencies[code] = models.Currency{Amount: cur.Amount, IncludesTax: cur.IncludesTax}
		}
		return models.Price{SKU: sku, Currencies: currencies}, nil
	}
	return models.Price{}, ErrPriceNotFound
}

// CreateCustomer creates a customer record keyed by email and display name.
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (models.Customer, error) {
	var req customerRequest
	req.Data.Type = "customer"
	req.Data.Name = name
	req.Data.Email = email

	var env customerEnvelope
	if err := c.do(ctx, "create customer", http.MethodPost, "/v2/customers", req, &env); err != nil {
		return models.Customer{}, err
	}
	return models.Customer{ID: env.Data.ID, Name: env.Data.Name, Email: env.Data.Email}, nil
}

// GetCustomer fetches a customer record by id.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (models.Customer, error) {
	var env customerEnvelope
	if err := c.do(ctx, "get customer", http.MethodGet, "/v2/customers/"+customerID, nil, &env); err != nil {
		return models.Customer{}, err
	}
	return models.Customer{ID: env.Data.ID, Name: env.Data.Name, Email: env.Data.Email}, nil
}

func productFromData(d productData) models.Product {
	return models.Product{
		ID:          d.ID,
		SKU:         d.Attributes.SKU,
		Name:        d.Attributes.Name,
		Description: d.Attributes.Description,
		ImageID:     d.Relationships.MainImage.Data.ID,
	}
}
