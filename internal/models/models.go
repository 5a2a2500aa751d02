// Package models defines the core data structures for fishshop-bot.
//
// It includes the commerce types returned by the Moltin client and the
// conversation types shared between the flow controller and the transport.
package models

// Product is a catalog entry. ID is the opaque catalog identifier used for
// product detail and inventory lookups; SKU is the separate human-readable
// identifier used for pricing and cart operations. The two identifier spaces
// are never interchangeable.
type Product struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageID     string `json:"image_id,omitempty"`
}

// Currency is a single-currency price entry from a pricebook.
type Currency struct {
	Amount      int  `json:"amount"` // minor units (kopecks, cents)
	IncludesTax bool `json:"includes_tax"`
}

// Price holds the per-currency prices for one SKU.
type Price struct {
	SKU        string              `json:"sku"`
	Currencies map[string]Currency `json:"currencies"`
}

// Stock is the inventory level for a product.
type Stock struct {
	Available int `json:"available"`
}

// CartItem is one line of a remote cart. ID is the line-item id used for
// removal, not the product id.
type CartItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"` // formatted, as reported by the API
	LinePrice string `json:"line_price"` // formatted, quantity * unit price
}

// Customer is a customer record created at checkout.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
