package moltin

import (
	"errors"
	"fmt"
)

// ErrPriceNotFound is returned by GetProductPrice when the pricebook has no
// entry for the requested SKU. It marks absent data, not a transport failure,
// and callers are expected to render "price unavailable" instead of failing.
var ErrPriceNotFound = errors.New("price not found")

// UpstreamError is returned for any non-2xx response from the commerce API.
type UpstreamError struct {
	Op     string // failing operation, e.g. "get products"
	Status int    // HTTP status code
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("moltin: %s failed with status %d", e.Op, e.Status)
}
