// Package moltin wraps the Elastic Path ("Moltin") commerce HTTP API.
//
// This file defines the JSON envelopes the API speaks. Every response wraps
// its payload in a top-level "data" member.
package moltin

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type relationshipData struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type productAttributes struct {
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	Description string `json:"description"`
}

type productData struct {
	ID            string            `json:"id"`
	Attributes    productAttributes `json:"attributes"`
	Relationships struct {
		MainImage relationshipData `json:"main_image"`
	} `json:"relationships"`
}

type productsEnvelope struct {
	Data []productData `json:"data"`
}

type productEnvelope struct {
	Data productData `json:"data"`
}

type fileEnvelope struct {
	Data struct {
		Link struct {
			Href string `json:"href"`
		} `json:"link"`
	} `json:"data"`
}

type inventoryEnvelope struct {
	Data struct {
		Available int `json:"available"`
	} `json:"data"`
}

type formattedPrice struct {
	Formatted string `json:"formatted"`
}

type cartEnvelope struct {
	Data struct {
		Meta struct {
			DisplayPrice struct {
				WithTax formattedPrice `json:"with_tax"`
			} `json:"display_price"`
		} `json:"meta"`
	} `json:"data"`
}

type cartItemData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Meta     struct {
		DisplayPrice struct {
			WithTax struct {
				Unit  formattedPrice `json:"unit"`
				Value formattedPrice `json:"value"`
			} `json:"with_tax"`
		} `json:"display_price"`
	} `json:"meta"`
}

type cartItemsEnvelope struct {
	Data []cartItemData `json:"data"`
}

type addCartItemRequest struct {
	Data struct {
		SKU      string `json:"sku"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type catalogsEnvelope struct {
	Data []struct {
		Attributes struct {
			PricebookID string `json:"pricebook_id"`
		} `json:"attributes"`
	} `json:"data"`
}

type currencyEntry struct {
	Amount      int  `json:"amount"`
	IncludesTax bool `json:"includes_tax"`
}

type pricesEnvelope struct {
	Data []struct {
		Attributes struct {
			SKU        string                   `json:"sku"`
			Currencies map[string]currencyEntry `json:"currencies"`
		} `json:"attributes"`
	} `json:"data"`
}

type customerRequest struct {
	Data struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

type customerEnvelope struct {
	Data struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}
