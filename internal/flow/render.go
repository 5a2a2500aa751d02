// Package flow: screen rendering for the storefront dialog.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"fishshop-bot/internal/models"
	"fishshop-bot/internal/moltin"
)

// UI texts. The shop speaks Russian, as the storefront audience does.
const (
	textMenuPrompt     = "Пожалуйста, выберите товар:"
	textFarewell       = "До следующих встреч!"
	textApology        = "Что-то пошло не так. Попробуйте, пожалуйста, ещё раз."
	textCartEmpty      = "Корзина пуста"
	textEmailPrompt    = "Пришлите, пожалуйста, ваш email"
	textEmailInvalid   = "Это не похоже на email. Попробуйте ещё раз."
	textOrderConfirmed = "Спасибо за заказ! Мы напишем вам на %s."
	textAddedToCart    = "Добавлено в корзину: %d кг"
	textPriceMissing   = "цена недоступна"

	labelBack     = "Назад"
	labelCart     = "Корзина"
	labelCheckout = "Оплатить"
)

// Callback data vocabulary shared with the transport adapter.
const (
	productPrefix    = "product:"
	quantityPrefix   = "qty:"
	removePrefix     = "rm:"
	callbackBack     = "back"
	callbackCart     = "cart"
	callbackCheckout = "checkout"
)

// quantityChoices are the kilogram amounts offered on the detail screen.
var quantityChoices = []int{1, 5, 10}

func apologyReply() models.Reply {
	return models.Reply{Text: textApology}
}

// renderMenu fetches the catalog and renders one selectable button per product.
func (c *Controller) renderMenu(ctx context.Context) (models.Reply, error) {
	products, err := c.commerce.GetProducts(ctx)
	if err != nil {
		return models.Reply{}, err
	}
	buttons := make([][]models.Button, 0, len(products))
	for _, p := range products {
		buttons = append(buttons, []models.Button{{Label: p.Name, Data: productPrefix + p.ID}})
	}
	return models.Reply{Text: textMenuPrompt, Buttons: buttons}, nil
}

// renderDetail fetches and renders one product's detail screen: photo, name,
// price, stock, description and the quantity/cart/back controls.
func (c *Controller) renderDetail(ctx context.Context, productID string) (models.Reply, error) {
	product, err := c.commerce.GetProduct(ctx, productID)
	if err != nil {
		return models.Reply{}, err
	}

	priceText := textPriceMissing
	price, err := c.commerce.GetProductPrice(ctx, product.SKU)
	switch {
	case err == nil:
		priceText = formatPrice(price)
	case errors.Is(err, moltin.ErrPriceNotFound):
		// absent data, render the screen anyway
	default:
		return models.Reply{}, err
	}

	stock, err := c.commerce.GetProductStock(ctx, product.ID)
	if err != nil {
		return models.Reply{}, err
	}

	photoURL := ""
	if product.ImageID != "" {
		photoURL, err = c.commerce.GetProductPhotoLink(ctx, product.ImageID)
		if err != nil {
			return models.Reply{}, err
		}
	}

	quantityRow := make([]models.Button, 0, len(quantityChoices))
	for _, q := range quantityChoices {
		quantityRow = append(quantityRow, models.Button{
			Label: fmt.Sprintf("%d кг", q),
			Data:  fmt.Sprintf("%s%s:%d", quantityPrefix, product.SKU, q),
		})
	}

	text := fmt.Sprintf("%s\n\n%s за кг\nВ наличии: %d кг\n\n%s",
		product.Name, priceText, stock.Available, product.Description)

	return models.Reply{
		Text:     text,
		PhotoURL: photoURL,
		Buttons: [][]models.Button{
			quantityRow,
			{{Label: labelCart, Data: callbackCart}},
			{{Label: labelBack, Data: callbackBack}},
		},
	}, nil
}

// renderCart fetches and renders the cart screen. An empty cart shows only
// the empty-cart message and a back control; a non-empty cart shows each line
// with a remove control, the total and a checkout control.
func (c *Controller) renderCart(ctx context.Context, cartID string) (models.Reply, error) {
	items, err := c.commerce.GetCartItems(ctx, cartID)
	if err != nil {
		return models.Reply{}, err
	}

	if len(items) == 0 {
		return models.Reply{
			Text:    textCartEmpty,
			Buttons: [][]models.Button{{{Label: labelBack, Data: callbackBack}}},
		}, nil
	}

	total, err := c.commerce.GetCartCost(ctx, cartID)
	if err != nil {
		return models.Reply{}, err
	}

	var text strings.Builder
	buttons := make([][]models.Button, 0, len(items)+2)
	for _, item := range items {
		fmt.Fprintf(&text, "%s\n%s за кг\n%d кг в корзине на сумму %s\n\n",
			item.Name, item.UnitPrice, item.Quantity, item.LinePrice)
		buttons = append(buttons, []models.Button{{
			Label: "Убрать " + item.Name,
			Data:  removePrefix + item.ID,
		}})
	}
	fmt.Fprintf(&text, "Всего: %s", total)

	buttons = append(buttons,
		[]models.Button{{Label: labelCheckout, Data: callbackCheckout}},
		[]models.Button{{Label: labelBack, Data: callbackBack}},
	)
	return models.Reply{Text: text.String(), Buttons: buttons}, nil
}

// formatPrice picks one currency for display: rubles when priced in them,
// otherwise the first currency code alphabetically, for determinism.
func formatPrice(price models.Price) string {
	if len(price.Currencies) == 0 {
		return textPriceMissing
	}
	code := "RUB"
	if _, ok := price.Currencies[code]; !ok {
		codes := make([]string, 0, len(price.Currencies))
		for c := range price.Currencies {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		code = codes[0]
	}
	return fmt.Sprintf("%.2f %s", float64(price.Currencies[code].Amount)/100, code)
}
