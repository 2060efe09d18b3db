// Package notify renders the outbound WhatsApp handoff for a completed
// order. The message is built from a fully resolved value object, stored
// on the order, and never parsed back.
package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Line struct {
	Qty    int
	Name   string
	Symbol string // symbol of the product's own currency
	Price  decimal.Decimal
}

type Order struct {
	Number          string
	Customer        string
	Phone           string
	Items           []Line
	Total           decimal.Decimal
	DeliveryType    string // pickup | delivery
	ShippingAddress string
	Notes           string
	CreatedAt       time.Time
}

// Message formats the fixed-template staff notification. Line items keep
// the currency symbol and frozen price of each product; the shipping
// address appears verbatim only for delivery orders.
func Message(o Order) string {
	var items strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&items, "- %dx %s - %s%s\n", it.Qty, it.Name, it.Symbol, it.Price.StringFixed(2))
	}

	delivery := "PICKUP AT STORE"
	if o.DeliveryType == "delivery" {
		delivery = "🚚 SHIPPING ADDRESS:\n" + o.ShippingAddress
	}

	notes := o.Notes
	if notes == "" {
		notes = "No additional notes"
	}

	return fmt.Sprintf(`🛒 NEW ORDER - %s

CUSTOMER:
%s
Phone: %s

PRODUCTS:
%sTOTAL: %s

%s

NOTES:
%s

DATE: %s`,
		o.Number, o.Customer, o.Phone,
		items.String(), o.Total.StringFixed(2),
		delivery, notes,
		o.CreatedAt.Format("02/01/2006 15:04"))
}

// DeepLink builds the wa.me URL that opens a chat with the staff number
// pre-populated with the message. No API call is made; the link is shown
// to the operator.
func DeepLink(number, message string) string {
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(message)
}
