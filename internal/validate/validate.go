package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rePhone = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reUser  = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)
	reCurr  = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Phone accepts an optional leading + followed by digits, spaces or
// dashes. Checkout requires it to be present.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// ID validates a simple resource identifier (product/category/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUser.MatchString(s)
}

// CurrencyCode validates a three-letter ledger code.
func CurrencyCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCurr.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	} // clamp to avoid abuse
	return n
}

// DeliveryType normalizes the fulfillment choice, defaulting to pickup.
func DeliveryType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "delivery" {
		return "pickup"
	}
	return s
}

var orderStatuses = map[string]bool{
	"pending": true, "processing": true, "shipped": true, "delivered": true, "cancelled": true,
}

func OrderStatus(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, orderStatuses[s]
}

// Text trims free-form input (addresses, notes) and caps its length.
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	return l >= 8 && l <= 72
}
