package domain

import "github.com/shopspring/decimal"

// Currency is one entry of the exchange-rate ledger. ExchangeRate is
// expressed against the base currency, whose own rate is 1.
type Currency struct {
	Code         string          `db:"code" json:"code"`
	Name         string          `db:"name" json:"name"`
	Symbol       string          `db:"symbol" json:"symbol"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchange_rate"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	IsDefault    bool            `db:"is_default" json:"is_default"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
	UpdatedAt    string          `db:"updated_at" json:"updated_at,omitempty"`
}

// Convert exchanges amount between two ledger entries via the base unit:
// amount*from.ExchangeRate is the value in base currency, divided by
// to.ExchangeRate for the target.
//
// If either currency is missing or carries a zero rate the amount is
// returned unconverted. That is a degrade-rather-than-crash policy: a
// misconfigured rate silently yields a price in the wrong unit, so rates
// of zero should never be loaded for active currencies.
func Convert(amount decimal.Decimal, from, to *Currency) decimal.Decimal {
	if from == nil || to == nil || from.Code == to.Code {
		return amount
	}
	if from.ExchangeRate.IsZero() || to.ExchangeRate.IsZero() {
		return amount
	}
	inBase := amount.Mul(from.ExchangeRate)
	return inBase.DivRound(to.ExchangeRate, 4)
}
