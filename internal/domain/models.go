package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	CreatedAt   string `db:"created_at" json:"created_at"`
	UpdatedAt   string `db:"updated_at" json:"updated_at,omitempty"`
}

// Product prices are denominated in the product's own currency. The
// purchase price never leaves the JSON surface.
type Product struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	CategoryID    string          `db:"category_id" json:"category_id"`
	CurrencyCode  string          `db:"currency_code" json:"currency_code"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"-"`
	SalePrice     decimal.Decimal `db:"sale_price" json:"sale_price"`
	Stock         int             `db:"stock" json:"stock"`
	MinStock      int             `db:"min_stock" json:"min_stock"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	IsFeatured    bool            `db:"is_featured" json:"is_featured"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	UpdatedAt     string          `db:"updated_at" json:"updated_at,omitempty"`
}

// ProfitMargin is (sale-purchase)/purchase*100, zero when there is no
// purchase price to measure against.
func (p Product) ProfitMargin() decimal.Decimal {
	if p.PurchasePrice.Sign() <= 0 {
		return decimal.Zero
	}
	return p.SalePrice.Sub(p.PurchasePrice).DivRound(p.PurchasePrice, 4).Mul(decimal.NewFromInt(100))
}

func (p Product) IsLowStock() bool   { return p.Stock <= p.MinStock }
func (p Product) IsOutOfStock() bool { return p.Stock == 0 }

// Order statuses. Only the status and the whatsapp_sent flag may change
// after an order is created.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

const (
	DeliveryPickup   = "pickup"
	DeliveryDelivery = "delivery"
)

// StockError reports a line whose requested quantity exceeds the stock
// on hand. Name may be empty when the shortfall is detected inside the
// transition transaction rather than by the pre-check.
type StockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	label := e.Name
	if label == "" {
		label = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s (need %d, have %d)", label, e.Requested, e.Available)
}
