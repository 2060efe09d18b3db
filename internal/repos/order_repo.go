package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- Row types ----------

type OrderRow struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	OrderNumber     string          `db:"order_number"`
	Status          string          `db:"status"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	DeliveryType    string          `db:"delivery_type"`
	ShippingAddress string          `db:"shipping_address"`
	Phone           string          `db:"phone"`
	Notes           string          `db:"notes"`
	WhatsAppSent    bool            `db:"whatsapp_sent"`
	WhatsAppMessage string          `db:"whatsapp_message"`
	CreatedAt       string          `db:"created_at"`
}

type OrderItemRow struct {
	ProductID string          `db:"product_id"`
	Name      string          `db:"name"`
	Symbol    string          `db:"symbol"`
	Qty       int             `db:"qty"`
	Price     decimal.Decimal `db:"price"`
	Subtotal  decimal.Decimal `db:"subtotal"`
}

// OrderSummary is the listing row for order history and the admin table.
type OrderSummary struct {
	ID           string          `db:"id" json:"id"`
	OrderNumber  string          `db:"order_number" json:"order_number"`
	Status       string          `db:"status" json:"status"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"total_amount"`
	DeliveryType string          `db:"delivery_type" json:"delivery_type"`
	WhatsAppSent bool            `db:"whatsapp_sent" json:"whatsapp_sent"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
}

// ---------- The cart-to-order transition ----------

// Draft carries everything the transition persists for the order header.
type Draft struct {
	ID              string
	UserID          string
	Number          string
	Total           decimal.Decimal
	DeliveryType    string
	ShippingAddress string
	Phone           string
	Notes           string
	Message         string
	CreatedAt       string // UTC, "2006-01-02 15:04:05"; matches the rendered message
}

type DraftItem struct {
	ProductID string
	Name      string
	Qty       int
	Price     decimal.Decimal
}

// stockShortfall is returned from the in-transaction decrement so the
// service can translate it into a StockError for the offending product.
type stockShortfall struct{ productID string }

func (e *stockShortfall) Error() string { return "insufficient stock for " + e.productID }

func ShortfallProduct(err error) (string, bool) {
	if s, ok := err.(*stockShortfall); ok {
		return s.productID, true
	}
	return "", false
}

// CreateFromCart runs the whole transition in one transaction: insert
// the order header, copy each cart line into order_items with its frozen
// price, decrement stock per line with a conditional update, and delete
// the source cart. Any failure rolls everything back.
func (r *OrderRepo) CreateFromCart(d Draft, items []DraftItem, cartID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, user_id, order_number, status, total_amount, delivery_type,
	     shipping_address, phone, notes, whatsapp_sent, whatsapp_message, created_at)
	  VALUES
	    (?, ?, ?, 'pending', ?, ?, ?, ?, ?, 0, ?, ?)
	`, d.ID, d.UserID, d.Number, d.Total, d.DeliveryType,
		d.ShippingAddress, d.Phone, d.Notes, d.Message, d.CreatedAt); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, qty, price)
		  VALUES(?, ?, ?, ?)
		`, d.ID, it.ProductID, it.Qty, it.Price); err != nil {
			return err
		}
		// Conditional decrement: the WHERE clause serializes the
		// check-and-subtract so a racing checkout cannot drive stock
		// negative.
		res, err := tx.Exec(`
		  UPDATE products
		  SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ? AND stock >= ?
		`, it.Qty, it.ProductID, it.Qty)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &stockShortfall{productID: it.ProductID}
		}
	}

	// Drop the source cart and its items. The ON DELETE CASCADE covers
	// the items when foreign keys are on; the explicit delete keeps the
	// invariant regardless of per-connection pragma state.
	if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM carts WHERE id = ?`, cartID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) NumberExists(number string) (bool, error) {
	var n int
	if err := r.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE order_number = ?`, number); err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---------- Reads ----------

func (r *OrderRepo) Get(orderID string) (OrderRow, []OrderItemRow, error) {
	var o OrderRow
	if err := r.db.Get(&o, `
	  SELECT id, user_id, order_number, status, total_amount, delivery_type,
	         shipping_address, phone, notes, whatsapp_sent, whatsapp_message, created_at
	  FROM orders
	  WHERE id = ?
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	var items []OrderItemRow
	if err := r.db.Select(&items, `
	  SELECT oi.product_id, p.name, cu.symbol, oi.qty, oi.price,
	         (oi.qty * oi.price) AS subtotal
	  FROM order_items oi
	  JOIN products p    ON p.id = oi.product_id
	  JOIN currencies cu ON cu.code = p.currency_code
	  WHERE oi.order_id = ?
	  ORDER BY oi.rowid
	`, orderID); err != nil {
		return OrderRow{}, nil, err
	}

	return o, items, nil
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT id, order_number, status, total_amount, delivery_type, whatsapp_sent, created_at
	  FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
	  SELECT id, order_number, status, total_amount, delivery_type, whatsapp_sent, created_at
	  FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	res, err := r.db.Exec(`
	  UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetWhatsAppSent flips the handoff flag for a selection of orders.
func (r *OrderRepo) SetWhatsAppSent(ids []string, sent bool) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
	  UPDATE orders SET whatsapp_sent = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (?)
	`, sent, ids)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(query, args...)
	return err
}
