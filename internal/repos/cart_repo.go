package repos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine joins a cart item with its product so pricing stays live:
// the unit price is always the product's current sale price.
type CartLine struct {
	ProductID    string          `db:"product_id"`
	Code         string          `db:"code"`
	Name         string          `db:"name"`
	CurrencyCode string          `db:"currency_code"`
	Symbol       string          `db:"symbol"`
	Qty          int             `db:"qty"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Stock        int             `db:"stock"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Ensure looks up the user's cart and creates it on first access. The
// UNIQUE(user_id) constraint guards the one-cart-per-user invariant even
// if two requests race the insert.
func (r *CartRepo) Ensure(userID string) (string, error) {
	if _, err := r.db.Exec(`
	  INSERT INTO carts(id, user_id) VALUES(?, ?)
	  ON CONFLICT(user_id) DO NOTHING
	`, uuid.NewString(), userID); err != nil {
		return "", err
	}
	var cartID string
	err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	return cartID, err
}

// ByUser returns the cart id without creating one.
func (r *CartRepo) ByUser(userID string) (string, error) {
	var cartID string
	err := r.db.Get(&cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	return cartID, err
}

// UpsertItem adds qty to an existing (cart, product) row or inserts a new
// one; re-adding a product never duplicates the line.
func (r *CartRepo) UpsertItem(cartID, productID string, qty int) error {
	_, err := r.db.Exec(`
	  INSERT INTO cart_items(cart_id, product_id, qty)
	  VALUES(?, ?, ?)
	  ON CONFLICT(cart_id, product_id) DO UPDATE
	  SET qty = cart_items.qty + excluded.qty
	`, cartID, productID, qty)
	return err
}

func (r *CartRepo) SetItemQty(cartID, productID string, qty int) error {
	res, err := r.db.Exec(`
	  UPDATE cart_items SET qty = ? WHERE cart_id = ? AND product_id = ?
	`, qty, cartID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *CartRepo) RemoveItem(cartID, productID string) error {
	res, err := r.db.Exec(`
	  DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?
	`, cartID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Lines returns the cart's items in insertion order with live product data.
func (r *CartRepo) Lines(cartID string) ([]CartLine, error) {
	var out []CartLine
	err := r.db.Select(&out, `
	  SELECT ci.product_id, p.code, p.name, p.currency_code, cu.symbol,
	         ci.qty, p.sale_price AS unit_price, p.stock
	  FROM cart_items ci
	  JOIN products p   ON p.id = ci.product_id
	  JOIN currencies cu ON cu.code = p.currency_code
	  WHERE ci.cart_id = ?
	  ORDER BY ci.added_at, ci.rowid
	`, cartID)
	return out, err
}

// Count returns the number of distinct lines, the cart badge figure.
func (r *CartRepo) Count(cartID string) (int, error) {
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM cart_items WHERE cart_id = ?`, cartID)
	return n, err
}
