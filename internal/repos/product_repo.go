package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"mercadito/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, code, category_id, currency_code, name, description,
  purchase_price, sale_price, stock, min_stock, is_active, is_featured,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) ListByCategory(catID string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE category_id = ? AND is_active = 1
	  ORDER BY created_at DESC
	`, catID)
	return out, err
}

func (r *ProductRepo) ListFeatured(limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE is_featured = 1 AND is_active = 1
	  ORDER BY created_at DESC
	  LIMIT ?
	`, limit)
	return out, err
}

func (r *ProductRepo) ListLatest(limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+` FROM products
	  WHERE is_active = 1
	  ORDER BY created_at DESC
	  LIMIT ?
	`, limit)
	return out, err
}

// SetStock overwrites stock for a product (admin restock).
func (r *ProductRepo) SetStock(id string, qty int) error {
	res, err := r.db.Exec(`
	  UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, qty, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive flips is_active for a selection of products (admin bulk action).
func (r *ProductRepo) SetActive(ids []string, active bool) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`
	  UPDATE products SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (?)
	`, active, ids)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(query, args...)
	return err
}
