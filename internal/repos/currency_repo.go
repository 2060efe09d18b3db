package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
)

type CurrencyRepo struct{ db *sqlx.DB }

func NewCurrencyRepo(db *sqlx.DB) *CurrencyRepo { return &CurrencyRepo{db: db} }

const currencyCols = `code, name, symbol, exchange_rate, is_active, is_default,
  created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CurrencyRepo) List() ([]domain.Currency, error) {
	var out []domain.Currency
	err := r.db.Select(&out, `SELECT `+currencyCols+` FROM currencies ORDER BY code`)
	return out, err
}

func (r *CurrencyRepo) ByCode(code string) (domain.Currency, error) {
	var c domain.Currency
	err := r.db.Get(&c, `SELECT `+currencyCols+` FROM currencies WHERE code = ?`, code)
	return c, err
}

// Default returns the currency flagged is_default, falling back to the
// first by code. Returns sql.ErrNoRows when the ledger is empty; callers
// must handle that case.
func (r *CurrencyRepo) Default() (domain.Currency, error) {
	var c domain.Currency
	err := r.db.Get(&c, `
	  SELECT `+currencyCols+` FROM currencies
	  ORDER BY is_default DESC, code
	  LIMIT 1
	`)
	return c, err
}

// MakeDefault clears every default flag and sets the one winner inside a
// single transaction, so exactly one currency is default afterward.
func (r *CurrencyRepo) MakeDefault(code string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE currencies SET is_default = 0 WHERE is_default = 1`); err != nil {
		return err
	}
	res, err := tx.Exec(`
	  UPDATE currencies SET is_default = 1, updated_at = CURRENT_TIMESTAMP
	  WHERE code = ?
	`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

func (r *CurrencyRepo) SetRate(code string, rate decimal.Decimal) error {
	res, err := r.db.Exec(`
	  UPDATE currencies SET exchange_rate = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE code = ?
	`, rate, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Upsert inserts or refreshes a ledger entry (administrative data loading).
func (r *CurrencyRepo) Upsert(c domain.Currency) error {
	_, err := r.db.Exec(`
	  INSERT INTO currencies(code, name, symbol, exchange_rate, is_active, is_default)
	  VALUES(?, ?, ?, ?, ?, ?)
	  ON CONFLICT(code) DO UPDATE SET
	    name = excluded.name, symbol = excluded.symbol,
	    exchange_rate = excluded.exchange_rate, is_active = excluded.is_active,
	    updated_at = CURRENT_TIMESTAMP
	`, c.Code, c.Name, c.Symbol, c.ExchangeRate, c.IsActive, c.IsDefault)
	return err
}
