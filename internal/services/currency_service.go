package services

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
	"mercadito/internal/repos"
)

// ErrNoCurrencies is returned when the ledger is empty and no default
// can be produced.
var ErrNoCurrencies = errors.New("currency ledger is empty")

type CurrencyService struct {
	Currencies *repos.CurrencyRepo
}

func NewCurrencyService(currencies *repos.CurrencyRepo) *CurrencyService {
	return &CurrencyService{Currencies: currencies}
}

// Convert exchanges amount between two ledger codes. Unknown codes and
// zero rates degrade to the unconverted amount, mirroring domain.Convert.
func (s *CurrencyService) Convert(amount decimal.Decimal, fromCode, toCode string) (decimal.Decimal, error) {
	if fromCode == toCode {
		return amount, nil
	}
	from, err := s.Currencies.ByCode(fromCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return amount, nil
		}
		return amount, err
	}
	to, err := s.Currencies.ByCode(toCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return amount, nil
		}
		return amount, err
	}
	return domain.Convert(amount, &from, &to), nil
}

func (s *CurrencyService) Default() (domain.Currency, error) {
	c, err := s.Currencies.Default()
	if err == sql.ErrNoRows {
		return domain.Currency{}, ErrNoCurrencies
	}
	return c, err
}

func (s *CurrencyService) List() ([]domain.Currency, error) {
	return s.Currencies.List()
}

func (s *CurrencyService) MakeDefault(code string) error {
	return s.Currencies.MakeDefault(code)
}

func (s *CurrencyService) SetRate(code string, rate decimal.Decimal) error {
	if rate.Sign() < 0 {
		return errors.New("exchange rate cannot be negative")
	}
	return s.Currencies.SetRate(code, rate)
}

// Upsert creates or refreshes a ledger entry. The default flag is not
// touched here; promotion goes through MakeDefault.
func (s *CurrencyService) Upsert(c domain.Currency) error {
	if c.ExchangeRate.Sign() < 0 {
		return errors.New("exchange rate cannot be negative")
	}
	c.IsDefault = false
	return s.Currencies.Upsert(c)
}
