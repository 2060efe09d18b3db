package services

import (
	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
	"mercadito/internal/repos"
)

type CatalogService struct {
	Cats     *repos.CategoryRepo
	Prods    *repos.ProductRepo
	Currency *CurrencyService
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, currency *CurrencyService) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Currency: currency}
}

type HomeView struct {
	Featured   []domain.Product
	Latest     []domain.Product
	Categories []domain.Category
}

func (s *CatalogService) Home() (HomeView, error) {
	featured, err := s.Prods.ListFeatured(6)
	if err != nil {
		return HomeView{}, err
	}
	latest, err := s.Prods.ListLatest(8)
	if err != nil {
		return HomeView{}, err
	}
	cats, err := s.Cats.List()
	if err != nil {
		return HomeView{}, err
	}
	return HomeView{Featured: featured, Latest: latest, Categories: cats}, nil
}

func (s *CatalogService) ListProductsByCategory(catID string) ([]domain.Product, error) {
	return s.Prods.ListByCategory(catID)
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

// DisplayPrice converts a product's sale price into the default ledger
// currency for presentation. The stored price stays in the product's own
// currency; only the displayed figure changes.
func (s *CatalogService) DisplayPrice(p domain.Product) (decimal.Decimal, domain.Currency, error) {
	def, err := s.Currency.Default()
	if err != nil {
		return p.SalePrice, domain.Currency{}, err
	}
	converted, err := s.Currency.Convert(p.SalePrice, p.CurrencyCode, def.Code)
	if err != nil {
		return p.SalePrice, def, err
	}
	return converted, def, nil
}
