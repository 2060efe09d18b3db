package handlers

import (
	"github.com/jmoiron/sqlx"

	"mercadito/internal/config"
	"mercadito/internal/repos"
	"mercadito/internal/services"
)

type Deps struct {
	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	CurrencyHandler *CurrencyHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService) *Deps {
	currencyRepo := repos.NewCurrencyRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)

	currencySvc := services.NewCurrencyService(currencyRepo)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, currencySvc)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, userRepo, cfg.WhatsAppNumber)

	return &Deps{
		AuthHandler:     &AuthHandler{Auth: auth},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc, Repo: orderRepo},
		CurrencyHandler: &CurrencyHandler{Currency: currencySvc},
		AdminHandler:    &AdminHandler{Orders: orderRepo, Products: prodRepo},
	}
}
