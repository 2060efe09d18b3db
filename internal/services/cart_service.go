package services

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
	"mercadito/internal/repos"
)

var ErrProductUnavailable = errors.New("product is not available")

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// Add puts qty units of a product into the user's cart, creating the
// cart lazily. Re-adding increments the existing line. The requested
// quantity is checked against current stock before any write.
func (s *CartService) Add(userID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	if !p.IsActive {
		return ErrProductUnavailable
	}
	if qty > p.Stock {
		return &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
	}
	cartID, err := s.Carts.Ensure(userID)
	if err != nil {
		return err
	}
	return s.Carts.UpsertItem(cartID, productID, qty)
}

// Update sets a line's quantity. Zero or less removes the line; more
// than the current stock is rejected.
func (s *CartService) Update(userID, productID string, qty int) error {
	cartID, err := s.Carts.ByUser(userID)
	if err != nil {
		return err
	}
	if qty <= 0 {
		return s.Carts.RemoveItem(cartID, productID)
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &domain.StockError{ProductID: p.ID, Name: p.Name, Requested: qty, Available: p.Stock}
	}
	return s.Carts.SetItemQty(cartID, productID, qty)
}

func (s *CartService) Remove(userID, productID string) error {
	cartID, err := s.Carts.ByUser(userID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveItem(cartID, productID)
}

type CartView struct {
	Lines []repos.CartLine
	Total decimal.Decimal
}

// View lists the cart with live prices. The total sums line subtotals in
// each product's own currency without normalizing.
func (s *CartService) View(userID string) (CartView, error) {
	cartID, err := s.Carts.Ensure(userID)
	if err != nil {
		return CartView{}, err
	}
	lines, err := s.Carts.Lines(cartID)
	if err != nil {
		return CartView{}, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return CartView{Lines: lines, Total: total}, nil
}

func (s *CartService) Count(userID string) (int, error) {
	cartID, err := s.Carts.ByUser(userID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.Carts.Count(cartID)
}
