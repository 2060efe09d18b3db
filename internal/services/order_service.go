package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
	"mercadito/internal/notify"
	"mercadito/internal/repos"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrPhoneRequired   = errors.New("phone is required")
	ErrAddressRequired = errors.New("shipping address is required for delivery")
)

type OrderService struct {
	Carts  *repos.CartRepo
	Orders *repos.OrderRepo
	Users  *repos.UserRepo

	// WhatsAppNumber is the staff number the checkout deep link targets.
	WhatsAppNumber string
}

func NewOrderService(carts *repos.CartRepo, orders *repos.OrderRepo, users *repos.UserRepo, whatsAppNumber string) *OrderService {
	return &OrderService{Carts: carts, Orders: orders, Users: users, WhatsAppNumber: whatsAppNumber}
}

type CheckoutInput struct {
	DeliveryType    string // pickup | delivery
	ShippingAddress string
	Phone           string
	Notes           string
}

type CheckoutResult struct {
	OrderID     string
	OrderNumber string
	Message     string
	WhatsAppURL string
}

// Checkout freezes the user's cart into an immutable order. Validation
// happens before any mutation; the order insert, item copies, stock
// decrements and cart deletion then run in one transaction, so either
// the whole transition persists or none of it does.
func (s *OrderService) Checkout(userID string, in CheckoutInput) (CheckoutResult, error) {
	// An empty cart is rejected before any field validation.
	cartID, err := s.Carts.ByUser(userID)
	if err == sql.ErrNoRows {
		return CheckoutResult{}, ErrEmptyCart
	}
	if err != nil {
		return CheckoutResult{}, err
	}
	lines, err := s.Carts.Lines(cartID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(lines) == 0 {
		return CheckoutResult{}, ErrEmptyCart
	}

	if in.Phone == "" {
		return CheckoutResult{}, ErrPhoneRequired
	}
	if in.DeliveryType == domain.DeliveryDelivery && in.ShippingAddress == "" {
		return CheckoutResult{}, ErrAddressRequired
	}

	// Entry pre-check so the caller gets the offending product named
	// before anything is written. The conditional decrement inside the
	// transaction is the authoritative guard against races.
	for _, l := range lines {
		if l.Qty > l.Stock {
			return CheckoutResult{}, &domain.StockError{
				ProductID: l.ProductID, Name: l.Name, Requested: l.Qty, Available: l.Stock,
			}
		}
	}

	// Line prices are summed in each product's own currency; a cart
	// holding mixed currencies produces a mixed total.
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}

	number, err := s.newOrderNumber()
	if err != nil {
		return CheckoutResult{}, err
	}

	user, err := s.Users.ByID(userID)
	if err != nil {
		return CheckoutResult{}, err
	}

	// One timestamp feeds both the rendered message and the stored row,
	// so the two can never disagree.
	createdAt := time.Now().UTC()
	msgItems := make([]notify.Line, 0, len(lines))
	items := make([]repos.DraftItem, 0, len(lines))
	for _, l := range lines {
		msgItems = append(msgItems, notify.Line{
			Qty: l.Qty, Name: l.Name, Symbol: l.Symbol, Price: l.UnitPrice,
		})
		items = append(items, repos.DraftItem{
			ProductID: l.ProductID, Name: l.Name, Qty: l.Qty, Price: l.UnitPrice,
		})
	}
	message := notify.Message(notify.Order{
		Number:          number,
		Customer:        user.DisplayName(),
		Phone:           in.Phone,
		Items:           msgItems,
		Total:           total,
		DeliveryType:    in.DeliveryType,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		CreatedAt:       createdAt,
	})

	draft := repos.Draft{
		ID:              uuid.NewString(),
		UserID:          userID,
		Number:          number,
		Total:           total,
		DeliveryType:    in.DeliveryType,
		ShippingAddress: in.ShippingAddress,
		Phone:           in.Phone,
		Notes:           in.Notes,
		Message:         message,
		CreatedAt:       createdAt.Format("2006-01-02 15:04:05"),
	}
	if err := s.Orders.CreateFromCart(draft, items, cartID); err != nil {
		if pid, ok := repos.ShortfallProduct(err); ok {
			// Lost a race since the pre-check; report the product.
			for _, l := range lines {
				if l.ProductID == pid {
					return CheckoutResult{}, &domain.StockError{
						ProductID: pid, Name: l.Name, Requested: l.Qty, Available: l.Stock,
					}
				}
			}
			return CheckoutResult{}, &domain.StockError{ProductID: pid}
		}
		return CheckoutResult{}, err
	}

	return CheckoutResult{
		OrderID:     draft.ID,
		OrderNumber: number,
		Message:     message,
		WhatsAppURL: notify.DeepLink(s.WhatsAppNumber, message),
	}, nil
}

const (
	orderNumberLen      = 8
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberRetries  = 5
)

// newOrderNumber draws 8 random uppercase-alphanumeric characters and
// retries on the (very unlikely) collision with an existing order.
func (s *OrderService) newOrderNumber() (string, error) {
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		b := make([]byte, orderNumberLen)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		for i := range b {
			b[i] = orderNumberAlphabet[int(b[i])%len(orderNumberAlphabet)]
		}
		number := string(b)
		exists, err := s.Orders.NumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique order number after %d attempts", orderNumberRetries)
}
