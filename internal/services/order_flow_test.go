package services_test

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"mercadito/internal/domain"
	"mercadito/internal/repos"
	"mercadito/internal/services"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE currencies(code TEXT PRIMARY KEY, name TEXT, symbol TEXT,
	  exchange_rate NUMERIC NOT NULL DEFAULT 1, is_active INTEGER DEFAULT 1,
	  is_default INTEGER DEFAULT 0, created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE categories(id TEXT PRIMARY KEY, name TEXT, description TEXT DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE products(id TEXT PRIMARY KEY, code TEXT UNIQUE, category_id TEXT,
	  currency_code TEXT, name TEXT, description TEXT DEFAULT '',
	  purchase_price NUMERIC DEFAULT 0, sale_price NUMERIC, stock INTEGER DEFAULT 0,
	  min_stock INTEGER DEFAULT 5, is_active INTEGER DEFAULT 1, is_featured INTEGER DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE carts(id TEXT PRIMARY KEY, user_id TEXT NOT NULL UNIQUE,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE cart_items(cart_id TEXT, product_id TEXT, qty INTEGER,
	  added_at TEXT DEFAULT CURRENT_TIMESTAMP, PRIMARY KEY(cart_id, product_id));
	CREATE TABLE orders(id TEXT PRIMARY KEY, user_id TEXT, order_number TEXT UNIQUE,
	  status TEXT DEFAULT 'pending', total_amount NUMERIC, delivery_type TEXT,
	  shipping_address TEXT DEFAULT '', phone TEXT, notes TEXT DEFAULT '',
	  whatsapp_sent INTEGER DEFAULT 0, whatsapp_message TEXT DEFAULT '',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE order_items(order_id TEXT, product_id TEXT, qty INTEGER, price NUMERIC,
	  PRIMARY KEY(order_id, product_id));
	CREATE TABLE users(id TEXT PRIMARY KEY, username TEXT UNIQUE, email TEXT UNIQUE,
	  full_name TEXT DEFAULT '', password_hash TEXT DEFAULT '', role TEXT DEFAULT 'USER',
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT);
	CREATE TABLE sessions(id TEXT PRIMARY KEY, user_id TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, last_seen TEXT);

	INSERT INTO currencies(code,name,symbol,exchange_rate,is_default) VALUES
	  ('CUP','Peso Cubano','₱',1.0000,1),
	  ('USD','Dólar Estadounidense','$',0.0417,0);
	INSERT INTO categories(id,name) VALUES ('electronics','Electrónicos');
	INSERT INTO products(id,code,category_id,currency_code,name,purchase_price,sale_price,stock) VALUES
	  ('prod-a','PA-001','electronics','CUP','Producto A',60.00,100.00,10),
	  ('prod-b','PB-001','electronics','CUP','Producto B',30.00,50.00,5);
	INSERT INTO users(id,username,email,full_name) VALUES
	  ('u-test','tester','tester@mercadito.test','Tester Uno');
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

func newOrderStack(t *testing.T) (*sqlx.DB, *services.CartService, *services.OrderService) {
	t.Helper()
	db := memdb(t)
	cartRepo := repos.NewCartRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)

	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, orderRepo, userRepo, "5359705886")
	return db, cartSvc, orderSvc
}

var reOrderNumber = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestCheckoutFreezesCartIntoOrder(t *testing.T) {
	db, cartSvc, orderSvc := newOrderStack(t)

	if err := cartSvc.Add("u-test", "prod-a", 2); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add("u-test", "prod-b", 1); err != nil {
		t.Fatal(err)
	}

	res, err := orderSvc.Checkout("u-test", services.CheckoutInput{
		DeliveryType: "pickup",
		Phone:        "+53 5555 5555",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reOrderNumber.MatchString(res.OrderNumber) {
		t.Fatalf("order number must be 8 uppercase alphanumerics, got %q", res.OrderNumber)
	}
	if !strings.Contains(res.WhatsAppURL, "https://wa.me/5359705886?text=") {
		t.Fatalf("missing deep link: %s", res.WhatsAppURL)
	}

	// Total frozen: 2*100 + 1*50
	var total float64
	if err := db.Get(&total, `SELECT total_amount FROM orders WHERE id=?`, res.OrderID); err != nil {
		t.Fatal(err)
	}
	if total != 250 {
		t.Fatalf("want total 250, got %v", total)
	}

	// Items carry the sale price at order time
	type item struct {
		ProductID string  `db:"product_id"`
		Qty       int     `db:"qty"`
		Price     float64 `db:"price"`
	}
	var items []item
	if err := db.Select(&items, `SELECT product_id, qty, price FROM order_items WHERE order_id=? ORDER BY rowid`, res.OrderID); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("want 2 order items, got %d", len(items))
	}
	if items[0].ProductID != "prod-a" || items[0].Qty != 2 || items[0].Price != 100 {
		t.Fatalf("bad first item: %+v", items[0])
	}
	if items[1].ProductID != "prod-b" || items[1].Qty != 1 || items[1].Price != 50 {
		t.Fatalf("bad second item: %+v", items[1])
	}

	// Stock decremented
	var stockA, stockB int
	_ = db.Get(&stockA, `SELECT stock FROM products WHERE id='prod-a'`)
	_ = db.Get(&stockB, `SELECT stock FROM products WHERE id='prod-b'`)
	if stockA != 8 || stockB != 4 {
		t.Fatalf("want stock 8/4 after checkout, got %d/%d", stockA, stockB)
	}

	// Cart and its items are gone
	var carts, cartItems int
	_ = db.Get(&carts, `SELECT COUNT(*) FROM carts WHERE user_id='u-test'`)
	_ = db.Get(&cartItems, `SELECT COUNT(*) FROM cart_items`)
	if carts != 0 || cartItems != 0 {
		t.Fatalf("cart must be deleted with its items, got carts=%d items=%d", carts, cartItems)
	}

	// Message stored, handoff pending
	var sent bool
	var msg, status string
	_ = db.Get(&sent, `SELECT whatsapp_sent FROM orders WHERE id=?`, res.OrderID)
	_ = db.Get(&msg, `SELECT whatsapp_message FROM orders WHERE id=?`, res.OrderID)
	_ = db.Get(&status, `SELECT status FROM orders WHERE id=?`, res.OrderID)
	if sent {
		t.Fatal("whatsapp_sent must start false")
	}
	if !strings.Contains(msg, res.OrderNumber) || !strings.Contains(msg, "Tester Uno") {
		t.Fatalf("stored message incomplete:\n%s", msg)
	}
	if status != "pending" {
		t.Fatalf("want status pending, got %s", status)
	}

	// The message date and the stored row come from one timestamp.
	var createdAt string
	_ = db.Get(&createdAt, `SELECT created_at FROM orders WHERE id=?`, res.OrderID)
	stamp, err := time.Parse("2006-01-02 15:04:05", createdAt)
	if err != nil {
		t.Fatalf("unparseable created_at %q: %v", createdAt, err)
	}
	if want := "DATE: " + stamp.Format("02/01/2006 15:04"); !strings.Contains(msg, want) {
		t.Fatalf("message date disagrees with the stored row, want %q in:\n%s", want, msg)
	}
}

func TestFrozenPriceSurvivesLaterPriceChange(t *testing.T) {
	db, cartSvc, orderSvc := newOrderStack(t)

	if err := cartSvc.Add("u-test", "prod-a", 1); err != nil {
		t.Fatal(err)
	}
	res, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}

	db.MustExec(`UPDATE products SET sale_price=999 WHERE id='prod-a'`)

	var price float64
	if err := db.Get(&price, `SELECT price FROM order_items WHERE order_id=?`, res.OrderID); err != nil {
		t.Fatal(err)
	}
	if price != 100 {
		t.Fatalf("frozen price changed with the product, got %v", price)
	}
}

func TestReAddIncrementsLine(t *testing.T) {
	db, cartSvc, _ := newOrderStack(t)

	if err := cartSvc.Add("u-test", "prod-a", 2); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add("u-test", "prod-a", 3); err != nil {
		t.Fatal(err)
	}

	var rows, qty int
	_ = db.Get(&rows, `SELECT COUNT(*) FROM cart_items`)
	_ = db.Get(&qty, `SELECT qty FROM cart_items WHERE product_id='prod-a'`)
	if rows != 1 || qty != 5 {
		t.Fatalf("re-add must increment one line, got rows=%d qty=%d", rows, qty)
	}
}

func TestCheckoutValidation(t *testing.T) {
	_, cartSvc, orderSvc := newOrderStack(t)

	_, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	if !errors.Is(err, services.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}

	// Emptiness wins over field validation: no phone AND no cart must
	// still report the empty cart.
	_, err = orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup"})
	if !errors.Is(err, services.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart before field checks, got %v", err)
	}

	if err := cartSvc.Add("u-test", "prod-a", 1); err != nil {
		t.Fatal(err)
	}

	_, err = orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup"})
	if !errors.Is(err, services.ErrPhoneRequired) {
		t.Fatalf("want ErrPhoneRequired, got %v", err)
	}

	_, err = orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "delivery", Phone: "555"})
	if !errors.Is(err, services.ErrAddressRequired) {
		t.Fatalf("want ErrAddressRequired, got %v", err)
	}
}

func TestCheckoutInsufficientStockLeavesNothingBehind(t *testing.T) {
	db, cartSvc, orderSvc := newOrderStack(t)

	if err := cartSvc.Add("u-test", "prod-b", 4); err != nil {
		t.Fatal(err)
	}
	// Stock drops after the item was added (admin edit or racing buyer).
	db.MustExec(`UPDATE products SET stock=2 WHERE id='prod-b'`)

	_, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want StockError, got %v", err)
	}
	if stockErr.ProductID != "prod-b" {
		t.Fatalf("stock error must name prod-b, got %+v", stockErr)
	}

	// No partial state: no orders, no items, stock untouched, cart intact
	var orders, orderItems, stock, cartItems int
	_ = db.Get(&orders, `SELECT COUNT(*) FROM orders`)
	_ = db.Get(&orderItems, `SELECT COUNT(*) FROM order_items`)
	_ = db.Get(&stock, `SELECT stock FROM products WHERE id='prod-b'`)
	_ = db.Get(&cartItems, `SELECT COUNT(*) FROM cart_items`)
	if orders != 0 || orderItems != 0 {
		t.Fatalf("partial order persisted: orders=%d items=%d", orders, orderItems)
	}
	if stock != 2 {
		t.Fatalf("stock must be untouched, got %d", stock)
	}
	if cartItems != 1 {
		t.Fatalf("cart must survive a failed checkout, got %d items", cartItems)
	}
}

func TestCheckoutMixedCurrencyCart(t *testing.T) {
	db, cartSvc, orderSvc := newOrderStack(t)
	db.MustExec(`INSERT INTO products(id,code,category_id,currency_code,name,purchase_price,sale_price,stock) VALUES
	  ('prod-usd','PU-001','electronics','USD','Producto USD',60.00,95.00,8)`)

	if err := cartSvc.Add("u-test", "prod-a", 1); err != nil { // 100 CUP
		t.Fatal(err)
	}
	if err := cartSvc.Add("u-test", "prod-usd", 1); err != nil { // 95 USD
		t.Fatal(err)
	}

	res, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}

	// The total is the raw sum of line subtotals in each product's own
	// currency, with no normalization: 100 + 95.
	var total float64
	if err := db.Get(&total, `SELECT total_amount FROM orders WHERE id=?`, res.OrderID); err != nil {
		t.Fatal(err)
	}
	if total != 195 {
		t.Fatalf("want raw mixed total 195, got %v", total)
	}

	// Each message line keeps its own currency symbol.
	if !strings.Contains(res.Message, "- 1x Producto A - ₱100.00") {
		t.Fatalf("missing CUP line:\n%s", res.Message)
	}
	if !strings.Contains(res.Message, "- 1x Producto USD - $95.00") {
		t.Fatalf("missing USD line:\n%s", res.Message)
	}
	if !strings.Contains(res.Message, "TOTAL: 195.00") {
		t.Fatalf("missing raw total:\n%s", res.Message)
	}
}

func TestSequentialCheckoutsGetDistinctNumbers(t *testing.T) {
	_, cartSvc, orderSvc := newOrderStack(t)

	if err := cartSvc.Add("u-test", "prod-a", 1); err != nil {
		t.Fatal(err)
	}
	first, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}

	if err := cartSvc.Add("u-test", "prod-a", 1); err != nil {
		t.Fatal(err)
	}
	second, err := orderSvc.Checkout("u-test", services.CheckoutInput{DeliveryType: "pickup", Phone: "555"})
	if err != nil {
		t.Fatal(err)
	}

	if first.OrderNumber == second.OrderNumber {
		t.Fatalf("order numbers must be unique, both %s", first.OrderNumber)
	}
}

func TestAddRejectsMoreThanStock(t *testing.T) {
	_, cartSvc, _ := newOrderStack(t)

	err := cartSvc.Add("u-test", "prod-b", 6) // stock is 5
	var stockErr *domain.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want StockError, got %v", err)
	}
	if stockErr.Available != 5 || stockErr.Requested != 6 {
		t.Fatalf("bad stock error: %+v", stockErr)
	}
}
