package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (currencies/categories/products)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Currency ledger. Rates are expressed against the base currency (rate 1).
CREATE TABLE IF NOT EXISTS currencies(
  code TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  symbol TEXT NOT NULL,
  exchange_rate NUMERIC NOT NULL DEFAULT 1 CHECK (exchange_rate >= 0),
  is_active INTEGER NOT NULL DEFAULT 1,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

-- Categories
CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

-- Products. Prices live in the product's own currency; stock can never
-- go negative (checked here and by the conditional decrement at checkout).
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  currency_code TEXT NOT NULL REFERENCES currencies(code) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  purchase_price NUMERIC NOT NULL DEFAULT 0 CHECK (purchase_price >= 0),
  sale_price NUMERIC NOT NULL CHECK (sale_price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  min_stock INTEGER NOT NULL DEFAULT 5,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_products_category   ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at);

-- Carts: at most one per user, created lazily. Items cascade with the cart.
CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  added_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (cart_id, product_id)
);

-- Orders are immutable snapshots; only status and whatsapp_sent change later.
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending','processing','shipped','delivered','cancelled')),
  total_amount NUMERIC NOT NULL,
  delivery_type TEXT NOT NULL CHECK (delivery_type IN ('pickup','delivery')),
  shipping_address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  whatsapp_sent INTEGER NOT NULL DEFAULT 0,
  whatsapp_message TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user       ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id)
);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  full_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM currencies`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting currencies/categories/products")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO currencies(code,name,symbol,exchange_rate,is_active,is_default) VALUES
	  ('CUP','Peso Cubano','₱',1.0000,1,1),
	  ('USD','Dólar Estadounidense','$',0.0417,1,0),
	  ('EUR','Euro','€',0.0385,1,0),
	  ('MXN','Peso Mexicano','$',0.7692,1,0),
	  ('CAD','Dólar Canadiense','C$',0.0308,1,0)`)

	tx.MustExec(`INSERT INTO categories(id,name,description) VALUES
	  ('electronics','Electrónicos','Productos electrónicos y tecnología'),
	  ('clothing','Ropa y Accesorios','Moda y accesorios para toda la familia'),
	  ('home','Hogar y Jardín','Productos para el hogar y jardinería'),
	  ('sports','Deportes','Equipamiento y ropa deportiva')`)

	tx.MustExec(`INSERT INTO products(id,code,category_id,currency_code,name,description,
	    purchase_price,sale_price,stock,min_stock,is_featured) VALUES
	  ('p-galaxy-a54','SM-A545','electronics','CUP','Smartphone Samsung Galaxy A54',
	    'Teléfono inteligente con cámara de 50MP',15000.00,18000.00,25,5,1),
	  ('p-hp-pav15','HP-PAV-15','electronics','CUP','Laptop HP Pavilion 15',
	    'Laptop con procesador Intel i5, 8GB RAM',45000.00,55000.00,10,3,1),
	  ('p-polo-001','POLO-001','clothing','CUP','Camiseta Polo Clásica',
	    'Camiseta polo de algodón 100%',800.00,1200.00,50,10,0),
	  ('p-nike-am','NIKE-AM-001','sports','USD','Zapatillas Deportivas Nike Air Max',
	    'Zapatillas con tecnología Air Max',60.00,95.00,30,5,1)`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Username, Email, FullName, Role, Hash string
	}
	mk := func(id, username, email, fullName, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Username: username, Email: email, FullName: fullName, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-maria", "maria", "maria@mercadito.test", "María Pérez", "USER", "Passw0rd!"),
		mk("u-jose", "jose", "jose@mercadito.test", "", "USER", "Passw0rd!"),
		mk("u-admin", "admin", "admin@mercadito.test", "Administrador", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,username,email,full_name,password_hash,role)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(username) DO NOTHING
		`, x.ID, x.Username, x.Email, x.FullName, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
