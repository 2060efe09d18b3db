package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"mercadito/internal/config"
	"mercadito/internal/http/handlers"
	"mercadito/internal/repos"
	"mercadito/internal/services"
)

// newApp wires the real handlers over a seeded in-memory database, with
// the same route layout the server uses.
func newApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", WhatsAppNumber: "5359705886"}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)

	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	app := fiber.New()
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("uid", u.ID)
			}
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, cfg, authSvc)

	app.Get("/", deps.CatalogHandler.Home)
	app.Get("/category/:id", deps.CatalogHandler.ListByCategory)
	app.Get("/product/:id", deps.CatalogHandler.ProductDetail)

	cart := app.Group("/cart", handlers.RequireUser(authSvc))
	cart.Get("/", deps.CartHandler.View)
	cart.Get("/count", deps.CartHandler.Count)
	cart.Post("/", deps.CartHandler.Add)
	cart.Post("/update", deps.CartHandler.Update)
	cart.Post("/remove", deps.CartHandler.Remove)

	app.Post("/checkout", handlers.RequireUser(authSvc), deps.OrderHandler.Checkout)
	app.Get("/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)
	app.Get("/order/:id", handlers.RequireUser(authSvc), deps.OrderHandler.View)

	app.Post("/login", deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	admin := app.Group("/admin", handlers.RequireAdmin(authSvc))
	admin.Get("/orders", deps.AdminHandler.OrdersPage)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Post("/products/stock", deps.AdminHandler.UpdateStock)
	admin.Post("/actions", deps.AdminHandler.RunAction)
	admin.Get("/currencies", deps.CurrencyHandler.List)
	admin.Post("/currencies", deps.CurrencyHandler.Upsert)
	admin.Post("/currencies/rate", deps.CurrencyHandler.SetRate)
	admin.Post("/currencies/default", deps.CurrencyHandler.SetDefault)

	return app, userRepo
}

func doForm(t *testing.T, app *fiber.App, method, path, sid, form string) *http.Response {
	t.Helper()
	var body io.Reader
	if form != "" {
		body = strings.NewReader(form)
	}
	req := httptest.NewRequest(method, path, body)
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}
