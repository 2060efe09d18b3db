package handlers_test

import (
	"net/http"
	"testing"
)

func TestAdminOrderStatusUpdate(t *testing.T) {
	app, userRepo := newApp(t)
	if err := userRepo.BindSession("sid-admin", "u-admin"); err != nil {
		t.Fatal(err)
	}
	if err := userRepo.BindSession("sid-maria", "u-maria"); err != nil {
		t.Fatal(err)
	}

	// Place an order to operate on.
	_ = doForm(t, app, "POST", "/cart/", "sid-maria", "product_id=p-polo-001&qty=1")
	resp := doForm(t, app, "POST", "/checkout", "sid-maria", "phone=%2B53+5555+5555")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: %d", resp.StatusCode)
	}
	orderID, _ := decodeJSON(t, resp)["order_id"].(string)

	resp = doForm(t, app, "POST", "/admin/orders/"+orderID+"/status", "sid-admin", "status=processing")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update: want 200, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/orders/"+orderID+"/status", "sid-admin", "status=bogus")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus status: want 400, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/orders/no-such-order/status", "sid-admin", "status=shipped")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown order: want 404, got %d", resp.StatusCode)
	}

	// The owner sees the new status.
	resp = doForm(t, app, "GET", "/order/"+orderID, "sid-maria", "")
	if view := decodeJSON(t, resp); view["status"] != "processing" {
		t.Fatalf("want status processing, got %v", view["status"])
	}
}

func TestAdminBulkActions(t *testing.T) {
	app, userRepo := newApp(t)
	if err := userRepo.BindSession("sid-admin", "u-admin"); err != nil {
		t.Fatal(err)
	}

	resp := doForm(t, app, "POST", "/admin/actions", "sid-admin",
		"action=product.deactivate&ids=p-polo-001,p-nike-am")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate: want 200, got %d", resp.StatusCode)
	}
	if body := decodeJSON(t, resp); body["updated"] != float64(2) {
		t.Fatalf("want 2 updated, got %v", body["updated"])
	}

	// Deactivated products disappear from the public catalog.
	resp = doForm(t, app, "GET", "/product/p-polo-001", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("inactive product: want 404, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/actions", "sid-admin", "action=product.activate&ids=p-polo-001")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: want 200, got %d", resp.StatusCode)
	}
	resp = doForm(t, app, "GET", "/product/p-polo-001", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reactivated product: want 200, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/actions", "sid-admin", "action=make.coffee&ids=p-polo-001")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown action: want 400, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/actions", "sid-admin", "action=product.activate&ids=")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty selection: want 400, got %d", resp.StatusCode)
	}
}

func TestAdminCurrencyEndpoints(t *testing.T) {
	app, userRepo := newApp(t)
	if err := userRepo.BindSession("sid-admin", "u-admin"); err != nil {
		t.Fatal(err)
	}

	resp := doForm(t, app, "GET", "/admin/currencies", "sid-admin", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: want 200, got %d", resp.StatusCode)
	}
	body := decodeJSON(t, resp)
	if list, ok := body["currencies"].([]any); !ok || len(list) != 5 {
		t.Fatalf("want 5 seeded currencies, got %v", body["currencies"])
	}

	resp = doForm(t, app, "POST", "/admin/currencies/rate", "sid-admin", "code=USD&rate=0.0500")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set rate: want 200, got %d", resp.StatusCode)
	}
	resp = doForm(t, app, "POST", "/admin/currencies/rate", "sid-admin", "code=USD&rate=-1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative rate: want 400, got %d", resp.StatusCode)
	}
	resp = doForm(t, app, "POST", "/admin/currencies/rate", "sid-admin", "code=usd&rate=abc")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("garbage rate: want 400, got %d", resp.StatusCode)
	}

	// Add a new ledger entry, then promote it.
	resp = doForm(t, app, "POST", "/admin/currencies", "sid-admin",
		"code=GBP&name=Libra+Esterlina&symbol=%C2%A3&rate=0.0330")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upsert: want 200, got %d", resp.StatusCode)
	}
	resp = doForm(t, app, "GET", "/admin/currencies", "sid-admin", "")
	if body := decodeJSON(t, resp); len(body["currencies"].([]any)) != 6 {
		t.Fatalf("want 6 currencies after upsert, got %v", body["currencies"])
	}
	resp = doForm(t, app, "POST", "/admin/currencies", "sid-admin", "code=GBP&symbol=%C2%A3&rate=0.0330")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing name: want 400, got %d", resp.StatusCode)
	}

	resp = doForm(t, app, "POST", "/admin/currencies/default", "sid-admin", "code=USD")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set default: want 200, got %d", resp.StatusCode)
	}
	resp = doForm(t, app, "POST", "/admin/currencies/default", "sid-admin", "code=XXX")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown code: want 404, got %d", resp.StatusCode)
	}
}
