package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "mercadito/internal/log"
	"mercadito/internal/repos"
	"mercadito/internal/validate"
)

type AdminHandler struct {
	Orders   *repos.OrderRepo
	Products *repos.ProductRepo
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(fiber.Map{"orders": ords})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, okID := validate.ID(c.Params("id"))
	status, okStatus := validate.OrderStatus(c.FormValue("status"))
	if !okID || !okStatus {
		return jsonErr(c, fiber.StatusBadRequest, "missing id or status")
	}
	if err := h.Orders.UpdateStatus(id, status); err != nil {
		if isNoRows(err) {
			return jsonErr(c, fiber.StatusNotFound, "order not found")
		}
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return jsonErr(c, fiber.StatusInternalServerError, "could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"ok": true})
}

// POST /admin/products/stock
func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	pid, okID := validate.ID(c.FormValue("product_id"))
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if !okID || err != nil || qty < 0 {
		return jsonErr(c, fiber.StatusBadRequest, "invalid input")
	}
	if err := h.Products.SetStock(pid, qty); err != nil {
		if isNoRows(err) {
			return jsonErr(c, fiber.StatusNotFound, "product not found")
		}
		applog.Error(c, "admin.stock.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return jsonErr(c, fiber.StatusInternalServerError, "could not save stock")
	}
	applog.Audit(c, "admin.stock.save", map[string]any{"product": pid, "qty": qty})
	return c.JSON(fiber.Map{"ok": true})
}

// bulkAction applies one named operation to a selection of record ids.
type bulkAction func(ids []string) error

// actions is the explicit command table for batch operations: action
// name to function over the selected records.
func (h *AdminHandler) actions() map[string]bulkAction {
	return map[string]bulkAction{
		"product.activate":       func(ids []string) error { return h.Products.SetActive(ids, true) },
		"product.deactivate":     func(ids []string) error { return h.Products.SetActive(ids, false) },
		"order.whatsapp_sent":    func(ids []string) error { return h.Orders.SetWhatsAppSent(ids, true) },
		"order.whatsapp_pending": func(ids []string) error { return h.Orders.SetWhatsAppSent(ids, false) },
	}
}

// POST /admin/actions with action=<name>&ids=<comma separated>
func (h *AdminHandler) RunAction(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("action"))
	fn, ok := h.actions()[name]
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "unknown action")
	}

	var ids []string
	for _, raw := range strings.Split(c.FormValue("ids"), ",") {
		if id, ok := validate.ID(raw); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return jsonErr(c, fiber.StatusBadRequest, "no records selected")
	}

	if err := fn(ids); err != nil {
		applog.Error(c, "admin.action.fail", err, map[string]any{"action": name, "ids": ids})
		return jsonErr(c, fiber.StatusInternalServerError, "action failed")
	}
	applog.Audit(c, "admin.action", map[string]any{"action": name, "count": len(ids)})
	return c.JSON(fiber.Map{"ok": true, "updated": len(ids)})
}
