package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mercadito/internal/domain"
	applog "mercadito/internal/log"
	"mercadito/internal/repos"
	"mercadito/internal/services"
	"mercadito/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Repo  *repos.OrderRepo
}

// Checkout converts the user's cart into an order and answers with the
// WhatsApp deep link the staff operator opens manually.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	u := currentUser(c)

	phone, okPhone := validate.Phone(c.FormValue("phone"))
	if c.FormValue("phone") != "" && !okPhone {
		applog.Security(c, "validation.fail", map[string]any{"field": "phone"})
		return jsonErr(c, fiber.StatusBadRequest, "enter a valid phone number")
	}

	in := services.CheckoutInput{
		DeliveryType:    validate.DeliveryType(c.FormValue("delivery_type")),
		ShippingAddress: validate.Text(c.FormValue("shipping_address"), 500),
		Phone:           phone,
		Notes:           validate.Text(c.FormValue("notes"), 1000),
	}

	res, err := h.Order.Checkout(u.ID, in)
	if err != nil {
		return h.checkoutError(c, err)
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":     res.OrderID,
		"order_number": res.OrderNumber,
		"delivery":     in.DeliveryType,
	})
	return c.JSON(fiber.Map{
		"ok":           true,
		"order_id":     res.OrderID,
		"order_number": res.OrderNumber,
		"message":      res.Message,
		"whatsapp_url": res.WhatsAppURL,
	})
}

func (h *OrderHandler) checkoutError(c *fiber.Ctx, err error) error {
	var stockErr *domain.StockError
	switch {
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrPhoneRequired),
		errors.Is(err, services.ErrAddressRequired):
		return jsonErr(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &stockErr):
		applog.Security(c, "order.place.stock", map[string]any{"product": stockErr.ProductID})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	default:
		// Storage failure mid-transition: everything rolled back.
		applog.Error(c, "order.place.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not place the order, please try again")
	}
}

// View shows one order; owners and admins only.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	oid, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonErr(c, fiber.StatusNotFound, "order not found")
	}

	o, items, err := h.Repo.Get(oid)
	if err != nil {
		return jsonErr(c, fiber.StatusNotFound, "order not found")
	}
	if o.UserID != u.ID && u.Role != "ADMIN" {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return jsonErr(c, fiber.StatusNotFound, "order not found")
	}

	return c.JSON(orderJSON(o, items))
}

// History lists the current user's orders, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load orders")
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func orderJSON(o repos.OrderRow, items []repos.OrderItemRow) fiber.Map {
	lines := make([]fiber.Map, 0, len(items))
	for _, it := range items {
		lines = append(lines, fiber.Map{
			"product_id": it.ProductID,
			"name":       it.Name,
			"qty":        it.Qty,
			"price":      it.Price,
			"subtotal":   it.Subtotal,
		})
	}
	return fiber.Map{
		"id":               o.ID,
		"order_number":     o.OrderNumber,
		"status":           o.Status,
		"total_amount":     o.TotalAmount,
		"delivery_type":    o.DeliveryType,
		"shipping_address": o.ShippingAddress,
		"phone":            o.Phone,
		"notes":            o.Notes,
		"whatsapp_sent":    o.WhatsAppSent,
		"created_at":       o.CreatedAt,
		"items":            lines,
	}
}
