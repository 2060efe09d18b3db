package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mercadito/internal/domain"
	applog "mercadito/internal/log"
	"mercadito/internal/services"
	"mercadito/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	u := currentUser(c)
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "missing product_id")
	}
	qty := validate.Qty(c.FormValue("qty"))

	if err := h.Cart.Add(u.ID, productID, qty); err != nil {
		return h.cartError(c, "cart.add.fail", productID, err)
	}
	count, _ := h.Cart.Count(u.ID)
	return c.JSON(fiber.Map{"ok": true, "message": "added to cart", "count": count})
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	u := currentUser(c)
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "missing product_id")
	}
	// Zero (or less) removes the line, so don't clamp to 1 here.
	qty, err := strconv.Atoi(strings.TrimSpace(c.FormValue("qty")))
	if err != nil {
		return jsonErr(c, fiber.StatusBadRequest, "invalid qty")
	}

	if err := h.Cart.Update(u.ID, productID, qty); err != nil {
		return h.cartError(c, "cart.update.fail", productID, err)
	}
	return c.JSON(fiber.Map{"ok": true, "message": "cart updated"})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	u := currentUser(c)
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "missing product_id")
	}
	if err := h.Cart.Remove(u.ID, productID); err != nil {
		return h.cartError(c, "cart.remove.fail", productID, err)
	}
	return c.JSON(fiber.Map{"ok": true, "message": "removed from cart"})
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	u := currentUser(c)
	cv, err := h.Cart.View(u.ID)
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load your cart")
	}
	lines := make([]fiber.Map, 0, len(cv.Lines))
	for _, l := range cv.Lines {
		lines = append(lines, fiber.Map{
			"product_id": l.ProductID,
			"name":       l.Name,
			"qty":        l.Qty,
			"currency":   l.CurrencyCode,
			"unit_price": l.UnitPrice,
			"subtotal":   l.Subtotal(),
		})
	}
	return c.JSON(fiber.Map{"items": lines, "total": cv.Total})
}

func (h *CartHandler) Count(c *fiber.Ctx) error {
	u := currentUser(c)
	count, err := h.Cart.Count(u.ID)
	if err != nil {
		applog.Error(c, "cart.count.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load your cart")
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *CartHandler) cartError(c *fiber.Ctx, action, productID string, err error) error {
	var stockErr *domain.StockError
	switch {
	case errors.As(err, &stockErr):
		return jsonErr(c, fiber.StatusConflict, stockErr.Error())
	case errors.Is(err, services.ErrProductUnavailable):
		return jsonErr(c, fiber.StatusNotFound, "product not found")
	case isNoRows(err):
		return jsonErr(c, fiber.StatusNotFound, "product not found")
	default:
		applog.Error(c, action, err, map[string]any{"product": productID})
		return jsonErr(c, fiber.StatusInternalServerError, "something went wrong, please try again")
	}
}
