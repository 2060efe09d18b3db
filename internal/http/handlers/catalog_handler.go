package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "mercadito/internal/log"
	"mercadito/internal/services"
	"mercadito/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// Home lists featured products, latest arrivals and the categories.
func (h *CatalogHandler) Home(c *fiber.Ctx) error {
	hv, err := h.Catalog.Home()
	if err != nil {
		applog.Error(c, "catalog.home.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load the storefront")
	}
	return c.JSON(fiber.Map{
		"featured":   hv.Featured,
		"latest":     hv.Latest,
		"categories": hv.Categories,
	})
}

func (h *CatalogHandler) ListByCategory(c *fiber.Ctx) error {
	catID, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonErr(c, fiber.StatusNotFound, "category not found")
	}
	products, err := h.Catalog.ListProductsByCategory(catID)
	if err != nil {
		applog.Error(c, "catalog.category.fail", err, map[string]any{"category": catID})
		return jsonErr(c, fiber.StatusInternalServerError, "could not load products")
	}
	return c.JSON(fiber.Map{"category": catID, "products": products})
}

func (h *CatalogHandler) ProductDetail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return jsonErr(c, fiber.StatusNotFound, "this item is no longer available")
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || !p.IsActive {
		return jsonErr(c, fiber.StatusNotFound, "this item is no longer available")
	}

	resp := fiber.Map{
		"product":      p,
		"low_stock":    p.IsLowStock(),
		"out_of_stock": p.IsOutOfStock(),
	}
	// Best-effort display conversion into the default currency.
	if price, def, err := h.Catalog.DisplayPrice(p); err == nil {
		resp["display_price"] = price
		resp["display_currency"] = def.Code
	}
	return c.JSON(resp)
}
