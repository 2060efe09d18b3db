package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"mercadito/internal/domain"
	applog "mercadito/internal/log"
	"mercadito/internal/services"
	"mercadito/internal/validate"
)

type CurrencyHandler struct {
	Currency *services.CurrencyService
}

// List shows the ledger, including the current default.
func (h *CurrencyHandler) List(c *fiber.Ctx) error {
	currencies, err := h.Currency.List()
	if err != nil {
		applog.Error(c, "admin.currencies.list.fail", err, nil)
		return jsonErr(c, fiber.StatusInternalServerError, "could not load currencies")
	}
	return c.JSON(fiber.Map{"currencies": currencies})
}

// SetRate updates one entry's exchange rate (rates are maintained by
// hand, never fetched).
func (h *CurrencyHandler) SetRate(c *fiber.Ctx) error {
	code, ok := validate.CurrencyCode(c.FormValue("code"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "invalid currency code")
	}
	rate, err := decimal.NewFromString(c.FormValue("rate"))
	if err != nil || rate.Sign() < 0 {
		return jsonErr(c, fiber.StatusBadRequest, "invalid rate")
	}

	if err := h.Currency.SetRate(code, rate); err != nil {
		if isNoRows(err) {
			return jsonErr(c, fiber.StatusNotFound, "currency not found")
		}
		applog.Error(c, "admin.currencies.rate.fail", err, map[string]any{"code": code})
		return jsonErr(c, fiber.StatusInternalServerError, "could not update rate")
	}
	applog.Audit(c, "admin.currencies.rate", map[string]any{"code": code, "rate": rate.String()})
	return c.JSON(fiber.Map{"ok": true})
}

// Upsert creates a ledger entry or refreshes an existing one.
func (h *CurrencyHandler) Upsert(c *fiber.Ctx) error {
	code, ok := validate.CurrencyCode(c.FormValue("code"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "invalid currency code")
	}
	name := validate.Text(c.FormValue("name"), 60)
	symbol := validate.Text(c.FormValue("symbol"), 5)
	if name == "" || symbol == "" {
		return jsonErr(c, fiber.StatusBadRequest, "name and symbol are required")
	}
	rate, err := decimal.NewFromString(c.FormValue("rate"))
	if err != nil || rate.Sign() < 0 {
		return jsonErr(c, fiber.StatusBadRequest, "invalid rate")
	}

	entry := domain.Currency{
		Code: code, Name: name, Symbol: symbol,
		ExchangeRate: rate,
		IsActive:     c.FormValue("active", "1") != "0",
	}
	if err := h.Currency.Upsert(entry); err != nil {
		applog.Error(c, "admin.currencies.save.fail", err, map[string]any{"code": code})
		return jsonErr(c, fiber.StatusInternalServerError, "could not save currency")
	}
	applog.Audit(c, "admin.currencies.save", map[string]any{"code": code, "rate": rate.String()})
	return c.JSON(fiber.Map{"ok": true})
}

// SetDefault promotes one currency to default, demoting all others.
func (h *CurrencyHandler) SetDefault(c *fiber.Ctx) error {
	code, ok := validate.CurrencyCode(c.FormValue("code"))
	if !ok {
		return jsonErr(c, fiber.StatusBadRequest, "invalid currency code")
	}
	if err := h.Currency.MakeDefault(code); err != nil {
		if isNoRows(err) {
			return jsonErr(c, fiber.StatusNotFound, "currency not found")
		}
		applog.Error(c, "admin.currencies.default.fail", err, map[string]any{"code": code})
		return jsonErr(c, fiber.StatusInternalServerError, "could not set default currency")
	}
	applog.Audit(c, "admin.currencies.default", map[string]any{"code": code})
	return c.JSON(fiber.Map{"ok": true})
}
