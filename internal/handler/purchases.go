package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"books-gateway/internal/purchase"
)

// PurchaseHandler accepts pushed batches of queued purchase messages.
type PurchaseHandler struct {
	validator *purchase.Validator
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(v *purchase.Validator) *PurchaseHandler {
	return &PurchaseHandler{validator: v}
}

// Handle validates a batch. Individual bad records are reported, not fatal;
// only a malformed envelope is rejected.
func (h *PurchaseHandler) Handle(c echo.Context) error {
	var ev purchase.Event
	if err := json.NewDecoder(c.Request().Body).Decode(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "request body must be a queue event with a Records array",
		})
	}

	res, err := h.validator.Process(c.Request().Context(), ev)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "batch interrupted",
		})
	}
	return c.JSON(http.StatusOK, res)
}
