package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PaymentHandler is a placeholder for a future payment-provider
// integration. It accepts any authenticated request and acknowledges it
// with a generated payment reference.
// TODO: replace with a real provider integration once one is selected.
type PaymentHandler struct{}

func NewPaymentHandler() *PaymentHandler { return &PaymentHandler{} }

// ProcessPayment handles POST /payments (protected).
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Payment successful!",
		"payment_ref": uuid.NewString(),
	})
}
