package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/api/responses"
	"github.com/ovenline/pizzeria-backend/api/validators"
	"github.com/ovenline/pizzeria-backend/internal/orders"
	"github.com/ovenline/pizzeria-backend/pkg/checkout"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

const maxNotesLength = 500

type checkoutRequest struct {
	Phone         *string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address       *string    `json:"address,omitempty" validate:"omitempty,max=255"`
	City          *string    `json:"city,omitempty" validate:"omitempty,max=120"`
	PostalCode    *string    `json:"postalCode,omitempty" validate:"omitempty,max=16"`
	Notes         *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	CouponID      *uuid.UUID `json:"couponId,omitempty"`
	PaymentMethod string     `json:"paymentMethod" validate:"required"`
}

// Checkout converts the caller's cart into an order. A 201 may still carry
// an error field when the payment session could not be opened.
func Checkout(svc orders.CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout service"))
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), userID, orders.CreateOrderInput{
			Delivery: checkout.DeliveryOverride{
				Phone:      body.Phone,
				Address:    body.Address,
				City:       body.City,
				PostalCode: body.PostalCode,
			},
			Notes:         validators.SanitizeOptional(body.Notes, maxNotesLength),
			CouponID:      body.CouponID,
			PaymentMethod: enums.PaymentMethod(strings.ToUpper(strings.TrimSpace(body.PaymentMethod))),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
