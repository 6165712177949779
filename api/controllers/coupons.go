package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/api/responses"
	"github.com/ovenline/pizzeria-backend/api/validators"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
	// Subtotal accepts a JSON number or a decimal string.
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
}

// ValidateCoupon previews the discount a code would yield for subtotal.
func ValidateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("coupon service"))
			return
		}

		var body validateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Subtotal != nil && body.Subtotal.IsNegative() {
			err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"subtotal": "must be a non-negative amount"})
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		preview, err := svc.Preview(r.Context(), body.Code, body.Subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}
