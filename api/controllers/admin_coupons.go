package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/api/responses"
	"github.com/ovenline/pizzeria-backend/api/validators"
	"github.com/ovenline/pizzeria-backend/internal/coupons"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

type createCouponRequest struct {
	Code           string     `json:"code" validate:"required,max=64"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=255"`
	DiscountType   string     `json:"discountType" validate:"required"`
	DiscountValue  string     `json:"discountValue" validate:"required,money"`
	MinOrderAmount string     `json:"minOrderAmount,omitempty" validate:"omitempty,money"`
	MaxUses        *int       `json:"maxUses,omitempty" validate:"omitempty,gte=1"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}

type updateCouponRequest struct {
	Code           *string    `json:"code,omitempty" validate:"omitempty,max=64"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=255"`
	DiscountType   *string    `json:"discountType,omitempty"`
	DiscountValue  *string    `json:"discountValue,omitempty" validate:"omitempty,money"`
	MinOrderAmount *string    `json:"minOrderAmount,omitempty" validate:"omitempty,money"`
	MaxUses        *int       `json:"maxUses,omitempty" validate:"omitempty,gte=1"`
	ClearMaxUses   bool       `json:"clearMaxUses,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	ClearExpiresAt bool       `json:"clearExpiresAt,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}

func AdminListCoupons(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("coupon service"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminCreateCoupon stores a coupon; codes are upper-cased by the service.
func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("coupon service"))
			return
		}
		var body createCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := parseDiscountType(body.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := coupons.CreateCouponInput{
			Code:           body.Code,
			Description:    body.Description,
			DiscountType:   discountType,
			DiscountValue:  money(body.DiscountValue),
			MinOrderAmount: money(body.MinOrderAmount),
			MaxUses:        body.MaxUses,
			ExpiresAt:      body.ExpiresAt,
			IsActive:       body.IsActive == nil || *body.IsActive,
		}
		coupon, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

func AdminUpdateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("coupon service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateCouponRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := coupons.UpdateCouponInput{
			Code:           body.Code,
			Description:    body.Description,
			MaxUses:        body.MaxUses,
			ClearMaxUses:   body.ClearMaxUses,
			ExpiresAt:      body.ExpiresAt,
			ClearExpiresAt: body.ClearExpiresAt,
			IsActive:       body.IsActive,
		}
		if body.DiscountType != nil {
			discountType, err := parseDiscountType(*body.DiscountType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DiscountType = &discountType
		}
		if body.DiscountValue != nil {
			value := money(*body.DiscountValue)
			input.DiscountValue = &value
		}
		if body.MinOrderAmount != nil {
			minimum := money(*body.MinOrderAmount)
			input.MinOrderAmount = &minimum
		}

		coupon, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupon)
	}
}

func AdminDeleteCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("coupon service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parseDiscountType(raw string) (enums.DiscountType, error) {
	discountType, err := enums.ParseDiscountType(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type").
			WithDetails(map[string]any{"field": "discountType"})
	}
	return discountType, nil
}

// money converts a validated amount; blank means zero.
func money(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(raw)
}
