package coupons

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

// MinimumDetail is attached to COUPON_BELOW_MINIMUM errors.
type MinimumDetail struct {
	MinOrderAmount string `json:"minOrderAmount"`
}

// NormalizeCode is the canonical stored form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate applies the redemption rules in order: existence, active flag,
// expiry, usage cap and, when subtotal is given, the order minimum.
func Evaluate(coupon *models.Coupon, subtotal *decimal.Decimal, now time.Time) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeCouponNotFound, "coupon not found")
	}
	if !coupon.IsActive {
		return pkgerrors.New(pkgerrors.CodeCouponInactive, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		return pkgerrors.New(pkgerrors.CodeCouponExpired, "coupon has expired")
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return pkgerrors.New(pkgerrors.CodeCouponExhausted, "coupon usage limit reached")
	}
	if subtotal != nil && subtotal.LessThan(coupon.MinOrderAmount) {
		return pkgerrors.New(pkgerrors.CodeCouponBelowMinimum, "order subtotal below coupon minimum").
			WithDetails(MinimumDetail{MinOrderAmount: pricing.Display(coupon.MinOrderAmount)})
	}
	return nil
}

// RuleFor extracts the pricing rule carried by a coupon.
func RuleFor(coupon *models.Coupon) *pricing.DiscountRule {
	if coupon == nil {
		return nil
	}
	return &pricing.DiscountRule{Type: coupon.DiscountType, Value: coupon.DiscountValue}
}
