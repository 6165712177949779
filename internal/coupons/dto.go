package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// PreviewDTO is the coupon preview returned to shoppers.
type PreviewDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Description    *string            `json:"description"`
	DiscountType   enums.DiscountType `json:"discountType"`
	DiscountValue  string             `json:"discountValue"`
	DiscountAmount string             `json:"discountAmount"`
}

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	Description    *string            `json:"description,omitempty"`
	DiscountType   enums.DiscountType `json:"discountType"`
	DiscountValue  string             `json:"discountValue"`
	MinOrderAmount string             `json:"minOrderAmount"`
	MaxUses        *int               `json:"maxUses,omitempty"`
	UsedCount      int                `json:"usedCount"`
	ExpiresAt      *time.Time         `json:"expiresAt,omitempty"`
	IsActive       bool               `json:"isActive"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

func toCouponDTO(c models.Coupon) CouponDTO {
	return CouponDTO{
		ID:             c.ID,
		Code:           c.Code,
		Description:    c.Description,
		DiscountType:   c.DiscountType,
		DiscountValue:  pricing.Display(c.DiscountValue),
		MinOrderAmount: pricing.Display(c.MinOrderAmount),
		MaxUses:        c.MaxUses,
		UsedCount:      c.UsedCount,
		ExpiresAt:      c.ExpiresAt,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
