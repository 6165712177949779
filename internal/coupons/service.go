package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

// Service exposes coupon preview for shoppers and coupon management for admins.
type Service interface {
	Preview(ctx context.Context, code string, subtotal *decimal.Decimal) (*PreviewDTO, error)
	List(ctx context.Context) ([]CouponDTO, error)
	Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCouponInput holds a validated admin payload.
type CreateCouponInput struct {
	Code           string
	Description    *string
	DiscountType   enums.DiscountType
	DiscountValue  decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        *int
	ExpiresAt      *time.Time
	IsActive       bool
}

// UpdateCouponInput carries optional changes. ClearMaxUses and ClearExpiresAt
// remove the limit instead of leaving it untouched.
type UpdateCouponInput struct {
	Code           *string
	Description    *string
	DiscountType   *enums.DiscountType
	DiscountValue  *decimal.Decimal
	MinOrderAmount *decimal.Decimal
	MaxUses        *int
	ClearMaxUses   bool
	ExpiresAt      *time.Time
	ClearExpiresAt bool
	IsActive       *bool
}

type repository interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Save(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo repository
	now  func() time.Time
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Preview(ctx context.Context, code string, subtotal *decimal.Decimal) (*PreviewDTO, error) {
	if NormalizeCode(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if err := Evaluate(coupon, subtotal, s.now()); err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if subtotal != nil {
		amount = pricing.Discount(*subtotal, RuleFor(coupon))
	} else if coupon.DiscountType == enums.DiscountTypeFixed {
		amount = coupon.DiscountValue
	}
	return &PreviewDTO{
		ID:             coupon.ID,
		Code:           coupon.Code,
		Description:    coupon.Description,
		DiscountType:   coupon.DiscountType,
		DiscountValue:  pricing.Display(coupon.DiscountValue),
		DiscountAmount: pricing.Display(amount),
	}, nil
}

func (s *service) List(ctx context.Context) ([]CouponDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	out := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCouponDTO(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	coupon := &models.Coupon{
		Code:           NormalizeCode(input.Code),
		Description:    trimmedOrNil(input.Description),
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		MaxUses:        input.MaxUses,
		ExpiresAt:      input.ExpiresAt,
		IsActive:       input.IsActive,
	}
	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, db.MapError(err, "coupon")
	}
	dto := toCouponDTO(*coupon)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if coupon == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}

	if input.Code != nil {
		coupon.Code = NormalizeCode(*input.Code)
	}
	if input.Description != nil {
		coupon.Description = trimmedOrNil(input.Description)
	}
	if input.DiscountType != nil {
		coupon.DiscountType = *input.DiscountType
	}
	if input.DiscountValue != nil {
		coupon.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		coupon.MinOrderAmount = *input.MinOrderAmount
	}
	switch {
	case input.ClearMaxUses:
		coupon.MaxUses = nil
	case input.MaxUses != nil:
		coupon.MaxUses = input.MaxUses
	}
	switch {
	case input.ClearExpiresAt:
		coupon.ExpiresAt = nil
	case input.ExpiresAt != nil:
		coupon.ExpiresAt = input.ExpiresAt
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := validateCoupon(coupon); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, db.MapError(err, "coupon")
	}
	dto := toCouponDTO(*coupon)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func validateCoupon(c *models.Coupon) error {
	switch {
	case c.Code == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	case !c.DiscountType.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "discount type must be PERCENTAGE or FIXED")
	case !c.DiscountValue.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be greater than zero")
	case c.DiscountType == enums.DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)):
		return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	case c.MinOrderAmount.IsNegative():
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount cannot be negative")
	case c.MaxUses != nil && *c.MaxUses < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "max uses must be at least 1")
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
