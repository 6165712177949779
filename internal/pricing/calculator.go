// Package pricing computes order totals. It performs no I/O and never rounds;
// callers round only for display and for gateway amounts.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the restaurant's delivery and tax rules.
type Policy struct {
	FreeDeliveryThreshold decimal.Decimal
	DeliveryFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPolicy is free delivery from 25, otherwise a flat 5, and 8% tax.
func DefaultPolicy() Policy {
	return Policy{
		FreeDeliveryThreshold: decimal.NewFromInt(25),
		DeliveryFee:           decimal.NewFromInt(5),
		TaxRate:               decimal.RequireFromString("0.08"),
	}
}

// LineItem is one priced cart or order line.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// DiscountRule is the part of a coupon the calculator needs.
type DiscountRule struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

// Breakdown is the full price of an order.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// DiscountedSubtotal is the subtotal after the discount is applied.
func (b Breakdown) DiscountedSubtotal() decimal.Decimal {
	return b.Subtotal.Sub(b.Discount)
}

// Calculator prices line items under a Policy.
type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) Calculator {
	return Calculator{policy: policy}
}

func (c Calculator) Policy() Policy {
	return c.policy
}

// Subtotal sums unitPrice × quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// Discount applies rule to subtotal. FIXED discounts are clamped so the
// discounted subtotal never goes negative.
func Discount(subtotal decimal.Decimal, rule *DiscountRule) decimal.Decimal {
	if rule == nil || !rule.Value.IsPositive() {
		return decimal.Zero
	}
	switch rule.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(rule.Value).Div(hundred)
	case enums.DiscountTypeFixed:
		return decimal.Min(rule.Value, subtotal)
	default:
		return decimal.Zero
	}
}

// Price runs the full breakdown.
func (c Calculator) Price(items []LineItem, rule *DiscountRule) Breakdown {
	subtotal := Subtotal(items)
	return c.PriceSubtotal(subtotal, Discount(subtotal, rule))
}

// PriceSubtotal prices an already-summed subtotal with a known discount.
func (c Calculator) PriceSubtotal(subtotal, discount decimal.Decimal) Breakdown {
	discounted := subtotal.Sub(discount)
	fee := c.policy.DeliveryFee
	if discounted.GreaterThanOrEqual(c.policy.FreeDeliveryThreshold) {
		fee = decimal.Zero
	}
	tax := discounted.Mul(c.policy.TaxRate)
	return Breakdown{
		Subtotal:    subtotal,
		Discount:    discount,
		DeliveryFee: fee,
		Tax:         tax,
		Total:       discounted.Add(fee).Add(tax),
	}
}

// ToCents converts an amount to the smallest currency unit, rounding half up.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// Display formats an amount with two decimals.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
