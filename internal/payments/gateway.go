package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

const orderIDPlaceholder = "{ORDER_ID}"

// Gateway opens hosted checkout sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// LineSummary describes one order line for the session description.
type LineSummary struct {
	Name     string
	Quantity int
	Size     enums.PizzaSize
}

// CheckoutRequest is everything needed to charge one order.
type CheckoutRequest struct {
	OrderID       uuid.UUID
	CustomerEmail string
	CustomerName  *string
	LineItems     []LineSummary
	Total         decimal.Decimal
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is the gateway's reply.
type CheckoutSession struct {
	SessionID   string
	CheckoutURL string
}

// ChargeName is the single line item label shown on the hosted page.
func ChargeName(orderID uuid.UUID) string {
	return "Order #" + ShortID(orderID)
}

// ShortID is the first block of the order id, upper-cased.
func ShortID(orderID uuid.UUID) string {
	return strings.ToUpper(strings.SplitN(orderID.String(), "-", 2)[0])
}

// Describe summarises lines as "2x Margherita (MEDIUM), 1x Cola (MEDIUM)".
func Describe(lines []LineSummary) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, fmt.Sprintf("%dx %s (%s)", line.Quantity, line.Name, line.Size))
	}
	return strings.Join(parts, ", ")
}

// ResolveURL substitutes the order id into a configured redirect template.
func ResolveURL(template string, orderID uuid.UUID) string {
	return strings.ReplaceAll(template, orderIDPlaceholder, orderID.String())
}
