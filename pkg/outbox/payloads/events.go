package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// OrderCreatedEvent is emitted in the checkout transaction.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        uuid.UUID           `json:"user_id"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CouponID      *uuid.UUID          `json:"coupon_id,omitempty"`
	ItemCount     int                 `json:"item_count"`
	Subtotal      string              `json:"subtotal"`
	Discount      string              `json:"discount"`
	Total         string              `json:"total"`
}

// OrderStatusChangedEvent is emitted whenever an order's status is written.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	Source         string            `json:"source"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// UserRegisteredEvent triggers the verification email downstream.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}
