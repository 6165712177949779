// Package realtime fans order status changes out to connected customers over a
// shared Redis channel.
package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// StatusEvent is the wire payload published for every order status change.
type StatusEvent struct {
	OrderID   uuid.UUID         `json:"orderId"`
	Status    enums.OrderStatus `json:"status"`
	UserID    uuid.UUID         `json:"userId"`
	Timestamp time.Time         `json:"timestamp"`
}

var statusMessages = map[enums.OrderStatus]string{
	enums.OrderStatusPending:        "Your order has been received.",
	enums.OrderStatusConfirmed:      "Your order is confirmed.",
	enums.OrderStatusPreparing:      "Your pizza is in the oven.",
	enums.OrderStatusOutForDelivery: "Your order is on its way.",
	enums.OrderStatusDelivered:      "Your order has been delivered. Enjoy!",
	enums.OrderStatusCancelled:      "Your order was cancelled.",
}

// MessageFor returns the customer-facing text for a status.
func MessageFor(status enums.OrderStatus) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return "status: " + string(status)
}

// ClientMessage is what a stream subscriber receives.
type ClientMessage struct {
	Type string `json:"type"`
	StatusEvent
	Message string `json:"message"`
}

func clientMessage(event StatusEvent) ClientMessage {
	return ClientMessage{
		Type:        "order_status",
		StatusEvent: event,
		Message:     MessageFor(event.Status),
	}
}
