package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/internal/realtime"
	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// ItemDTO is one frozen order line.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       string          `json:"price"`
	Size        enums.PizzaSize `json:"size"`
	LineTotal   string          `json:"lineTotal"`
}

// OrderDTO is the order payload shared by customer and admin endpoints.
// Money is rendered with two decimals.
type OrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	UserID            uuid.UUID           `json:"userId"`
	Status            enums.OrderStatus   `json:"status"`
	StatusMessage     string              `json:"statusMessage"`
	PaymentMethod     enums.PaymentMethod `json:"paymentMethod"`
	Subtotal          string              `json:"subtotal"`
	Discount          string              `json:"discount"`
	DeliveryFee       string              `json:"deliveryFee"`
	Tax               string              `json:"tax"`
	Total             string              `json:"total"`
	CouponID          *uuid.UUID          `json:"couponId,omitempty"`
	Address           string              `json:"address"`
	City              string              `json:"city"`
	PostalCode        string              `json:"postalCode"`
	Phone             string              `json:"phone"`
	Notes             *string             `json:"notes,omitempty"`
	EstimatedDelivery time.Time           `json:"estimatedDelivery"`
	CheckoutSessionID *string             `json:"checkoutSessionId,omitempty"`
	Items             []ItemDTO           `json:"items"`
	Customer          *users.UserDTO      `json:"customer,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// CheckoutResult is the checkout response. Error is set when the order was
// placed but the payment session could not be opened.
type CheckoutResult struct {
	Order       *OrderDTO `json:"order"`
	CheckoutURL *string   `json:"checkoutUrl,omitempty"`
	CheckoutID  *string   `json:"checkoutId,omitempty"`
	Error       *string   `json:"error,omitempty"`
}

// CustomerOrderList is one cursor page of a customer's orders.
type CustomerOrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

// AdminOrderList is one offset page of the back-office order list.
type AdminOrderList struct {
	Orders []OrderDTO          `json:"orders"`
	Page   pagination.PageInfo `json:"pagination"`
}

// FromModel renders an order. Items and User are included when loaded.
func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            o.Status,
		StatusMessage:     realtime.MessageFor(o.Status),
		PaymentMethod:     o.PaymentMethod,
		Subtotal:          pricing.Display(o.Subtotal),
		Discount:          pricing.Display(o.Discount),
		DeliveryFee:       pricing.Display(o.DeliveryFee),
		Tax:               pricing.Display(o.Tax),
		Total:             pricing.Display(o.Total),
		CouponID:          o.CouponID,
		Address:           o.Address,
		City:              o.City,
		PostalCode:        o.PostalCode,
		Phone:             o.Phone,
		Notes:             o.Notes,
		EstimatedDelivery: o.EstimatedDelivery,
		CheckoutSessionID: o.CheckoutSessionID,
		Items:             make([]ItemDTO, 0, len(o.Items)),
		Customer:          users.FromModel(o.User),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       pricing.Display(item.Price),
			Size:        item.Size,
			LineTotal:   pricing.Display(pricing.Subtotal([]pricing.LineItem{{UnitPrice: item.Price, Quantity: item.Quantity}})),
		})
	}
	return dto
}
