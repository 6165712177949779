package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// Order is a priced checkout. Money fields are written once at creation;
// only Status, EstimatedDelivery and CheckoutSessionID change afterwards.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'PENDING'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,4);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(12,4);not null"`
	DeliveryFee       decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,4);not null"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(12,4);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(12,4);not null"`
	CouponID          *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	Address           string              `gorm:"column:address;not null"`
	City              string              `gorm:"column:city;not null"`
	PostalCode        string              `gorm:"column:postal_code;not null"`
	Phone             string              `gorm:"column:phone;not null"`
	Notes             *string             `gorm:"column:notes"`
	EstimatedDelivery time.Time           `gorm:"column:estimated_delivery;not null"`
	CheckoutSessionID *string             `gorm:"column:checkout_session_id"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID"`
	User              *User               `gorm:"foreignKey:UserID"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is an immutable line of an order with the unit price frozen at
// checkout time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Size        enums.PizzaSize `gorm:"column:size;type:pizza_size;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
