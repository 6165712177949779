package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// Coupon is a discount rule redeemable by code. Code is stored upper-cased.
type Coupon struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code           string             `gorm:"column:code;not null;uniqueIndex"`
	Description    *string            `gorm:"column:description"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue  decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount decimal.Decimal    `gorm:"column:min_order_amount;type:numeric(12,2);not null;default:0"`
	MaxUses        *int               `gorm:"column:max_uses"`
	UsedCount      int                `gorm:"column:used_count;not null;default:0"`
	ExpiresAt      *time.Time         `gorm:"column:expires_at"`
	IsActive       bool               `gorm:"column:is_active;not null"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
