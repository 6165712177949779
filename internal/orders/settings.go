package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/config"
)

// CheckoutSettings holds the business knobs applied at checkout.
type CheckoutSettings struct {
	Pricing     pricing.Policy
	CashMinimum decimal.Decimal
	DeliveryETA time.Duration
	SuccessURL  string
	CancelURL   string
}

// DefaultCheckoutSettings mirrors the configuration defaults.
func DefaultCheckoutSettings() CheckoutSettings {
	return CheckoutSettings{
		Pricing:     pricing.DefaultPolicy(),
		CashMinimum: decimal.NewFromInt(10),
		DeliveryETA: 45 * time.Minute,
	}
}

// SettingsFromConfig converts validated checkout config into settings.
func SettingsFromConfig(cfg config.CheckoutConfig) CheckoutSettings {
	return CheckoutSettings{
		Pricing: pricing.Policy{
			FreeDeliveryThreshold: cfg.Decimal(cfg.FreeDeliveryThreshold),
			DeliveryFee:           cfg.Decimal(cfg.DeliveryFee),
			TaxRate:               cfg.Decimal(cfg.TaxRate),
		},
		CashMinimum: cfg.Decimal(cfg.CashMinimum),
		DeliveryETA: cfg.DeliveryETA,
		SuccessURL:  cfg.SuccessURL,
		CancelURL:   cfg.CancelURL,
	}
}
