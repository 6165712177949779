package checkout

import (
	"strings"

	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

// DeliveryInfo is where and how to reach the customer for one order.
type DeliveryInfo struct {
	Phone      string
	Address    string
	City       string
	PostalCode string
}

// DeliveryOverride carries the fields supplied at checkout. Nil or blank
// fields fall back to the customer's profile.
type DeliveryOverride struct {
	Phone      *string
	Address    *string
	City       *string
	PostalCode *string
}

// MissingFieldsDetail is returned when delivery info cannot be completed.
type MissingFieldsDetail struct {
	Missing []string `json:"missing"`
}

// ResolveDelivery merges the override over the profile and validates that
// every field is present.
func ResolveDelivery(override DeliveryOverride, profile *models.User) (DeliveryInfo, error) {
	var fallback DeliveryInfo
	if profile != nil {
		fallback = DeliveryInfo{
			Phone:      deref(profile.Phone),
			Address:    deref(profile.Address),
			City:       deref(profile.City),
			PostalCode: deref(profile.PostalCode),
		}
	}
	info := DeliveryInfo{
		Phone:      pick(override.Phone, fallback.Phone),
		Address:    pick(override.Address, fallback.Address),
		City:       pick(override.City, fallback.City),
		PostalCode: pick(override.PostalCode, fallback.PostalCode),
	}
	if err := ValidateDelivery(info); err != nil {
		return DeliveryInfo{}, err
	}
	return info, nil
}

// ValidateDelivery reports every missing field at once.
func ValidateDelivery(info DeliveryInfo) error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"phone", info.Phone},
		{"address", info.Address},
		{"city", info.City},
		{"postalCode", info.PostalCode},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeIncompleteDeliveryInfo, "delivery information is incomplete").
		WithDetails(MissingFieldsDetail{Missing: missing})
}

func pick(override *string, fallback string) string {
	if override != nil {
		if v := strings.TrimSpace(*override); v != "" {
			return v
		}
	}
	return strings.TrimSpace(fallback)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
