package enums

import (
	"fmt"
	"strings"
)

// PizzaSize is the size selected for a cart or order line.
type PizzaSize string

const (
	PizzaSizeSmall  PizzaSize = "SMALL"
	PizzaSizeMedium PizzaSize = "MEDIUM"
	PizzaSizeLarge  PizzaSize = "LARGE"
	PizzaSizeXLarge PizzaSize = "XLARGE"
)

var validPizzaSizes = []PizzaSize{
	PizzaSizeSmall,
	PizzaSizeMedium,
	PizzaSizeLarge,
	PizzaSizeXLarge,
}

// IsValid reports whether the value is a known PizzaSize.
func (s PizzaSize) IsValid() bool {
	for _, candidate := range validPizzaSizes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePizzaSize converts raw input into a PizzaSize, defaulting blank input to MEDIUM.
func ParsePizzaSize(value string) (PizzaSize, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return PizzaSizeMedium, nil
	}
	for _, candidate := range validPizzaSizes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid size %q", value)
}
