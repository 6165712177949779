package cart

import (
	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
)

// ProductSummary is the product snapshot embedded in a cart line.
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"imageUrl,omitempty"`
	IsAvailable bool      `json:"isAvailable"`
}

// ItemDTO is one cart line.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Product   *ProductSummary `json:"product,omitempty"`
	Size      enums.PizzaSize `json:"size"`
	Quantity  int             `json:"quantity"`
	LineTotal string          `json:"lineTotal"`
}

// CartDTO is the customer's cart with its undiscounted subtotal.
type CartDTO struct {
	Items     []ItemDTO `json:"items"`
	ItemCount int       `json:"itemCount"`
	Subtotal  string    `json:"subtotal"`
}

func toItemDTO(item models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Size:      item.Size,
		Quantity:  item.Quantity,
		LineTotal: pricing.Display(pricing.Subtotal(lineItems([]models.CartItem{item}))),
	}
	if p := item.Product; p != nil {
		dto.Product = &ProductSummary{
			ID:          p.ID,
			Name:        p.Name,
			Slug:        p.Slug,
			Price:       pricing.Display(p.Price),
			ImageURL:    p.ImageURL,
			IsAvailable: p.IsAvailable,
		}
	}
	return dto
}

func toCartDTO(items []models.CartItem) *CartDTO {
	dto := &CartDTO{
		Items:    make([]ItemDTO, 0, len(items)),
		Subtotal: pricing.Display(pricing.Subtotal(lineItems(items))),
	}
	for _, item := range items {
		dto.Items = append(dto.Items, toItemDTO(item))
		dto.ItemCount += item.Quantity
	}
	return dto
}

// lineItems prices cart lines at the current product price. Lines whose
// product failed to load contribute nothing.
func lineItems(items []models.CartItem) []pricing.LineItem {
	out := make([]pricing.LineItem, 0, len(items))
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		out = append(out, pricing.LineItem{UnitPrice: item.Product.Price, Quantity: item.Quantity})
	}
	return out
}
