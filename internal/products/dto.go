package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/internal/pricing"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// CategoryDTO is the public category payload.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	SortOrder   int       `json:"sortOrder"`
}

// ProductDTO is the public product payload.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description *string      `json:"description,omitempty"`
	ImageURL    *string      `json:"imageUrl,omitempty"`
	Price       string       `json:"price"`
	Category    *CategoryDTO `json:"category,omitempty"`
	CategoryID  uuid.UUID    `json:"categoryId"`
	IsAvailable bool         `json:"isAvailable"`
	IsFeatured  bool         `json:"isFeatured"`
	PrepTime    *int         `json:"prepTime,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ProductListResult is one page of the catalogue.
type ProductListResult struct {
	Products []ProductDTO        `json:"products"`
	Page     pagination.PageInfo `json:"pagination"`
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

func toProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       pricing.Display(p.Price),
		CategoryID:  p.CategoryID,
		IsAvailable: p.IsAvailable,
		IsFeatured:  p.IsFeatured,
		PrepTime:    p.PrepTime,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		category := toCategoryDTO(*p.Category)
		dto.Category = &category
	}
	return dto
}
