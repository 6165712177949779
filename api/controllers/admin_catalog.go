package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/api/responses"
	"github.com/ovenline/pizzeria-backend/api/validators"
	"github.com/ovenline/pizzeria-backend/internal/products"
	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug,omitempty" validate:"omitempty,max=140"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	SortOrder   int     `json:"sortOrder" validate:"gte=0"`
}

func (c categoryRequest) input() products.CategoryInput {
	return products.CategoryInput{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

type createProductRequest struct {
	Name        string    `json:"name" validate:"required,max=120"`
	Slug        string    `json:"slug,omitempty" validate:"omitempty,max=140"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	ImageURL    *string   `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Price       string    `json:"price" validate:"required,money"`
	CategoryID  uuid.UUID `json:"categoryId" validate:"required"`
	IsAvailable *bool     `json:"isAvailable,omitempty"`
	IsFeatured  bool      `json:"isFeatured"`
	PrepTime    *int      `json:"prepTime,omitempty" validate:"omitempty,gte=0"`
}

type updateProductRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=120"`
	Slug        *string    `json:"slug,omitempty" validate:"omitempty,max=140"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	ImageURL    *string    `json:"imageUrl,omitempty"`
	Price       *string    `json:"price,omitempty" validate:"omitempty,money"`
	CategoryID  *uuid.UUID `json:"categoryId,omitempty"`
	IsAvailable *bool      `json:"isAvailable,omitempty"`
	IsFeatured  *bool      `json:"isFeatured,omitempty"`
	PrepTime    *int       `json:"prepTime,omitempty" validate:"omitempty,gte=0"`
}

func AdminCreateCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

func AdminUpdateCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body categoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.UpdateCategory(r.Context(), id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// AdminDeleteCategory refuses to delete categories that still hold products.
func AdminDeleteCategory(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminCreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		available := true
		if body.IsAvailable != nil {
			available = *body.IsAvailable
		}
		product, err := svc.CreateProduct(r.Context(), products.CreateProductInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			ImageURL:    body.ImageURL,
			Price:       money(body.Price),
			CategoryID:  body.CategoryID,
			IsAvailable: available,
			IsFeatured:  body.IsFeatured,
			PrepTime:    body.PrepTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminUpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.UpdateProductInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
			ImageURL:    body.ImageURL,
			CategoryID:  body.CategoryID,
			IsAvailable: body.IsAvailable,
			IsFeatured:  body.IsFeatured,
			PrepTime:    body.PrepTime,
		}
		if body.Price != nil {
			price := money(*body.Price)
			input.Price = &price
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminDeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product service"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
