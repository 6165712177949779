package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// Service exposes the public menu and admin catalogue management.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, slug string) (*ProductDTO, error)

	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

// ListProductsInput carries catalogue query parameters.
type ListProductsInput struct {
	Category        string
	Featured        *bool
	Page            int
	Limit           int
	IncludeDisabled bool
}

// CategoryInput is the admin payload for categories. A blank slug is derived
// from the name.
type CategoryInput struct {
	Name        string
	Slug        string
	Description *string
	SortOrder   int
}

// CreateProductInput holds a validated product payload.
type CreateProductInput struct {
	Name        string
	Slug        string
	Description *string
	ImageURL    *string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	IsAvailable bool
	IsFeatured  bool
	PrepTime    *int
}

// UpdateProductInput carries optional product changes.
type UpdateProductInput struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
	Price       *decimal.Decimal
	CategoryID  *uuid.UUID
	IsAvailable *bool
	IsFeatured  *bool
	PrepTime    *int
}

type repository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error)
	CountProductsInCategory(ctx context.Context, id uuid.UUID) (int64, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	SaveProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCategoryDTO(row))
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	page := pagination.NewPage(input.Page, input.Limit)
	rows, total, err := s.repo.ListProducts(ctx, ListFilter{
		CategorySlug:    strings.TrimSpace(strings.ToLower(input.Category)),
		Featured:        input.Featured,
		IncludeDisabled: input.IncludeDisabled,
		Page:            page,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	result := &ProductListResult{
		Products: make([]ProductDTO, 0, len(rows)),
		Page:     page.Info(total),
	}
	for _, row := range rows {
		result.Products = append(result.Products, toProductDTO(row))
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil || !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	category := &models.Category{}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, db.MapError(err, "category")
	}
	dto := toCategoryDTO(*category)
	return &dto, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, db.MapError(err, "category")
	}
	dto := toCategoryDTO(*category)
	return &dto, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	count, err := s.repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}
	deleted, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return db.MapError(err, "category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Slug:        strings.TrimSpace(input.Slug),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
		IsAvailable: input.IsAvailable,
		IsFeatured:  input.IsFeatured,
		PrepTime:    input.PrepTime,
	}
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, db.MapError(err, "product")
	}
	return s.reload(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		product.Slug = strings.TrimSpace(*input.Slug)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = input.ImageURL
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.CategoryID != nil {
		product.CategoryID = *input.CategoryID
		product.Category = nil
	}
	if input.IsAvailable != nil {
		product.IsAvailable = *input.IsAvailable
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	if input.PrepTime != nil {
		product.PrepTime = input.PrepTime
	}

	if err := s.validateProduct(ctx, product); err != nil {
		return nil, err
	}
	if err := s.repo.SaveProduct(ctx, product); err != nil {
		return nil, db.MapError(err, "product")
	}
	return s.reload(ctx, product.ID)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "product appears on past orders; mark it unavailable instead")
		}
		return db.MapError(err, "product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) validateProduct(ctx context.Context, p *models.Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Slug == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	case !p.Price.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	case p.PrepTime != nil && *p.PrepTime < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "prep time cannot be negative")
	}
	category, err := s.repo.FindCategory(ctx, p.CategoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	if category == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	return nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := toProductDTO(*product)
	return &dto, nil
}

func applyCategoryInput(category *models.Category, input CategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	category.Name = name
	category.Slug = slug
	category.Description = input.Description
	category.SortOrder = input.SortOrder
	return nil
}
