package products

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// ListFilter narrows catalogue listings.
type ListFilter struct {
	CategorySlug    string
	Featured        *bool
	IncludeDisabled bool
	Page            pagination.Page
}

// Repository persists menu products and categories.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&rows).Error
	return rows, err
}

// FindCategory returns nil without error when the category does not exist.
func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *Repository) SaveCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CountProductsInCategory(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// ListProducts returns one page of products plus the total match count.
func (r *Repository) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if !filter.IncludeDisabled {
			db = db.Where("products.is_available = ?", true)
		}
		if filter.Featured != nil {
			db = db.Where("products.is_featured = ?", *filter.Featured)
		}
		if filter.CategorySlug != "" {
			db = db.Where("products.category_id IN (?)",
				r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Preload("Category").
		Order("products.name ASC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit).
		Find(&rows).Error
	return rows, total, err
}

// FindBySlug returns nil without error when no product matches.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, "slug = ?", slug)
}

// FindByID returns nil without error when no product matches.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").Where(query, arg).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Create(product).Error
}

func (r *Repository) SaveProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Save(product).Error
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
