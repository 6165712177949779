package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
)

const maxLineQuantity = 99

// Service manages a customer's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
}

// AddItemInput is the add-to-cart payload. A blank size means MEDIUM.
type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
	Size      string    `json:"size" validate:"omitempty,oneof=SMALL MEDIUM LARGE XLARGE small medium large xlarge"`
}

type cartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindForUser(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	AddOrIncrement(ctx context.Context, item models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
}

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productLookup
}

func NewService(repo cartRepository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return toCartDTO(items), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	size, err := enums.ParsePizzaSize(input.Size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "product is not available").
			WithDetails(map[string]any{"productId": product.ID})
	}

	stored, err := s.repo.AddOrIncrement(ctx, models.CartItem{
		UserID:    userID,
		ProductID: product.ID,
		Size:      size,
		Quantity:  input.Quantity,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	dto := toItemDTO(*stored)
	return &dto, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	ok, err := s.repo.UpdateQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	item, err := s.repo.FindForUser(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	dto := toItemDTO(*item)
	return &dto, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 || quantity > maxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}
	return nil
}
