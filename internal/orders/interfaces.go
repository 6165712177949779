package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// Repository exposes order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error
	ListForUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	List(ctx context.Context, filter AdminFilter) ([]models.Order, int64, error)
	ListStalePending(ctx context.Context, method enums.PaymentMethod, before time.Time, limit int) ([]models.Order, error)
}

// AdminFilter narrows the back-office order list.
type AdminFilter struct {
	Status *enums.OrderStatus
	Page   pagination.Page
}
