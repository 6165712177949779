package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// QueryService serves order reads for customers and the back office.
type QueryService interface {
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerOrderList, error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, status string, page, limit int) (*AdminOrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
}

type queryService struct {
	orders Repository
}

func NewQueryService(orders Repository) (QueryService, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &queryService{orders: orders}, nil
}

func (s *queryService) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CustomerOrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.orders.ListForUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &CustomerOrderList{Orders: make([]OrderDTO, 0, len(rows))}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	for i := range rows {
		result.Orders = append(result.Orders, *FromModel(&rows[i]))
	}
	return result, nil
}

// GetMine hides other customers' orders behind NOT_FOUND.
func (s *queryService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil || order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

func (s *queryService) List(ctx context.Context, status string, page, limit int) (*AdminOrderList, error) {
	filter := AdminFilter{Page: pagination.NewPage(page, limit)}
	if raw := strings.TrimSpace(status); raw != "" {
		parsed, err := enums.ParseOrderStatus(strings.ToUpper(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filter.Status = &parsed
	}
	rows, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &AdminOrderList{Orders: make([]OrderDTO, 0, len(rows)), Page: filter.Page.Info(total)}
	for i := range rows {
		result.Orders = append(result.Orders, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *queryService) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}
