package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/pagination"
)

// Service manages customer profiles.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error)
	ListCustomers(ctx context.Context, search string, page, limit int) (*CustomerListResult, error)
}

// ProfileInput carries optional profile changes. An empty string clears an
// optional field.
type ProfileInput struct {
	Name       *string
	Phone      *string
	Address    *string
	City       *string
	PostalCode *string
}

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	ListCustomers(ctx context.Context, search string, page pagination.Page) ([]models.User, int64, error)
}

type service struct {
	repo repository
}

func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		user.Name = name
	}
	applyOptional(&user.Phone, input.Phone)
	applyOptional(&user.Address, input.Address)
	applyOptional(&user.City, input.City)
	applyOptional(&user.PostalCode, input.PostalCode)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) ListCustomers(ctx context.Context, search string, page, limit int) (*CustomerListResult, error) {
	p := pagination.NewPage(page, limit)
	rows, total, err := s.repo.ListCustomers(ctx, search, p)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	result := &CustomerListResult{Customers: make([]UserDTO, 0, len(rows)), Page: p.Info(total)}
	for i := range rows {
		result.Customers = append(result.Customers, *FromModel(&rows[i]))
	}
	return result, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user == nil || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func applyOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}
