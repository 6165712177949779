package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
	"github.com/ovenline/pizzeria-backend/pkg/outbox/payloads"
	"github.com/ovenline/pizzeria-backend/pkg/security"
)

// RegisterService creates customer accounts.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	Outbox         outbox.Emitter
	Login          Service
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          txRunner
	outbox      outbox.Emitter
	issuer      tokenIssuer
	passwordCfg config.PasswordConfig
}

type tokenIssuer interface {
	issue(ctx context.Context, user *models.User, now time.Time) (*TokenResponse, error)
}

// NewRegisterService builds a registration service. Login must be the Service
// returned by NewService so new accounts receive a session immediately.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	issuer, ok := params.Login.(tokenIssuer)
	if !ok {
		return nil, fmt.Errorf("auth service required")
	}
	return &registerService{
		db:          params.DB,
		outbox:      params.Outbox,
		issuer:      issuer,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := security.ValidatePasswordStrength(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         enums.UserRoleCustomer,
		Phone:        trimmedOrNil(req.Phone),
		IsActive:     true,
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		existing, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}

		if err := userRepo.Create(ctx, user); err != nil {
			return db.MapError(err, "user")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserRegistered,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: user.Role},
			Data: payloads.UserRegisteredEvent{
				UserID: user.ID,
				Email:  user.Email,
				Name:   user.Name,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return s.issuer.issue(ctx, user, time.Now().UTC())
}
