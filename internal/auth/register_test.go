package auth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ovenline/pizzeria-backend/internal/users"
	"github.com/ovenline/pizzeria-backend/pkg/db"
	"github.com/ovenline/pizzeria-backend/pkg/db/dbtest"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/outbox"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "tx required")
	}
	r.events = append(r.events, event)
	return nil
}

func buildRegisterService(t *testing.T) (RegisterService, *users.Repository, *recordingEmitter) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := users.NewRepository(conn)
	login, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: newFakeSessions(),
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)

	emitter := &recordingEmitter{}
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             db.NewFromConn(conn),
		Outbox:         emitter,
		Login:          login,
		PasswordConfig: testPasswordConfig,
	})
	require.NoError(t, err)
	return svc, repo, emitter
}

func TestRegisterCreatesCustomerAndEmitsEvent(t *testing.T) {
	svc, repo, emitter := buildRegisterService(t)
	phone := " 555-0101 "

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "New.Customer@Example.com",
		Password: "capricciosa7",
		Name:     "  Nuova Cliente ",
		Phone:    &phone,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	stored, err := repo.FindByEmail(context.Background(), "new.customer@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, enums.UserRoleCustomer, stored.Role)
	assert.Equal(t, "Nuova Cliente", stored.Name)
	require.NotNil(t, stored.Phone)
	assert.Equal(t, "555-0101", *stored.Phone)
	assert.NotEqual(t, "capricciosa7", stored.PasswordHash)

	require.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, enums.EventUserRegistered, event.EventType)
	assert.Equal(t, stored.ID, event.AggregateID)
	raw, err := json.Marshal(event.Data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"email":"new.customer@example.com"`)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, emitter := buildRegisterService(t)
	req := RegisterRequest{Email: "dup@example.com", Password: "funghi1234", Name: "Dup"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "DUP@example.com"
	_, err = svc.Register(context.Background(), req)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.Len(t, emitter.events, 1)
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, emitter := buildRegisterService(t)

	cases := []RegisterRequest{
		{Email: "weak@example.com", Password: "short", Name: "Weak"},
		{Email: "nodigits@example.com", Password: "onlyletters", Name: "Letters"},
		{Email: "noname@example.com", Password: "calzone123", Name: "   "},
		{Email: "  ", Password: "calzone123", Name: "Blank"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code(), req.Email)
	}
	assert.Empty(t, emitter.events)
}
