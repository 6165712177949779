package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/ovenline/pizzeria-backend/pkg/auth"
	"github.com/ovenline/pizzeria-backend/pkg/auth/session"
	"github.com/ovenline/pizzeria-backend/pkg/config"
	"github.com/ovenline/pizzeria-backend/pkg/db/models"
	"github.com/ovenline/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/ovenline/pizzeria-backend/pkg/errors"
	"github.com/ovenline/pizzeria-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "pizzeria",
	ExpirationMinutes: 30,
}

func TestServiceLoginIssuesRoleClaim(t *testing.T) {
	user := testUser(t, "admin@example.com", "oven-master-1", enums.UserRoleAdmin)
	svc, sessions, repo := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    " Admin@Example.com ",
		Password: "oven-master-1",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	if _, ok := sessions.records[claims.ID]; !ok {
		t.Fatalf("expected refresh session for jti %s", claims.ID)
	}
	if repo.lastLogin.IsZero() {
		t.Fatal("expected last login to be recorded")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := testUser(t, "mario@example.com", "margherita9", enums.UserRoleCustomer)
	svc, _, _ := buildTestService(t, user)

	cases := []LoginRequest{
		{Email: "mario@example.com", Password: "wrong-pass1"},
		{Email: "nobody@example.com", Password: "margherita9"},
		{Email: "   ", Password: "margherita9"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Email, err)
		}
	}

	user.IsActive = false
	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "margherita9"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}
}

func TestServiceRefreshRotatesSession(t *testing.T) {
	user := testUser(t, "anna@example.com", "quattro4stagioni", enums.UserRoleCustomer)
	svc, sessions, _ := buildTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "quattro4stagioni"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	oldClaims, _ := pkgAuth.ParseAccessToken(testJWT, login.AccessToken)

	refreshed, err := svc.Refresh(context.Background(), login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	newClaims, err := pkgAuth.ParseAccessToken(testJWT, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if newClaims.ID == oldClaims.ID {
		t.Fatal("expected a new jti after refresh")
	}
	if _, ok := sessions.records[oldClaims.ID]; ok {
		t.Fatal("expected old session to be removed")
	}

	if _, err := svc.Refresh(context.Background(), login.AccessToken, login.RefreshToken); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected replayed refresh to be unauthorized, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	user := testUser(t, "luca@example.com", "diavola2024", enums.UserRoleCustomer)
	svc, sessions, _ := buildTestService(t, user)

	login, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "diavola2024"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.records) != 0 {
		t.Fatalf("expected no sessions after logout, got %d", len(sessions.records))
	}
	if err := svc.Logout(context.Background(), "not-a-jwt"); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for garbage token, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: newFakeSessions()}); err == nil {
		t.Fatal("expected error without user repository")
	}
	if _, err := NewService(ServiceParams{UserRepo: &fakeUserRepo{}}); err == nil {
		t.Fatal("expected error without session manager")
	}
}

func buildTestService(t *testing.T, users ...*models.User) (Service, *fakeSessions, *fakeUserRepo) {
	t.Helper()
	repo := &fakeUserRepo{users: users}
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions, repo
}

func testUser(t *testing.T, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test",
		PasswordHash: mustHashPassword(t, password),
		Role:         role,
		IsActive:     true,
	}
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeUserRepo struct {
	users     []*models.User
	lastLogin time.Time
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, at time.Time) error {
	f.lastLogin = at
	return nil
}

type fakeSession struct {
	userID uuid.UUID
	token  string
}

type fakeSessions struct {
	records map[string]fakeSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{records: map[string]fakeSession{}}
}

func (f *fakeSessions) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	token := "refresh-" + accessID
	f.records[accessID] = fakeSession{userID: userID, token: token}
	return token, nil
}

func (f *fakeSessions) Rotate(_ context.Context, oldAccessID, provided string) (session.Rotation, error) {
	rec, ok := f.records[oldAccessID]
	if !ok || rec.token != provided {
		return session.Rotation{}, session.ErrInvalidRefreshToken
	}
	delete(f.records, oldAccessID)
	accessID := session.NewAccessID()
	token, _ := f.Generate(context.Background(), accessID, rec.userID)
	return session.Rotation{AccessID: accessID, RefreshToken: token, UserID: rec.userID}, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.records, accessID)
	return nil
}
