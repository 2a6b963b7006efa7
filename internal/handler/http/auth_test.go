package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaustubh7916/Examprepshare/internal/auth"
	"github.com/kaustubh7916/Examprepshare/internal/domain"
	"github.com/kaustubh7916/Examprepshare/internal/service"
	apperrors "github.com/kaustubh7916/Examprepshare/pkg/errors"
	"github.com/kaustubh7916/Examprepshare/pkg/middleware"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-unit-tests-only", 15*time.Minute, 168*time.Hour)
}

func newAuthHandler(users *mockUserRepo, tokens *mockRefreshTokenRepo) *AuthHandler {
	svc := service.NewUserService(users, tokens, testJWTManager(), testEventProducer(), testLogger())
	return NewAuthHandler(svc, testLogger())
}

// setupAuthRouter creates a chi router matching the production route layout.
func setupAuthRouter(handler *AuthHandler, userID string) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)
	})
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(stubValidator(userID, domain.RoleUser)))
		r.Get("/me", handler.Me)
	})
	return r
}

func storedTestUser(password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           testUserID,
		Email:        "asha@example.com",
		Name:         "Asha Verma",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAuthHandler_Register_Returns201WithTokens(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	users.On("Create", mock.Anything, mock.Anything).Return(nil)
	tokens.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":    "asha@example.com",
		"password": "Sup3rSecret",
		"name":     "Asha Verma",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Data.Tokens.RefreshToken)
	// The password hash must never leak into responses.
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestAuthHandler_Register_InvalidEmail400(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":    "not-an-email",
		"password": "Sup3rSecret",
		"name":     "Asha Verma",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthHandler_Register_DuplicateEmail409(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "asha@example.com"))

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":    "asha@example.com",
		"password": "Sup3rSecret",
		"name":     "Asha Verma",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthHandler_Login_Returns200(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	users.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedTestUser("Sup3rSecret"), nil)
	tokens.On("Create", mock.Anything, testUserID, mock.Anything, mock.Anything).Return(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "asha@example.com",
		"password": "Sup3rSecret",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, testUserID, resp.Data.User.ID)
	assert.NotEmpty(t, resp.Data.Tokens.AccessToken)
}

func TestAuthHandler_Login_WrongPassword401(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	users.On("GetByEmail", mock.Anything, "asha@example.com").Return(storedTestUser("Sup3rSecret"), nil)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "asha@example.com",
		"password": "WrongPassword1",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Refresh_GarbageToken401(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": "not-a-jwt",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_Me_ReturnsProfile(t *testing.T) {
	users := new(mockUserRepo)
	tokens := new(mockRefreshTokenRepo)
	router := setupAuthRouter(newAuthHandler(users, tokens), testUserID)

	users.On("GetByID", mock.Anything, testUserID).Return(storedTestUser("Sup3rSecret"), nil)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/users/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "asha@example.com", resp.Data.Email)
}
