package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/delivery/http/router/handler"
	"gatehouse/internal/delivery/http/validator"
	"gatehouse/internal/domain/entity"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthUsecase is a mock implementation of usecase.AuthUsecase.
type MockAuthUsecase struct {
	mock.Mock
}

func (m *MockAuthUsecase) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

func (m *MockAuthUsecase) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

func (m *MockAuthUsecase) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, input *usecase.UpdateProfileInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*usecase.AuthOutput), args.Error(1)
}

func (m *MockAuthUsecase) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)

	return args.Error(0)
}

func testUser() *entity.User {
	return &entity.User{
		ID:           uuid.New(),
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: "$2a$10$secret-hash",
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

// newTestServer wires an Echo instance the way the real server does, with the
// given user ID pre-set on authenticated routes in place of token checks.
func newTestServer(t *testing.T, uc usecase.AuthUsecase, authedUserID uuid.UUID) *echo.Echo {
	t.Helper()

	e := echo.New()
	e.Validator = validator.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	h := handler.NewAuthHandler(uc, logger)
	e.POST("/register", h.Register)
	e.POST("/login", h.Login)

	setPrincipal := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextKeyUserID, authedUserID)

			return next(c)
		}
	}
	e.GET("/auth/me", h.Me, setPrincipal)
	e.PUT("/auth/me", h.UpdateMe, setPrincipal)

	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	parsed := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))

	return rec, parsed
}

func TestRegister_Created(t *testing.T) {
	t.Parallel()

	user := testUser()
	uc := new(MockAuthUsecase)
	uc.On("Register", mock.Anything, &usecase.RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "password123",
	}).Return(&usecase.AuthOutput{User: user, Token: "token-1"}, nil)

	e := newTestServer(t, uc, uuid.Nil)
	rec, body := doJSON(t, e, http.MethodPost, "/register",
		`{"name":"Ada","email":"ada@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "token-1", data["token"])

	payload := data["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", payload["email"])
	assert.Equal(t, "Ada", payload["name"])
	uc.AssertExpectations(t)
}

func TestRegister_HashNeverSerialized(t *testing.T) {
	t.Parallel()

	user := testUser()
	uc := new(MockAuthUsecase)
	uc.On("Register", mock.Anything, mock.Anything).
		Return(&usecase.AuthOutput{User: user, Token: "token-1"}, nil)

	e := newTestServer(t, uc, uuid.Nil)
	rec, _ := doJSON(t, e, http.MethodPost, "/register",
		`{"name":"Ada","email":"ada@example.com","password":"password123"}`)

	raw := rec.Body.String()
	assert.NotContains(t, raw, user.PasswordHash)
	assert.NotContains(t, strings.ToLower(raw), "passwordhash")
	assert.NotContains(t, raw, `"password"`)
}

func TestRegister_InvalidEmailRejectedBeforeUsecase(t *testing.T) {
	t.Parallel()

	uc := new(MockAuthUsecase)
	e := newTestServer(t, uc, uuid.Nil)

	rec, body := doJSON(t, e, http.MethodPost, "/register",
		`{"name":"Ada","email":"not-an-email","password":"password123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	uc := new(MockAuthUsecase)
	uc.On("Register", mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrDuplicateEmail)

	e := newTestServer(t, uc, uuid.Nil)
	rec, body := doJSON(t, e, http.MethodPost, "/register",
		`{"name":"Ada","email":"ada@example.com","password":"password123"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "DUPLICATE_EMAIL", errInfo["code"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	uc := new(MockAuthUsecase)
	uc.On("Login", mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrInvalidCredentials)

	e := newTestServer(t, uc, uuid.Nil)
	rec, body := doJSON(t, e, http.MethodPost, "/login",
		`{"email":"ada@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_CREDENTIALS", errInfo["code"])
}

func TestMe_ReturnsProfile(t *testing.T) {
	t.Parallel()

	user := testUser()
	uc := new(MockAuthUsecase)
	uc.On("GetProfile", mock.Anything, user.ID).Return(user, nil)

	e := newTestServer(t, uc, user.ID)
	rec, body := doJSON(t, e, http.MethodGet, "/auth/me", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	payload := data["user"].(map[string]any)
	assert.Equal(t, user.ID.String(), payload["id"])
	assert.Equal(t, "ada@example.com", payload["email"])
	uc.AssertExpectations(t)
}

func TestMe_PrincipalDeleted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	uc := new(MockAuthUsecase)
	uc.On("GetProfile", mock.Anything, userID).Return(nil, domainerrors.ErrPrincipalGone)

	e := newTestServer(t, uc, userID)
	rec, body := doJSON(t, e, http.MethodGet, "/auth/me", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "PRINCIPAL_GONE", errInfo["code"])
}

func TestUpdateMe_ReturnsRefreshedToken(t *testing.T) {
	t.Parallel()

	user := testUser()
	name := "Ada Lovelace"
	uc := new(MockAuthUsecase)
	uc.On("UpdateProfile", mock.Anything, user.ID, mock.MatchedBy(func(input *usecase.UpdateProfileInput) bool {
		return input.Name != nil && *input.Name == name && input.NewPassword == nil
	})).Return(&usecase.AuthOutput{User: user, Token: "refreshed-token"}, nil)

	e := newTestServer(t, uc, user.ID)
	rec, body := doJSON(t, e, http.MethodPut, "/auth/me", `{"name":"Ada Lovelace"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]any)
	assert.Equal(t, "refreshed-token", data["token"])
	uc.AssertExpectations(t)
}

func TestUpdateMe_WrongCurrentPassword(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	uc := new(MockAuthUsecase)
	uc.On("UpdateProfile", mock.Anything, userID, mock.Anything).
		Return(nil, domainerrors.ErrInvalidCurrentPassword)

	e := newTestServer(t, uc, userID)
	rec, body := doJSON(t, e, http.MethodPut, "/auth/me",
		`{"currentPassword":"wrong","newPassword":"newpass123"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_CURRENT_PASSWORD", errInfo["code"])
}

func TestUpdateMe_MalformedBody(t *testing.T) {
	t.Parallel()

	uc := new(MockAuthUsecase)
	e := newTestServer(t, uc, uuid.New())

	rec, body := doJSON(t, e, http.MethodPut, "/auth/me", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	uc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}
