package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTokenService is a mock implementation of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(userID uuid.UUID, email string) (string, error) {
	args := m.Called(userID, email)

	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Verify(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockTokenService) TTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()

	e := echo.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(logger).HandleHTTPError

	return e
}

func performRequest(t *testing.T, e *echo.Echo, authHeader string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec, body
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	t.Parallel()

	tokenSvc := new(MockTokenService)
	e := newTestEcho(t)
	e.GET("/auth/me", func(c echo.Context) error {
		t.Fatal("handler should not be reached")

		return nil
	}, middleware.NewAuthMiddleware(tokenSvc).Authenticate)

	rec, body := performRequest(t, e, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHENTICATED", errInfo["code"])
	tokenSvc.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuthenticate_NonBearerScheme(t *testing.T) {
	t.Parallel()

	tokenSvc := new(MockTokenService)
	e := newTestEcho(t)
	e.GET("/auth/me", func(c echo.Context) error {
		t.Fatal("handler should not be reached")

		return nil
	}, middleware.NewAuthMiddleware(tokenSvc).Authenticate)

	rec, body := performRequest(t, e, "Basic dXNlcjpwYXNz")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHENTICATED", errInfo["code"])
	tokenSvc.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuthenticate_RejectedToken(t *testing.T) {
	t.Parallel()

	tokenSvc := new(MockTokenService)
	tokenSvc.On("Verify", "forged").Return(nil, errors.New("signature is invalid"))

	e := newTestEcho(t)
	e.GET("/auth/me", func(c echo.Context) error {
		t.Fatal("handler should not be reached")

		return nil
	}, middleware.NewAuthMiddleware(tokenSvc).Authenticate)

	rec, body := performRequest(t, e, "Bearer forged")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_TOKEN", errInfo["code"])
	tokenSvc.AssertExpectations(t)
}

func TestAuthenticate_ValidTokenSetsPrincipal(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tokenSvc := new(MockTokenService)
	tokenSvc.On("Verify", "valid-token").Return(&service.Claims{
		UserID: userID,
		Email:  "ada@example.com",
	}, nil)

	e := newTestEcho(t)
	e.GET("/auth/me", func(c echo.Context) error {
		assert.Equal(t, userID, c.Get(middleware.ContextKeyUserID))
		assert.Equal(t, "ada@example.com", c.Get(middleware.ContextKeyEmail))

		return c.NoContent(http.StatusOK)
	}, middleware.NewAuthMiddleware(tokenSvc).Authenticate)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	tokenSvc.AssertExpectations(t)
}
