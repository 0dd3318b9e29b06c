// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatehouse/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginInput defines the data required to log in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput carries an arbitrary subset of updatable attributes.
// Nil means "not supplied". Supplying both password fields switches the
// operation into a password change; otherwise the name/email fields are
// applied.
type UpdateProfileInput struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// --- Output DTOs ---

// AuthOutput is the result of any operation that establishes or refreshes a
// session: the profile snapshot plus a bearer token.
type AuthOutput struct {
	User  *entity.User
	Token string
}

// AuthUsecase defines the authentication and profile operations the delivery
// layer depends on. The service is stateless; every call is a complete
// request-scoped unit of work.
type AuthUsecase interface {
	// Register creates a new account and issues a session token.
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login validates credentials and issues a session token.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// GetProfile returns the profile of an authenticated principal.
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// UpdateProfile mutates profile fields or the password and returns the
	// updated profile with a freshly issued token.
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*AuthOutput, error)

	// DeleteAccount removes an account. Administrative operation with no
	// public route; outstanding tokens for the account turn into 403s.
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}
