// Package repository defines the persistence contracts of the domain layer.
// Implementations live in internal/infra/persistence.
package repository

import (
	"context"

	"gatehouse/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Sentinel errors returned by repository implementations. Use cases translate
// these into domain errors with the right HTTP mapping for their endpoint.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserUpdate is an explicit optional-field update: a nil pointer means
// "leave this attribute untouched".
type UserUpdate struct {
	Name  *string
	Email *string
}

// IsEmpty reports whether the update carries no fields at all.
func (u *UserUpdate) IsEmpty() bool {
	return u == nil || (u.Name == nil && u.Email == nil)
}

// UserRepository is the credential store boundary. It owns email uniqueness:
// two concurrent Create calls for the same email must result in exactly one
// success and one ErrDuplicateEmail, enforced by the store's unique index
// rather than application-level locking.
type UserRepository interface {
	// Create persists a new user. The store assigns ID and timestamps.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves a user by email, ErrUserNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID retrieves a user by ID, ErrUserNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// UpdateFields applies the non-nil fields of update and returns the
	// refreshed user. ErrUserNotFound if the id is absent.
	UpdateFields(ctx context.Context, id uuid.UUID, update *UserUpdate) (*entity.User, error)

	// UpdatePasswordHash replaces the stored password hash and returns the
	// refreshed user. ErrUserNotFound if the id is absent.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, newHash string) (*entity.User, error)

	// Delete removes a user row. Administrative primitive only; no HTTP
	// endpoint exercises it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// RepositoryFactory creates repository instances bound to one transaction.
type RepositoryFactory interface {
	UserRepo() UserRepository
}

// TransactionManager runs a unit of work inside a single database
// transaction. The callback receives a factory whose repositories all share
// that transaction.
type TransactionManager interface {
	Execute(ctx context.Context, fn func(repoFactory RepositoryFactory) error) error
}
