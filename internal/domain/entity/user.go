// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the single principal in the system. The password hash travels with
// the entity inside the service boundary but must never cross the delivery
// layer; handlers map the entity to a response payload that omits it.
type User struct {
	ID           uuid.UUID // Unique, stable identifier assigned at creation. Immutable.
	Email        string    // Login identifier. Unique across all users, case-sensitive.
	Name         string    // Display name.
	PasswordHash string    // bcrypt hash of the current password. Opaque outside the store.
	CreatedAt    time.Time // Timestamp of account creation.
	UpdatedAt    time.Time // Timestamp of the last profile or password mutation.
}
