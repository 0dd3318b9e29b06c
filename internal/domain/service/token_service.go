package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity payload embedded in a session token.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies stateless bearer tokens. A token is valid
// iff its signature verifies against the process-wide secret and the current
// time is before its expiry; there is no server-side revocation list.
type TokenService interface {
	// Issue signs a new token carrying the user's identity plus
	// issued-at/expiry timestamps.
	Issue(userID uuid.UUID, email string) (string, error)

	// Verify checks signature and expiry and returns the embedded claims.
	// Malformed, forged and expired tokens all fail.
	Verify(tokenString string) (*Claims, error)

	// TTL returns the configured token lifetime.
	TTL() time.Duration
}
