package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatehouse/config"
)

func newTestTokenService(t *testing.T) *jwtService {
	t.Helper()

	cfg := &config.Config{}
	cfg.Secret.Key = "test-secret"
	cfg.Auth = &config.AuthConfig{TokenTTL: time.Hour}

	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	return svc.(*jwtService)
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(&config.Config{})
	require.Error(t, err)
}

func TestJWTService_IssueVerifyRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)
	userID := uuid.New()

	token, err := svc.Issue(userID, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_ExpiredTokenFails(t *testing.T) {
	svc := &jwtService{secret: []byte("test-secret"), ttl: -time.Minute}

	token, err := svc.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
}

func TestJWTService_WrongSecretFails(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Issue(uuid.New(), "a@x.com")
	require.NoError(t, err)

	forged := &jwtService{secret: []byte("another-secret"), ttl: time.Hour}
	_, err = forged.Verify(token)
	require.Error(t, err)
}

func TestJWTService_MalformedTokenFails(t *testing.T) {
	svc := newTestTokenService(t)

	for _, token := range []string{"", "garbage", "aaa.bbb.ccc"} {
		_, err := svc.Verify(token)
		assert.Error(t, err, "token %q should not verify", token)
	}
}
