package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// User is the client-side profile snapshot.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Session is the client-held state: the last-known profile plus the current
// bearer token. User is non-nil exactly while a login/register/fetch has
// succeeded and no 401/403 or logout has occurred since.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Store persists a session across process restarts. It is the sole source of
// session continuity; there are no cookies and no refresh tokens.
type Store interface {
	// Load returns the persisted session, or nil when none exists.
	Load() (*Session, error)

	// Save replaces the persisted session.
	Save(session *Session) error

	// Clear removes any persisted session.
	Clear() error
}

// fileStore keeps the session as a JSON file with owner-only permissions.
type fileStore struct {
	path string
}

// NewFileStore builds a Store backed by the given file path.
func NewFileStore(path string) Store {
	return &fileStore{path: path}
}

// DefaultStorePath returns the session file location under the XDG state
// directory, falling back to ~/.local/state.
func DefaultStorePath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "state")
	}

	return filepath.Join(base, "gatehouse", "session.json")
}

func (s *fileStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read session file")
	}

	session := &Session{}
	if err := json.Unmarshal(data, session); err != nil {
		// A corrupt session file is treated as no session rather than a
		// permanent failure; the next Save overwrites it.
		return nil, nil
	}

	return session, nil
}

func (s *fileStore) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "failed to encode session")
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}

	return nil
}

func (s *fileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove session file")
	}

	return nil
}
