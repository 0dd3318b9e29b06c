// Package client is a Go client for the gatehouse HTTP API. A Client holds
// the current session in memory and mirrors it through a Store, so a process
// restart resumes where the previous one left off. Any 401 or 403 response
// clears the session everywhere before the error is returned.
//
// A Client serves a single user context and is not safe for concurrent use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the service, carrying the envelope's
// machine-readable code and human-readable message.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// ProfileUpdate names the fields to change. Nil fields are left untouched.
// Setting NewPassword requires CurrentPassword.
type ProfileUpdate struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// Client talks to a gatehouse deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	session    *Session
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithStore replaces the session store.
func WithStore(store Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// New builds a Client for the given base URL and restores any persisted
// session from the store.
func New(baseURL string, opts ...Option) (*Client, error) {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      NewFileStore(DefaultStorePath()),
	}

	for _, opt := range opts {
		opt(client)
	}

	session, err := client.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}

	client.session = session

	return client, nil
}

// IsAuthenticated reports whether the client currently holds a session.
func (c *Client) IsAuthenticated() bool {
	return c.session != nil && c.session.Token != ""
}

// CurrentUser returns the last-known profile, or nil when logged out.
func (c *Client) CurrentUser() *User {
	if c.session == nil {
		return nil
	}

	return c.session.User
}

// Token returns the current bearer token, or "" when logged out.
func (c *Client) Token() string {
	if c.session == nil {
		return ""
	}

	return c.session.Token
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	body := map[string]string{"name": name, "email": email, "password": password}

	payload := &sessionPayload{}
	if err := c.do(ctx, http.MethodPost, "/register", body, false, payload); err != nil {
		return nil, err
	}

	return payload.User, c.setSession(&Session{User: payload.User, Token: payload.Token})
}

// Login authenticates with credentials and starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	payload := &sessionPayload{}
	if err := c.do(ctx, http.MethodPost, "/login", body, false, payload); err != nil {
		return nil, err
	}

	return payload.User, c.setSession(&Session{User: payload.User, Token: payload.Token})
}

// Logout drops the session from memory and from the store. The token itself
// stays valid until it expires; the service keeps no session state.
func (c *Client) Logout() error {
	return c.clearSession()
}

// FetchUser refreshes the profile from GET /auth/me.
func (c *Client) FetchUser(ctx context.Context) (*User, error) {
	payload := &profilePayload{}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, true, payload); err != nil {
		return nil, err
	}

	c.session.User = payload.User

	return payload.User, c.persist()
}

// UpdateProfile applies the given changes and adopts the refreshed token the
// service returns alongside the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*User, error) {
	payload := &sessionPayload{}
	if err := c.do(ctx, http.MethodPut, "/auth/me", update, true, payload); err != nil {
		return nil, err
	}

	return payload.User, c.setSession(&Session{User: payload.User, Token: payload.Token})
}

type sessionPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type profilePayload struct {
	User *User `json:"user"`
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		if !c.IsAuthenticated() {
			return &APIError{Status: http.StatusUnauthorized, Code: "UNAUTHENTICATED", Message: "not logged in"}
		}

		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	env := &envelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// The token was rejected or the account is gone; the session is no
		// longer usable on any path.
		if clearErr := c.clearSession(); clearErr != nil {
			return clearErr
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
		}

		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(err, "failed to decode response data")
		}
	}

	return nil
}

func (c *Client) setSession(session *Session) error {
	c.session = session

	return c.persist()
}

func (c *Client) clearSession() error {
	c.session = nil

	return errors.Wrap(c.store.Clear(), "failed to clear session store")
}

func (c *Client) persist() error {
	return errors.Wrap(c.store.Save(c.session), "failed to persist session")
}
