// Package tokenstore persists the session token pair under two fixed keys.
//
// A Store is safe for concurrent use. Every call reads or writes the backend
// directly, so the last write wins and there is no locking across calls.
package tokenstore

import (
	"context"
	"errors"

	"auditorium/pkg/constraints"
)

var ErrNotFound = errors.New("token not found")

// Backend is a durable string key/value holder. Get returns ErrNotFound for
// absent keys; Delete ignores keys that do not exist.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type Store struct {
	backend    Backend
	accessKey  string
	refreshKey string
}

type Option func(*Store)

// WithKeys overrides the keys the pair is stored under. Empty values keep
// the defaults.
func WithKeys(accessKey, refreshKey string) Option {
	return func(s *Store) {
		if accessKey != "" {
			s.accessKey = accessKey
		}
		if refreshKey != "" {
			s.refreshKey = refreshKey
		}
	}
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		accessKey:  constraints.AccessTokenKey,
		refreshKey: constraints.RefreshTokenKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewMemory returns a Store over a fresh in-process backend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

// AccessToken returns the stored access token, or "" when none is stored.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.accessKey)
}

func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.backend.Set(ctx, s.accessKey, token)
}

// RefreshToken returns the stored refresh token, or "" when none is stored.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, s.refreshKey)
}

func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	return s.backend.Set(ctx, s.refreshKey, token)
}

// SetPair writes the access token and then the refresh token. The writes are
// independent: if the second fails the first has already landed.
func (s *Store) SetPair(ctx context.Context, access, refresh string) error {
	if err := s.SetAccessToken(ctx, access); err != nil {
		return err
	}
	return s.SetRefreshToken(ctx, refresh)
}

// Clear removes both tokens.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, s.accessKey, s.refreshKey)
}

// IsAuthenticated reports whether an access token is present. Backend
// failures count as not authenticated.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	token, err := s.AccessToken(ctx)
	return err == nil && token != ""
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
