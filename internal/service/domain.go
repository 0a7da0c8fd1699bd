package service

import (
	"time"

	"auditorium/pkg/constraints"
	"auditorium/pkg/logger"

	"go.uber.org/zap"
)

type DomainOptions struct {
	Auth          AuthConfig
	Refresh       RefreshStore // nil keeps refresh tokens in memory
	AdminEmail    string
	AdminPassword string
	BcryptCost    int
	Now           func() time.Time
}

// Domain is the whole in-memory backend behind the dev server.
type Domain struct {
	Auth    *AuthService
	Users   *Directory
	Catalog *Catalog
}

// NewDomain builds the services and seeds the admin account when
// AdminEmail is set.
func NewDomain(opts DomainOptions) (*Domain, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	refresh := opts.Refresh
	if refresh == nil {
		refresh = NewMemoryRefreshStore(now)
	}
	opts.Auth.Now = now

	users := NewDirectory(now, opts.BcryptCost)
	d := &Domain{
		Auth:    NewAuthService(users, NewOTPStore(now), refresh, opts.Auth),
		Users:   users,
		Catalog: NewCatalog(now),
	}

	if opts.AdminEmail != "" {
		admin, err := users.Create("Administrator", opts.AdminEmail, opts.AdminPassword, constraints.RoleAdmin)
		if err != nil {
			return nil, err
		}
		logger.Info("admin account seeded", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	}
	return d, nil
}
