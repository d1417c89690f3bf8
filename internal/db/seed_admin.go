package db

import (
	"context"
	"errors"

	"github.com/geocoder89/bloodhub/internal/config"
	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/security"
)

// AdminStore is the slice of a users repository the seeder needs. Both the
// file and postgres repos satisfy it.
type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
}

// EnsureAdminUser creates the configured admin account unless that email is
// already registered. Without ADMIN_EMAIL/ADMIN_PASSWORD it does nothing.
func EnsureAdminUser(ctx context.Context, users AdminStore, cfg config.Config) (created bool, err error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}

	// check if the user exists

	_, err = users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, user.NewUser{
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Name:         user.NormalizeName(&cfg.AdminName),
		Role:         user.RoleAdmin,
	})

	if errors.Is(err, user.ErrEmailTaken) {
		// lost a race with a concurrent registration; the email exists either way
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
