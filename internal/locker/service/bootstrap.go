package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/pkg/cryptox"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// BootstrapService makes a fresh deployment usable by ensuring a default
// identity exists. It is a local-development convenience.
type BootstrapService struct {
	Store  store.Store
	Hasher PasswordHasher
}

// EnsureDefaultUser creates du if no user has its username. It is idempotent.
// When du.Password is empty a password is generated and returned so the
// caller can show it once; it is never logged.
func (s *BootstrapService) EnsureDefaultUser(ctx context.Context, du domain.DefaultUser) (bool, string, error) {
	l := slogx.FromContext(ctx)

	username, err := normalizeUsername(du.Username)
	if err != nil {
		return false, "", err
	}
	email, err := normalizeEmail(du.Email)
	if err != nil {
		return false, "", err
	}

	_, err = s.Store.Users().GetUserByUsername(ctx, username)
	if err == nil {
		l.Debug("default user already present", slog.String("username", username))
		return false, "", nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, "", err
	}

	password := du.Password
	generated := ""
	if password == "" {
		if password, err = cryptox.GeneratePassword(); err != nil {
			return false, "", fmt.Errorf("generate default password: %w", err)
		}
		generated = password
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return false, "", fmt.Errorf("hash default password: %w", err)
	}

	u, err := s.Store.Users().CreateUser(ctx, store.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    domain.AvatarURLFor(username),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Either a concurrent bootstrap won, or the email belongs to
			// someone else.
			if _, lookupErr := s.Store.Users().GetUserByUsername(ctx, username); lookupErr == nil {
				return false, "", nil
			}
			return false, "", &ConflictError{Field: "email"}
		}
		return false, "", err
	}

	l.Info("default user created",
		slog.Int64("user_id", u.ID),
		slog.String("username", u.Username),
		slog.Bool("generated_password", generated != ""),
	)
	return true, generated, nil
}
