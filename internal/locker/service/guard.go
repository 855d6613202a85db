package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/pkg/jwtx"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// AuthGuard resolves a bearer token to the user it was issued to. Every call
// re-validates the token and re-reads the user; nothing is cached.
type AuthGuard struct {
	Tokens *TokenService
	Store  store.Store
}

func (g *AuthGuard) Authenticate(ctx context.Context, bearer string) (domain.User, error) {
	if bearer == "" {
		return domain.User{}, ErrUnauthenticated
	}

	username, err := g.Tokens.Verify(bearer, jwtx.KindSession)
	if err != nil {
		return domain.User{}, collapseTokenError(ctx, err)
	}

	u, err := g.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("lookup session user: %w", err)
	}
	return u, nil
}

// collapseTokenError hides which check failed. The reason is only visible at
// debug level.
func collapseTokenError(ctx context.Context, err error) error {
	slogx.FromContext(ctx).Debug("session token rejected", slog.String("reason", tokenErrorReason(err)))
	return ErrUnauthenticated
}
