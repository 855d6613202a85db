package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// writeServiceError maps a service error onto its API error. Anything
// unrecognised is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		conflict *service.ConflictError
		input    *service.InputError
	)

	switch {
	case errors.As(err, &conflict):
		switch conflict.Field {
		case "username":
			lockersdk.ErrUsernameTaken.WriteError(w)
		case "email":
			lockersdk.ErrEmailTaken.WriteError(w)
		default:
			lockersdk.ErrConflict.WriteError(w)
		}
	case errors.As(err, &input):
		lockersdk.NewAPIError(http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest, input.Error()).WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		lockersdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrUnauthenticated):
		lockersdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		lockersdk.ErrInvalidResetToken.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		lockersdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrItemNotFound):
		lockersdk.ErrItemNotFound.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		lockersdk.ErrForbidden.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		lockersdk.ErrServerError.WriteError(w)
	}
}

// writeAuthError handles guard failures. A token whose user has since
// disappeared is indistinguishable from a bad token.
func (r *Router) writeAuthError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrUserNotFound):
		lockersdk.ErrInvalidToken.WriteError(w)
	default:
		writeServiceError(w, req, err)
	}
}
