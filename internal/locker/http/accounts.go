package http

import (
	"mime"
	"net/http"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/metrics"
	"github.com/aussiebroadwan/locker/internal/locker/service"
	"github.com/aussiebroadwan/locker/pkg/httpx"
	"github.com/aussiebroadwan/locker/pkg/lockersdk"
)

// RegisterHandler serves POST /v1/register.
type RegisterHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Register a user
//	@Description	Creates an account. The username is checked before the email. No token is issued.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lockersdk.RegisterRequest	true	"username, email, password"
//	@Success		201		{object}	lockersdk.UserResponse
//	@Failure		400		{object}	lockersdk.ErrorResponse
//	@Failure		409		{object}	lockersdk.ErrorResponse	"username_taken or email_taken"
//	@Failure		500		{object}	lockersdk.ErrorResponse
//	@Router			/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req lockersdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, err)
		return
	}

	u, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	h.Metrics.AuthEvent("register", err == nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

// TokenHandler serves POST /v1/token. It accepts the credentials either
// form-encoded or as a JSON object.
type TokenHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Exchanges a username and password for a session token. Unknown users and wrong passwords get the same response.
//	@Tags			Accounts
//	@Accept			application/x-www-form-urlencoded,json
//	@Produce		json
//	@Param			username	formData	string					true	"Username"
//	@Param			password	formData	string					true	"Password"
//	@Success		200			{object}	lockersdk.TokenResponse	"access_token, token_type, expires_in"
//	@Failure		401			{object}	lockersdk.ErrorResponse	"invalid_credentials"
//	@Failure		415			{object}	lockersdk.ErrorResponse
//	@Failure		429			{object}	lockersdk.ErrorResponse
//	@Header			200			{string}	Cache-Control			"no-store"
//	@Router			/v1/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	sess, err := h.AuthService.Login(r.Context(), creds.Username, creds.Password)
	h.Metrics.AuthEvent("login", err == nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lockersdk.TokenResponse{
		AccessToken: sess.AccessToken,
		TokenType:   sess.TokenType,
		ExpiresIn:   sess.ExpiresIn,
	})
}

func readCredentials(w http.ResponseWriter, r *http.Request) (lockersdk.LoginRequest, bool) {
	var creds lockersdk.LoginRequest

	mediaType := "application/x-www-form-urlencoded"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			lockersdk.ErrInvalidContentType.WriteError(w)
			return creds, false
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		if err := httpx.DecodeJSON(w, r, &creds); err != nil {
			invalidRequest(w, err)
			return creds, false
		}
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			lockersdk.NewAPIError(http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest, "invalid form body").WriteError(w)
			return creds, false
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	default:
		lockersdk.ErrInvalidContentType.WriteError(w)
		return creds, false
	}

	return creds, true
}

// PasswordHandler serves the forgot/reset password pair.
type PasswordHandler struct {
	AuthService *service.AuthService
	Metrics     *metrics.Metrics
}

// HandleForgot godoc
//
//	@Summary		Request a password reset
//	@Description	Always answers with the same message whether or not the email is registered.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lockersdk.ForgotPasswordRequest	true	"email"
//	@Success		200		{object}	lockersdk.MessageResponse
//	@Failure		400		{object}	lockersdk.ErrorResponse
//	@Router			/v1/forgot-password [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	var req lockersdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, err)
		return
	}

	msg, err := h.AuthService.ForgotPassword(r.Context(), req.Email)
	h.Metrics.AuthEvent("forgot_password", err == nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lockersdk.MessageResponse{Message: msg})
}

// HandleReset godoc
//
//	@Summary		Reset a password
//	@Description	Sets a new password using a reset token from forgot-password.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		lockersdk.ResetPasswordRequest	true	"token, new_password"
//	@Success		200		{object}	lockersdk.MessageResponse
//	@Failure		400		{object}	lockersdk.ErrorResponse	"invalid_reset_token"
//	@Failure		404		{object}	lockersdk.ErrorResponse	"user_not_found"
//	@Router			/v1/reset-password [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req lockersdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, err)
		return
	}

	err := h.AuthService.ResetPassword(r.Context(), req.Token, req.NewPassword)
	h.Metrics.AuthEvent("reset_password", err == nil)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, lockersdk.MessageResponse{Message: lockersdk.ResetPasswordMessage})
}

// MeHandler godoc
//
//	@Summary		Current user
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Description	Returns the caller and the first page of their items.
//	@Success		200	{object}	lockersdk.MeResponse
//	@Failure		401	{object}	lockersdk.ErrorResponse
//	@Router			/v1/users/me [get].
func MeHandler(items *service.ItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := currentUser(r)
		if !ok {
			lockersdk.ErrInvalidToken.WriteError(w)
			return
		}

		list, err := items.List(r.Context(), u, service.Page{})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := lockersdk.MeResponse{
			UserResponse: userResponse(u.Public()),
			Items:        make([]lockersdk.ItemResponse, 0, len(list)),
		}
		for _, it := range list {
			out.Items = append(out.Items, itemResponse(it))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

func currentUser(r *http.Request) (domain.User, bool) {
	return httpx.PrincipalFromContext[domain.User](r.Context())
}

func userResponse(u domain.PublicUser) lockersdk.UserResponse {
	return lockersdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

func invalidRequest(w http.ResponseWriter, err error) {
	lockersdk.NewAPIError(http.StatusBadRequest, lockersdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
}
