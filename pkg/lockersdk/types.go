package lockersdk

import "time"

// Messages returned by the public endpoints.
const (
	WelcomeMessage       = "Bem-vindo à API X"
	ResetPasswordMessage = "Senha redefinida com sucesso! Você pode fazer login agora."
)

// ErrorResponse is the wire form of APIError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge a request.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Account Types
// ============================================================================

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user. It never includes the password hash.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// MeResponse is GET /v1/users/me: the caller plus the first page of their
// items.
type MeResponse struct {
	UserResponse
	Items []ItemResponse `json:"items"`
}

// LoginRequest is accepted as JSON or as an x-www-form-urlencoded body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by POST /v1/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
	ExpiresIn   int64  `json:"expires_in"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ============================================================================
// Item Types
// ============================================================================

type ItemRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type ItemResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	OwnerID     int64     `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListOptions pages GET /v1/items. Zero values use the server defaults.
type ListOptions struct {
	Skip  int
	Limit int
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
