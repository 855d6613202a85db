package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
	"github.com/aussiebroadwan/locker/internal/locker/store"
	"github.com/aussiebroadwan/locker/pkg/cryptox"
	"github.com/aussiebroadwan/locker/pkg/jwtx"
	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// ForgotPasswordMessage is returned for every forgot-password request,
// registered email or not.
const ForgotPasswordMessage = "Se o email estiver registrado, você receberá um link de redefinição."

const (
	MaxUsernameLength = 64
	MaxPasswordLength = 256
)

// PasswordHasher is satisfied by *cryptox.Hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// ResetDelivery is the out-of-band payload for a password reset.
type ResetDelivery struct {
	To        string
	ResetURL  string
	Token     string
	ExpiresAt time.Time
}

// TokenDelivery sends reset links to users. Implementations live in the
// delivery package.
type TokenDelivery interface {
	Deliver(ctx context.Context, d ResetDelivery) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Session is what a successful login hands back.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64 // seconds
	ExpiresAt   time.Time
}

type AuthService struct {
	Store    store.Store
	Hasher   PasswordHasher
	Tokens   *TokenService
	Delivery TokenDelivery

	// ResetURL is the frontend page that accepts ?token=.
	ResetURL string

	// DeliveryTimeout bounds each background delivery. Zero means
	// DefaultDeliveryTimeout.
	DeliveryTimeout time.Duration

	dummyOnce sync.Once
	dummyHash string

	pending sync.WaitGroup
}

const DefaultDeliveryTimeout = 30 * time.Second

// Register creates a user. Username is checked before email. No token is
// issued; the caller logs in separately.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.PublicUser, error) {
	l := slogx.FromContext(ctx)

	username, err := normalizeUsername(in.Username)
	if err != nil {
		return domain.PublicUser{}, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.PublicUser{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return domain.PublicUser{}, err
	}

	if taken, err := s.exists(ctx, s.Store.Users().GetUserByUsername, username); err != nil {
		return domain.PublicUser{}, err
	} else if taken {
		return domain.PublicUser{}, &ConflictError{Field: "username"}
	}
	if taken, err := s.exists(ctx, s.Store.Users().GetUserByEmail, email); err != nil {
		return domain.PublicUser{}, err
	} else if taken {
		return domain.PublicUser{}, &ConflictError{Field: "email"}
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return domain.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Store.Users().CreateUser(ctx, store.NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    domain.AvatarURLFor(username),
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with a concurrent registration.
			return domain.PublicUser{}, &ConflictError{}
		}
		return domain.PublicUser{}, err
	}

	l.Info("user registered", slog.Int64("user_id", u.ID), slog.String("username", u.Username))
	return u.Public(), nil
}

func (s *AuthService) exists(
	ctx context.Context,
	lookup func(context.Context, string) (domain.User, error),
	key string,
) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Login verifies credentials and issues a session token. Unknown users and
// wrong passwords produce the same error and take comparable time.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return Session{}, err
		}
		s.Hasher.Verify(password, s.dummy())
		l.Info("login failed")
		return Session{}, ErrInvalidCredentials
	}

	if !s.Hasher.Verify(password, u.PasswordHash) {
		l.Info("login failed")
		return Session{}, ErrInvalidCredentials
	}

	tok, exp, err := s.Tokens.IssueSession(u.Username)
	if err != nil {
		l.Error("failed to sign session token", slog.Any("error", err))
		return Session{}, err
	}

	l.Info("login succeeded", slog.Int64("user_id", u.ID))
	return Session{
		AccessToken: tok,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.Tokens.SessionTTL().Seconds()),
		ExpiresAt:   exp,
	}, nil
}

// dummy returns a real digest for the unknown-user path of Login so both
// paths pay for one hash verification.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		pw, err := cryptox.GeneratePassword()
		if err != nil {
			pw = "locker-dummy-password"
		}
		s.dummyHash, _ = s.Hasher.Hash(pw)
	})
	return s.dummyHash
}

// ForgotPassword issues a reset token for a registered email and hands it to
// Delivery in the background. The returned message is identical whether or
// not the email is registered. Delivery failures are logged, never surfaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	l := slogx.FromContext(ctx)

	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ForgotPasswordMessage, nil
		}
		return "", err
	}

	tok, exp, err := s.Tokens.IssueReset(u.Email)
	if err != nil {
		l.Error("failed to sign reset token", slog.Any("error", err))
		return "", err
	}

	if s.Delivery != nil {
		d := ResetDelivery{
			To:        u.Email,
			ResetURL:  s.resetLink(tok),
			Token:     tok,
			ExpiresAt: exp,
		}
		// Delivery never delays the response.
		s.pending.Add(1)
		go s.deliver(context.WithoutCancel(ctx), u.ID, d)
	}

	return ForgotPasswordMessage, nil
}

func (s *AuthService) deliver(ctx context.Context, userID int64, d ResetDelivery) {
	defer s.pending.Done()
	l := slogx.FromContext(ctx)

	timeout := s.DeliveryTimeout
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Delivery.Deliver(ctx, d); err != nil {
		l.Error("failed to deliver reset token",
			slog.Int64("user_id", userID),
			slog.String("token_fp", cryptox.Fingerprint(d.Token)),
			slog.Any("error", err),
		)
		return
	}
	l.Info("reset token delivered",
		slog.Int64("user_id", userID),
		slog.String("token_fp", cryptox.Fingerprint(d.Token)),
	)
}

// Wait blocks until every background reset delivery has finished.
func (s *AuthService) Wait() {
	s.pending.Wait()
}

func (s *AuthService) resetLink(token string) string {
	base := s.ResetURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// ResetPassword replaces the password of the user named by a reset token.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := slogx.FromContext(ctx)

	email, err := s.Tokens.Verify(token, jwtx.KindReset)
	if err != nil {
		l.Debug("reset token rejected", slog.String("reason", tokenErrorReason(err)))
		return ErrInvalidToken
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	// Hashed before the transaction so it stays short.
	hash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		l.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("hash password: %w", err)
	}

	var u domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		found, err := tx.Users().GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		u = found
		return tx.Users().UpdatePasswordHash(ctx, u.ID, hash)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	l.Info("password reset", slog.Int64("user_id", u.ID))
	return nil
}

func tokenErrorReason(err error) string {
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return "expired"
	case errors.Is(err, jwtx.ErrWrongKind):
		return "wrong_kind"
	default:
		return "malformed"
	}
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", &InputError{Field: "username", Reason: "required"}
	}
	if len(username) > MaxUsernameLength {
		return "", &InputError{Field: "username", Reason: "too long"}
	}
	return username, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &InputError{Field: "email", Reason: "required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &InputError{Field: "email", Reason: "not a valid address"}
	}
	return email, nil
}

func validatePassword(password string) error {
	if password == "" {
		return &InputError{Field: "password", Reason: "required"}
	}
	if len(password) > MaxPasswordLength {
		return &InputError{Field: "password", Reason: "too long"}
	}
	return nil
}
