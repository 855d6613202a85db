package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/locker/pkg/jwtx"
)

// TokenConfig is loaded once at startup and never mutated.
type TokenConfig struct {
	Secret     []byte
	Algorithm  string // HS256, HS384 or HS512; empty means HS256
	Issuer     string
	SessionTTL time.Duration
	ResetTTL   time.Duration

	// Now overrides the clock for issuing and verifying. Nil means time.Now.
	Now func() time.Time
}

// TokenService mints and verifies session and reset tokens. Both kinds share
// one secret and algorithm but are never accepted in place of each other.
type TokenService struct {
	signer     jwtx.Signer
	verifier   jwtx.Verifier
	issuer     string
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.SessionTTL <= 0 || cfg.ResetTTL <= 0 {
		return nil, errors.New("token ttls must be positive")
	}
	if cfg.ResetTTL >= cfg.SessionTTL {
		return nil, fmt.Errorf("reset ttl (%s) must be shorter than session ttl (%s)", cfg.ResetTTL, cfg.SessionTTL)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	signer, err := jwtx.NewHMACSigner(cfg.Algorithm, cfg.Secret)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewHMACVerifier(cfg.Algorithm, cfg.Secret, jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
		Now:    now,
	})
	if err != nil {
		return nil, err
	}

	return &TokenService{
		signer:     signer,
		verifier:   verifier,
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.ResetTTL,
		now:        now,
	}, nil
}

func (s *TokenService) SessionTTL() time.Duration { return s.sessionTTL }
func (s *TokenService) ResetTTL() time.Duration   { return s.resetTTL }

// IssueSession mints a session token for username.
func (s *TokenService) IssueSession(username string) (string, time.Time, error) {
	return s.issue(jwtx.KindSession, username, s.sessionTTL)
}

// IssueReset mints a password-reset token for email.
func (s *TokenService) IssueReset(email string) (string, time.Time, error) {
	return s.issue(jwtx.KindReset, email, s.resetTTL)
}

func (s *TokenService) issue(kind jwtx.Kind, subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject required")
	}
	claims := jwtx.NewClaims(kind, subject, s.issuer, ttl, s.now())
	tok, err := s.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, claims.ExpiresAt.Time, nil
}

// Verify returns the subject of a token minted for expected. Errors are
// jwtx.ErrMalformed, jwtx.ErrExpired or jwtx.ErrWrongKind.
func (s *TokenService) Verify(token string, expected jwtx.Kind) (string, error) {
	claims, err := s.verifier.Verify(token, expected)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
