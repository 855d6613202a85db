package jwtx

import (
	"time"

	"github.com/aussiebroadwan/locker/pkg/idx"
	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs.
const (
	DefaultSessionTTL = 30 * time.Minute
	DefaultResetTTL   = 15 * time.Minute
)

// Kind tags what a token may be used for. A token is only ever accepted for
// the kind it was minted with.
type Kind string

const (
	KindSession Kind = "session"
	KindReset   Kind = "reset"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindSession || k == KindReset
}

func (k Kind) String() string { return string(k) }

// Claims are the claims carried by every token this package mints.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is serialised as "type" to stay compatible with tokens minted by
	// the previous deployment.
	Kind Kind `json:"type"`
}

// NewClaims builds minimally-correct claims for the given kind.
func NewClaims(kind Kind, subject, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Kind: kind,
	}
}

// NewJTI returns a ULID for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// ValidateKind checks the kind tag matches exactly.
func (c *Claims) ValidateKind(expected Kind) error {
	if c.Kind != expected {
		return ErrWrongKind
	}
	return nil
}
