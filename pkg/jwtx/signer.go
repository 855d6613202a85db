package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest signing secret accepted, in bytes.
const MinSecretLength = 32

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = "HS256"

// Signer is our interface for anything that can sign tokens.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HMACSigner signs tokens with a shared secret (HS256, HS384 or HS512).
type HMACSigner struct {
	method *jwt.SigningMethodHMAC
	secret []byte
}

// NewHMACSigner creates a signer for alg using secret. An empty alg selects
// DefaultAlgorithm.
func NewHMACSigner(alg string, secret []byte) (*HMACSigner, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}

	// Copy so later mutation of the caller's slice cannot change signatures.
	key := make([]byte, len(secret))
	copy(key, secret)

	return &HMACSigner{method: method, secret: key}, nil
}

func (s *HMACSigner) Alg() string { return s.method.Alg() }

// Sign takes claims and turns them into a signed token string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	if !claims.Kind.Valid() {
		return "", fmt.Errorf("jwtx: refusing to sign unknown kind %q", claims.Kind)
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	switch alg {
	case "", "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, alg)
	}
}
