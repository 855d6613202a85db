package service

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/locker/internal/locker/domain"
)

// DenialPolicy picks the error returned when a user touches an item they do
// not own.
type DenialPolicy int

const (
	// DenyForbidden reports ErrForbidden. Existence of the item is revealed.
	DenyForbidden DenialPolicy = iota
	// DenyNotFound reports ErrItemNotFound so foreign items look absent.
	DenyNotFound
)

func ParseDenialPolicy(s string) (DenialPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forbidden":
		return DenyForbidden, nil
	case "not_found", "notfound":
		return DenyNotFound, nil
	default:
		return DenyForbidden, fmt.Errorf("unknown ownership denial policy %q", s)
	}
}

func (p DenialPolicy) String() string {
	if p == DenyNotFound {
		return "not_found"
	}
	return "forbidden"
}

type OwnershipPolicy struct {
	Denial DenialPolicy
}

// CanAccess reports whether u owns it. Used for both read and delete.
func (OwnershipPolicy) CanAccess(u domain.User, it domain.Item) bool {
	return it.OwnerID == u.ID
}

// Deny returns the error for a failed CanAccess check.
func (p OwnershipPolicy) Deny() error {
	if p.Denial == DenyNotFound {
		return ErrItemNotFound
	}
	return ErrForbidden
}
