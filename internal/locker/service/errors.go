package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrItemNotFound       = errors.New("item_not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrInvalidInput       = errors.New("invalid_input")
)

// ConflictError reports which unique field collided. It matches ErrConflict
// under errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "account already registered"
	}
	return e.Field + " already registered"
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InputError describes a rejected input field. It matches ErrInvalidInput
// under errors.Is.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string { return e.Field + ": " + e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }
