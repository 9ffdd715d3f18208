package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Account failure kinds. Each unwraps to one of the sentinels above, so
// errors.Is works against either the kind or its category.
var (
	ErrInvalidCredentials        = kind("could not validate credentials", ErrUnauthorized)
	ErrInactiveUser              = kind("inactive user", ErrForbidden)
	ErrNotAdmin                  = kind("the user doesn't have enough privileges", ErrForbidden)
	ErrUserAlreadyExists         = kind("user already exists", ErrConflict)
	ErrUserNotExist              = kind("user does not exist", ErrNotFound)
	ErrIncorrectVerificationCode = kind("incorrect verification code", ErrUnauthorized)
	ErrAddressNotExist           = kind("delivery address does not exist", ErrNotFound)
)

type kindError struct {
	msg      string
	category error
}

func kind(msg string, category error) error {
	return &kindError{msg: msg, category: category}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.category }
