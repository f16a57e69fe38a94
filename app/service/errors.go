package service

import (
	"errors"
	"fmt"
)

// Error categories. Boundaries classify returned errors with errors.Is
// against these and map them onto status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect username or password", ErrUnauthorized)
	ErrInvalidAccessToken = fmt.Errorf("%w: could not validate credentials", ErrUnauthorized)
	ErrNotOwner           = fmt.Errorf("%w: you are not the author of this resource", ErrForbidden)
	ErrResourceNotFound   = fmt.Errorf("%w: resource does not exist", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: there is no user with this email", ErrNotFound)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrInvalidInput)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrInvalidInput)
	ErrInvalidVote        = fmt.Errorf("%w: invalid vote type", ErrInvalidInput)
	ErrUserExists         = fmt.Errorf("%w: user already exists", ErrConflict)
)
