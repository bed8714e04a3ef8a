package services

import (
	"errors"
	"fmt"
)

var (
	ErrPasswordMismatch      = errors.New("passwords don't match")
	ErrEmailTaken            = errors.New("email exists already")
	ErrInvalidCredentials    = errors.New("incorrect email or password")
	ErrAccountNotVerified    = errors.New("account not verified, please check your emails")
	ErrAccountDisabled       = errors.New("account disabled")
	ErrInvalidToken          = errors.New("invalid token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrDefaultRoleMissing    = errors.New("default role is not configured")

	// ErrStorage wraps any persistence fault. The cause stays in the chain
	// for logging and must not reach clients.
	ErrStorage = errors.New("storage failure")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
