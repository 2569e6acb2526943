package auth

import (
	"errors"

	"github.com/corpdesk/employee-portal/internal/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailTaken          = repository.ErrEmailTaken
	ErrAccountNotFound     = repository.ErrAccountNotFound
	ErrWeakPassword        = errors.New("password is too short")
	ErrInvalidEmail        = errors.New("email address is malformed")
	ErrRequiresRecentLogin = errors.New("this operation requires a recent sign-in")
	ErrSessionInvalid      = errors.New("session is not active")
	ErrTooManyAttempts     = errors.New("too many failed sign-in attempts")
)
