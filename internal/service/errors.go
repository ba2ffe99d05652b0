package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrUserNotFound           = errors.New("user not found")

	// Token lifecycle failures. Expired is reported distinctly from not
	// found: the remediation differs (request a new code vs. re-check the
	// value you typed).
	ErrTokenNotFound = errors.New("invalid or already used code")
	ErrTokenExpired  = errors.New("code has expired")

	// ErrEmailTaken covers both the request-time check and the re-check at
	// consumption time, when another account claimed the address while the
	// change code was in flight.
	ErrEmailTaken = errors.New("email is already in use")

	// ErrEmailDispatchFailed surfaces only from the email-change request
	// flow; without that email the user has no path to finish the change.
	ErrEmailDispatchFailed = errors.New("could not send verification email")

	ErrPropertyNotFound = errors.New("property not found")
	ErrImageNotFound    = errors.New("image not found")
	ErrNotOwner         = errors.New("property does not belong to user")
)
