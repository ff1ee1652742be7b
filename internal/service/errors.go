package service

import "errors"

// Errors surfaced to callers of the facade. Credential and token failures are
// deliberately coarse: callers cannot tell an unknown user from a wrong
// password, or an expired token from a forged one.
var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrWeakPassword       = errors.New("password does not meet security requirements")
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
