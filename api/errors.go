package main

import "errors"

// Sentinel errors for the auth and task flows. Callers match them with
// errors.Is; anything outside this list is an internal fault and is surfaced
// as a generic 500, never mapped into a credential-shaped failure.
var (
	errInvalidInput       = errors.New("invalid input")
	errWeakPassword       = errors.New("weak password")
	errDuplicateUser      = errors.New("user with this email already exists")
	errInvalidCredentials = errors.New("incorrect email or password")
	errRateLimited        = errors.New("rate limit exceeded")
	errInvalidToken       = errors.New("invalid token")
	errTokenExpired       = errors.New("token expired")
	errUserNotFound       = errors.New("user not found")
	errForbidden          = errors.New("forbidden")
	errTaskNotFound       = errors.New("task not found")
)
