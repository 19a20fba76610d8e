package interpreter

import "errors"

// Spec errors
var (
	ErrBadVersion = errors.New("interpreter: version must be MAJOR[.MINOR[.PATCH]]")
	ErrBadSpec    = errors.New("interpreter: spec pin and minimum version conflict")
)

// Discovery errors
var (
	ErrNotFound = errors.New("interpreter: no suitable interpreter found")
)

// Platform errors
var (
	ErrUnsupportedPlatform = errors.New("interpreter: platform not supported")
)
