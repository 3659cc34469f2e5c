package score

import "errors"

var (
	ErrInvalidInitials = errors.New("initials must be exactly 3 characters")
	ErrInvalidScore    = errors.New("score must be a non-negative integer")
	ErrInvalidEmail    = errors.New("email is malformed")
)
