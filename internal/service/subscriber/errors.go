package subscriber

import "errors"

// Sentinel errors for the subscriber service layer.
var (
	ErrNotFound          = errors.New("subscriber not found")
	ErrSegmentNotFound   = errors.New("segment not found")
	ErrAlreadySubscribed = errors.New("email is already subscribed")
	ErrTokenMismatch     = errors.New("unsubscribe token does not match")
	ErrInvalidEmail      = errors.New("invalid email address")
)
