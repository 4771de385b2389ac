package domain

import "errors"

var (
	ErrUnknownDestination = errors.New("unknown destination")
	ErrInvalidRole        = errors.New("invalid message role")
	ErrSubmission         = errors.New("booking submission failed")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
)
