package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Review workflow validation, in check order.
	ErrNotAuthenticated = errors.New("login required to submit a review")
	ErrNotAuthorized    = errors.New("only students can submit reviews")
	ErrEmptyComment     = errors.New("review comment is required")
	ErrCommentTooShort  = errors.New("review comment must be at least 10 characters long")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")

	// Image selection gating.
	ErrTooManyImages = errors.New("at most 5 images may be attached")
	ErrImageRejected = errors.New("images must be JPEG or PNG and at most 5 MiB each")
)

// RejectionError carries the message a server attached when declining a
// submission (success=false with 2xx, or an error status with a body).
type RejectionError struct{ Message string }

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return "submission rejected"
	}
	return e.Message
}

// TransportError wraps network or serialization failures so callers can show
// a generic retry message instead of the raw cause.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return "transport failure: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
