package domain

import "github.com/cockroachdb/errors"

var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrRoomConflict      = errors.New("room already booked for the requested period")
	ErrDuplicateDocument = errors.New("guest with this document already exists")
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrUnauthenticated   = errors.New("missing or invalid credentials")
	ErrForbidden         = errors.New("insufficient role")
	ErrTxConflict        = errors.New("transaction conflict")
)

// Validationf builds a caller-facing validation error. The message survives
// verbatim to the HTTP body; errors.Is(err, ErrValidation) routes the status.
func Validationf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

func transitionError(msg string) error {
	return errors.Mark(errors.New(msg), ErrInvalidTransition)
}
