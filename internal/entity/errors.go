package entity

import (
	"errors"
	"fmt"
)

var (
	// Validation errors
	ErrInvalidDateRange  = errors.New("check-in must be before check-out")
	ErrInvalidGuestCount = errors.New("guest count must be at least 1")
	ErrInvalidInput      = errors.New("invalid input")

	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomUnavailable = errors.New("room is not available for the selected dates")

	// Reservation errors
	ErrReservationNotFound      = errors.New("reservation not found")
	ErrInvalidReservationStatus = errors.New("invalid reservation status")
	ErrReservationExists        = errors.New("reservation already exists")
	ErrReservationExpired       = errors.New("reservation hold has expired")

	// Payment errors
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentAlreadyCompleted   = errors.New("payment already completed")

	// Access errors
	ErrUnauthorized = errors.New("unauthorized access")

	// Store errors
	ErrLockTimeout = errors.New("timed out waiting for room lock")
)

// TransientStoreError marks a ledger failure that is safe to retry:
// lock wait timeouts, serialization failures, dropped connections.
type TransientStoreError struct {
	Op  string
	Err error
}

func NewTransientStoreError(op string, err error) *TransientStoreError {
	return &TransientStoreError{Op: op, Err: err}
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error during %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err, or anything it wraps, is a TransientStoreError.
func IsTransient(err error) bool {
	var te *TransientStoreError
	return errors.As(err, &te)
}
