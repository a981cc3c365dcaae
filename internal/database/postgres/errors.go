package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/lib/pq"
)

const (
	pqLockNotAvailable     = "55P03"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// classifyError turns driver failures that are safe to retry into
// entity.TransientStoreError and wraps everything else.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return entity.NewTransientStoreError(op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqLockNotAvailable:
			return entity.NewTransientStoreError(op, fmt.Errorf("%w: %s", entity.ErrLockTimeout, pqErr.Message))
		case pqSerializationFailure, pqDeadlockDetected:
			return entity.NewTransientStoreError(op, pqErr)
		case pqUniqueViolation:
			return fmt.Errorf("failed to %s: %w", op, entity.ErrReservationExists)
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
