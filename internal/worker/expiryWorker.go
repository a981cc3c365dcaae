package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Expirer is the part of the reservation service the worker drives.
type Expirer interface {
	ExpireStaleReservations(ctx context.Context) (int, error)
}

// ReservationExpiryWorker освобождает номера, удерживаемые неоплаченными бронированиями
type ReservationExpiryWorker struct {
	reservations Expirer
	// timeout bounds a single sweep
	timeout time.Duration
}

func NewReservationExpiryWorker(reservations Expirer, timeout time.Duration) *ReservationExpiryWorker {
	return &ReservationExpiryWorker{
		reservations: reservations,
		timeout:      timeout,
	}
}

func (w *ReservationExpiryWorker) Name() string {
	return "reservation_expiry"
}

// RunOnce выполняет один проход очистки просроченных бронирований
func (w *ReservationExpiryWorker) RunOnce(ctx context.Context) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	started := time.Now()
	expired, err := w.reservations.ExpireStaleReservations(ctx)
	entry := logrus.WithFields(logrus.Fields{
		"worker":   w.Name(),
		"expired":  expired,
		"duration": time.Since(started),
	})

	if err != nil {
		entry.WithError(err).Error("Reservation expiry sweep failed")
		return
	}
	if expired == 0 {
		entry.Debug("No expired reservations found")
		return
	}
	entry.Info("Expired unpaid reservations")
}
