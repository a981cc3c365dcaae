package repository

import (
	"context"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
)

// RoomRepository is the read-only view of the hotel catalog.
type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	ListByHotel(ctx context.Context, hotelID string) ([]*entity.Room, error)
}

// LedgerTx is the set of operations available inside a room's critical section.
type LedgerTx interface {
	// Inventory is the room's unit count as read under the lock.
	Inventory() int
	CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error)
	Insert(ctx context.Context, reservation *entity.Reservation) error
	Find(ctx context.Context, id string) (*entity.Reservation, error)
}

// ReservationLedger is the source of truth for reservations.
type ReservationLedger interface {
	// WithinRoomLock runs fn while holding the per-room critical section. Writes made
	// through tx are committed only if fn returns nil. A lock wait longer than the
	// configured bound fails with a transient store error.
	WithinRoomLock(ctx context.Context, roomID string, fn func(ctx context.Context, tx LedgerTx) error) error

	// CountOverlapping is an unlocked snapshot, for availability display only.
	CountOverlapping(ctx context.Context, roomID string, stay entity.Stay, statuses []entity.ReservationStatus) (int, error)

	GetByID(ctx context.Context, id string) (*entity.Reservation, error)
	Transition(ctx context.Context, id string, t entity.StatusTransition) (*entity.Reservation, error)

	GetByUserID(ctx context.Context, userID string) ([]*entity.Reservation, error)
	// GetByRoomOwner returns reservations of every room the owner holds, newest first.
	GetByRoomOwner(ctx context.Context, ownerID string) ([]*entity.Reservation, error)
	List(ctx context.Context, filter entity.ReservationFilter) ([]*entity.Reservation, error)
	GetExpiredPending(ctx context.Context, before time.Time, limit int) ([]*entity.Reservation, error)
}
